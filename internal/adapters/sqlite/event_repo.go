package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/example/rota/internal/ports/secondary"
)

// EventRepository implements secondary.EventRepository with SQLite.
// Events are append-only.
type EventRepository struct {
	db dbtx
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(db dbtx) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = "id, domain, action, actor_member_id, actor_external_id, payload_json, created_at"

// Append persists a new event and sets its ID.
func (r *EventRepository) Append(ctx context.Context, event *secondary.EventRecord) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now()
	}
	if event.PayloadJSON == "" {
		event.PayloadJSON = "{}"
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO events (domain, action, actor_member_id, actor_external_id, payload_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.Domain, event.Action, nullString(event.ActorMemberID), nullString(event.ActorExternalID),
		event.PayloadJSON, event.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event ID: %w", err)
	}
	event.ID = id
	return nil
}

// GetByID retrieves an event by its ID.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*secondary.EventRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	record, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, notFound("event", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return record, nil
}

// List retrieves events newest first.
func (r *EventRepository) List(ctx context.Context, filters secondary.EventFilters) ([]*secondary.EventRecord, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE 1=1"
	args := []any{}

	if filters.Domain != "" {
		query += " AND domain = ?"
		args = append(args, filters.Domain)
	}
	if filters.Action != "" {
		query += " AND action = ?"
		args = append(args, filters.Action)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.EventRecord
	for rows.Next() {
		record, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

func scanEvent(row rowScanner) (*secondary.EventRecord, error) {
	var (
		actorMemberID   sql.NullString
		actorExternalID sql.NullString
		createdAt       time.Time
	)

	record := &secondary.EventRecord{}
	err := row.Scan(&record.ID, &record.Domain, &record.Action, &actorMemberID, &actorExternalID,
		&record.PayloadJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	record.ActorMemberID = actorMemberID.String
	record.ActorExternalID = actorExternalID.String
	record.CreatedAt = createdAt
	return record, nil
}

var _ secondary.EventRepository = (*EventRepository)(nil)
