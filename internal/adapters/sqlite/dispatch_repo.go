package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ports/secondary"
)

// DispatchRepository implements secondary.DispatchRepository with SQLite.
type DispatchRepository struct {
	db dbtx
}

// NewDispatchRepository creates a new SQLite dispatch repository.
func NewDispatchRepository(db dbtx) *DispatchRepository {
	return &DispatchRepository{db: db}
}

const dispatchColumns = `id, week_start, member_id, notify_channel, kind, slot, source_action,
	title, message, status, reason, dispatched_at`

// Create persists a dispatch outcome.
func (r *DispatchRepository) Create(ctx context.Context, dispatch *secondary.DispatchRecord) error {
	if dispatch.DispatchedAt.IsZero() {
		dispatch.DispatchedAt = now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notification_dispatches (`+dispatchColumns+`, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dispatch.ID, week.Format(dispatch.WeekStart), nullString(dispatch.MemberID),
		nullString(dispatch.NotifyChannel), dispatch.Kind, nullString(dispatch.Slot),
		nullString(dispatch.SourceAction), nullString(dispatch.Title), nullString(dispatch.Message),
		dispatch.Status, nullString(dispatch.Reason), dispatch.DispatchedAt.UTC(), now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record dispatch: %w", err)
	}
	return nil
}

// List retrieves dispatch outcomes newest first.
func (r *DispatchRepository) List(ctx context.Context, filters secondary.DispatchFilters) ([]*secondary.DispatchRecord, error) {
	query := "SELECT " + dispatchColumns + " FROM notification_dispatches WHERE 1=1"
	args := []any{}

	if !filters.WeekStart.IsZero() {
		query += " AND week_start = ?"
		args = append(args, week.Format(filters.WeekStart))
	}
	if filters.MemberID != "" {
		query += " AND member_id = ?"
		args = append(args, filters.MemberID)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY dispatched_at DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatches: %w", err)
	}
	defer rows.Close()

	var dispatches []*secondary.DispatchRecord
	for rows.Next() {
		var (
			weekText     string
			memberID     sql.NullString
			channel      sql.NullString
			slot         sql.NullString
			sourceAction sql.NullString
			title        sql.NullString
			message      sql.NullString
			reason       sql.NullString
			dispatchedAt time.Time
		)

		record := &secondary.DispatchRecord{}
		err := rows.Scan(&record.ID, &weekText, &memberID, &channel, &record.Kind, &slot, &sourceAction,
			&title, &message, &record.Status, &reason, &dispatchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}

		if record.WeekStart, err = parseWeek(weekText); err != nil {
			return nil, err
		}
		record.MemberID = memberID.String
		record.NotifyChannel = channel.String
		record.Slot = slot.String
		record.SourceAction = sourceAction.String
		record.Title = title.String
		record.Message = message.String
		record.Reason = reason.String
		record.DispatchedAt = dispatchedAt

		dispatches = append(dispatches, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dispatches: %w", err)
	}

	return dispatches, nil
}

var _ secondary.DispatchRepository = (*DispatchRepository)(nil)
