package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ports/secondary"
)

// OverrideRepository implements secondary.OverrideRepository with SQLite.
type OverrideRepository struct {
	db dbtx
}

// NewOverrideRepository creates a new SQLite override repository.
func NewOverrideRepository(db dbtx) *OverrideRepository {
	return &OverrideRepository{db: db}
}

const overrideColumns = `id, week_start, type, source, source_event_id, member_from_id, member_to_id,
	status, created_by_member_id, created_at, updated_at`

// Create persists a new override.
func (r *OverrideRepository) Create(ctx context.Context, override *secondary.OverrideRecord) error {
	if override.CreatedAt.IsZero() {
		override.CreatedAt = now()
	}
	if override.UpdatedAt.IsZero() {
		override.UpdatedAt = override.CreatedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO overrides (`+overrideColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		override.ID, week.Format(override.WeekStart), override.Type, override.Source,
		nullInt64(override.SourceEventID), override.MemberFromID, override.MemberToID,
		override.Status, nullString(override.CreatedByID),
		override.CreatedAt.UTC(), override.UpdatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return overrideConflict(override)
	}
	if err != nil {
		return fmt.Errorf("failed to create override: %w", err)
	}
	return nil
}

// Update overwrites every mutable field of an override.
func (r *OverrideRepository) Update(ctx context.Context, override *secondary.OverrideRecord) error {
	override.UpdatedAt = now()

	result, err := r.db.ExecContext(ctx,
		`UPDATE overrides SET week_start = ?, type = ?, source = ?, source_event_id = ?,
			member_from_id = ?, member_to_id = ?, status = ?, created_by_member_id = ?, updated_at = ?
		 WHERE id = ?`,
		week.Format(override.WeekStart), override.Type, override.Source, nullInt64(override.SourceEventID),
		override.MemberFromID, override.MemberToID, override.Status, nullString(override.CreatedByID),
		override.UpdatedAt, override.ID,
	)
	if isUniqueViolation(err) {
		return overrideConflict(override)
	}
	if err != nil {
		return fmt.Errorf("failed to update override: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return notFound("override", override.ID)
	}
	return nil
}

// Delete removes an override.
func (r *OverrideRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM overrides WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return notFound("override", id)
	}
	return nil
}

// GetByID retrieves an override by its ID.
func (r *OverrideRepository) GetByID(ctx context.Context, id string) (*secondary.OverrideRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+overrideColumns+" FROM overrides WHERE id = ?", id)
	record, err := scanOverride(row)
	if err == sql.ErrNoRows {
		return nil, notFound("override", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get override: %w", err)
	}
	return record, nil
}

// List retrieves overrides ordered by week, then creation time.
func (r *OverrideRepository) List(ctx context.Context, filters secondary.OverrideFilters) ([]*secondary.OverrideRecord, error) {
	query := "SELECT " + overrideColumns + " FROM overrides WHERE 1=1"
	args := []any{}

	if !filters.WeekStart.IsZero() {
		query += " AND week_start = ?"
		args = append(args, week.Format(filters.WeekStart))
	}
	if !filters.AfterWeek.IsZero() {
		query += " AND week_start > ?"
		args = append(args, week.Format(filters.AfterWeek))
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	if filters.Type != "" {
		query += " AND type = ?"
		args = append(args, filters.Type)
	}
	if filters.Source != "" {
		query += " AND source = ?"
		args = append(args, filters.Source)
	}
	if filters.SourceEventID != 0 {
		query += " AND source_event_id = ?"
		args = append(args, filters.SourceEventID)
	}
	if filters.MemberFromID != "" {
		query += " AND member_from_id = ?"
		args = append(args, filters.MemberFromID)
	}
	if filters.MemberToID != "" {
		query += " AND member_to_id = ?"
		args = append(args, filters.MemberToID)
	}
	if filters.ExcludeID != "" {
		query += " AND id != ?"
		args = append(args, filters.ExcludeID)
	}

	query += " ORDER BY week_start ASC, created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*secondary.OverrideRecord
	for rows.Next() {
		record, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		overrides = append(overrides, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate overrides: %w", err)
	}

	return overrides, nil
}

// GetNextID returns the next available override ID.
func (r *OverrideRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM overrides",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next override ID: %w", err)
	}

	return fmt.Sprintf("OVR-%04d", maxID+1), nil
}

func scanOverride(row rowScanner) (*secondary.OverrideRecord, error) {
	var (
		weekText    string
		eventID     sql.NullInt64
		createdByID sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
	)

	record := &secondary.OverrideRecord{}
	err := row.Scan(&record.ID, &weekText, &record.Type, &record.Source, &eventID,
		&record.MemberFromID, &record.MemberToID, &record.Status, &createdByID,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if record.WeekStart, err = parseWeek(weekText); err != nil {
		return nil, err
	}
	record.SourceEventID = eventID.Int64
	record.CreatedByID = createdByID.String
	record.CreatedAt = createdAt
	record.UpdatedAt = updatedAt
	return record, nil
}

func overrideConflict(o *secondary.OverrideRecord) error {
	return rotation.Errorf(rotation.ErrConflict, "a %s override already exists for week %s",
		o.Status, week.Format(o.WeekStart))
}

var _ secondary.OverrideRepository = (*OverrideRepository)(nil)
