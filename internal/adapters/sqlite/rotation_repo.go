package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ports/secondary"
)

// RotationRepository implements secondary.RotationRepository with SQLite.
// The config lives in a single row with id 1.
type RotationRepository struct {
	db dbtx
}

// NewRotationRepository creates a new SQLite rotation repository.
func NewRotationRepository(db dbtx) *RotationRepository {
	return &RotationRepository{db: db}
}

// Get returns the rotation config, or an empty config if none was saved yet.
func (r *RotationRepository) Get(ctx context.Context) (*secondary.RotationRecord, error) {
	var (
		orderedJSON string
		anchor      sql.NullString
		updatedAt   time.Time
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT ordered_member_ids, anchor_week_start, updated_at FROM rotation_config WHERE id = 1",
	).Scan(&orderedJSON, &anchor, &updatedAt)
	if err == sql.ErrNoRows {
		return &secondary.RotationRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation config: %w", err)
	}

	record := &secondary.RotationRecord{UpdatedAt: updatedAt}
	if err := json.Unmarshal([]byte(orderedJSON), &record.OrderedMemberIDs); err != nil {
		return nil, fmt.Errorf("failed to decode rotation order: %w", err)
	}
	if anchor.Valid && anchor.String != "" {
		if record.AnchorWeek, err = parseWeek(anchor.String); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// Save upserts the rotation config.
func (r *RotationRepository) Save(ctx context.Context, rotation *secondary.RotationRecord) error {
	ordered := rotation.OrderedMemberIDs
	if ordered == nil {
		ordered = []string{}
	}
	orderedJSON, err := json.Marshal(ordered)
	if err != nil {
		return fmt.Errorf("failed to encode rotation order: %w", err)
	}

	var anchor sql.NullString
	if !rotation.AnchorWeek.IsZero() {
		anchor = sql.NullString{String: week.Format(rotation.AnchorWeek), Valid: true}
	}
	if rotation.UpdatedAt.IsZero() {
		rotation.UpdatedAt = now()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO rotation_config (id, ordered_member_ids, anchor_week_start, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			ordered_member_ids = excluded.ordered_member_ids,
			anchor_week_start = excluded.anchor_week_start,
			updated_at = excluded.updated_at`,
		string(orderedJSON), anchor, rotation.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save rotation config: %w", err)
	}
	return nil
}

var _ secondary.RotationRepository = (*RotationRepository)(nil)
