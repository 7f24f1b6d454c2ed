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

// AssignmentRepository implements secondary.AssignmentRepository with SQLite.
type AssignmentRepository struct {
	db dbtx
}

// NewAssignmentRepository creates a new SQLite assignment repository.
func NewAssignmentRepository(db dbtx) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Get retrieves the assignment for a week.
func (r *AssignmentRepository) Get(ctx context.Context, weekStart time.Time) (*secondary.AssignmentRecord, error) {
	var (
		weekText    string
		assignee    sql.NullString
		completedBy sql.NullString
		mode        sql.NullString
		completedAt sql.NullTime
	)

	record := &secondary.AssignmentRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT week_start, assignee_member_id, status, completed_by_member_id, completion_mode, completed_at
		 FROM assignments WHERE week_start = ?`,
		week.Format(weekStart),
	).Scan(&weekText, &assignee, &record.Status, &completedBy, &mode, &completedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("assignment for week", week.Format(weekStart))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if record.WeekStart, err = parseWeek(weekText); err != nil {
		return nil, err
	}
	record.AssigneeID = assignee.String
	record.CompletedByID = completedBy.String
	record.CompletionMode = mode.String
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time
	}

	return record, nil
}

// Create persists a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *secondary.AssignmentRecord) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assignments (week_start, assignee_member_id, status, completed_by_member_id, completion_mode, completed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		week.Format(assignment.WeekStart), nullString(assignment.AssigneeID), assignment.Status,
		nullString(assignment.CompletedByID), nullString(assignment.CompletionMode), nullTime(assignment.CompletedAt),
		ts, ts,
	)
	if isUniqueViolation(err) {
		return rotation.Errorf(rotation.ErrConflict, "assignment for week %s already exists", week.Format(assignment.WeekStart))
	}
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// Update overwrites assignee, status and completion fields.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *secondary.AssignmentRecord) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE assignments SET assignee_member_id = ?, status = ?, completed_by_member_id = ?,
			completion_mode = ?, completed_at = ?, updated_at = ?
		 WHERE week_start = ?`,
		nullString(assignment.AssigneeID), assignment.Status, nullString(assignment.CompletedByID),
		nullString(assignment.CompletionMode), nullTime(assignment.CompletedAt), now(),
		week.Format(assignment.WeekStart),
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return notFound("assignment for week", week.Format(assignment.WeekStart))
	}
	return nil
}

// MarkMissedBefore flips every pending row before weekStart to missed.
func (r *AssignmentRepository) MarkMissedBefore(ctx context.Context, weekStart time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE assignments SET status = ?, updated_at = ? WHERE status = ? AND week_start < ?",
		rotation.StatusMissed, now(), rotation.StatusPending, week.Format(weekStart),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark missed assignments: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

var _ secondary.AssignmentRepository = (*AssignmentRepository)(nil)
