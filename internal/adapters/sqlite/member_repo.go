package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/ports/secondary"
)

// MemberRepository implements secondary.MemberRepository with SQLite.
type MemberRepository struct {
	db dbtx
}

// NewMemberRepository creates a new SQLite member repository.
func NewMemberRepository(db dbtx) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = "id, external_id, display_name, notify_channel, active, created_at, updated_at"

// Create persists a new member.
func (r *MemberRepository) Create(ctx context.Context, member *secondary.MemberRecord) error {
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now()
	}
	if member.UpdatedAt.IsZero() {
		member.UpdatedAt = member.CreatedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, external_id, display_name, notify_channel, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		member.ID, member.ExternalID, member.DisplayName, nullString(member.NotifyChannel),
		member.Active, member.CreatedAt.UTC(), member.UpdatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return rotation.Errorf(rotation.ErrConflict, "member with external id %s already exists", member.ExternalID)
	}
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// Update updates display name, notify channel and active flag.
func (r *MemberRepository) Update(ctx context.Context, member *secondary.MemberRecord) error {
	if member.UpdatedAt.IsZero() {
		member.UpdatedAt = now()
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE members SET display_name = ?, notify_channel = ?, active = ?, updated_at = ? WHERE id = ?`,
		member.DisplayName, nullString(member.NotifyChannel), member.Active, member.UpdatedAt.UTC(), member.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return notFound("member", member.ID)
	}
	return nil
}

// GetByID retrieves a member by its ID.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*secondary.MemberRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM members WHERE id = ?", id)
	record, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, notFound("member", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return record, nil
}

// GetByExternalID retrieves a member by its directory id.
func (r *MemberRepository) GetByExternalID(ctx context.Context, externalID string) (*secondary.MemberRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM members WHERE external_id = ?", externalID)
	record, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, notFound("member with external id", externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return record, nil
}

// List retrieves members ordered by display name, then ID.
func (r *MemberRepository) List(ctx context.Context, filters secondary.MemberFilters) ([]*secondary.MemberRecord, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE 1=1"
	if filters.ActiveOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY display_name ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*secondary.MemberRecord
	for rows.Next() {
		record, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// GetNextID returns the next available member ID.
func (r *MemberRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM members",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next member ID: %w", err)
	}

	return fmt.Sprintf("MEM-%03d", maxID+1), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*secondary.MemberRecord, error) {
	var (
		channel   sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)

	record := &secondary.MemberRecord{}
	err := row.Scan(&record.ID, &record.ExternalID, &record.DisplayName, &channel,
		&record.Active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.NotifyChannel = channel.String
	record.CreatedAt = createdAt
	record.UpdatedAt = updatedAt
	return record, nil
}

var _ secondary.MemberRepository = (*MemberRepository)(nil)
