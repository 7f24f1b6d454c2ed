// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// Transactor runs a unit of work against one transaction of the store.
type Transactor interface {
	// WithinTx runs fn inside one transaction. A non-nil error from fn, or a
	// failed commit, rolls back everything fn wrote.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	// ReadOnly runs fn inside one transaction that is always rolled back,
	// giving fn a consistent snapshot.
	ReadOnly(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Repositories bundles the repositories bound to a single transaction.
type Repositories struct {
	Members     MemberRepository
	Rotation    RotationRepository
	Assignments AssignmentRepository
	Overrides   OverrideRepository
	Events      EventRepository
	Dispatches  DispatchRepository
}

// MemberRepository defines the secondary port for member persistence.
type MemberRepository interface {
	// Create persists a new member.
	Create(ctx context.Context, member *MemberRecord) error

	// Update updates display name, notify channel and active flag.
	Update(ctx context.Context, member *MemberRecord) error

	// GetByID retrieves a member by ID. Missing members yield rotation.ErrNotFound.
	GetByID(ctx context.Context, id string) (*MemberRecord, error)

	// GetByExternalID retrieves a member by directory id. Missing members yield rotation.ErrNotFound.
	GetByExternalID(ctx context.Context, externalID string) (*MemberRecord, error)

	// List retrieves members ordered by display name.
	List(ctx context.Context, filters MemberFilters) ([]*MemberRecord, error)

	// GetNextID returns the next available member ID.
	GetNextID(ctx context.Context) (string, error)
}

// MemberRecord represents a member as stored in persistence.
type MemberRecord struct {
	ID            string
	ExternalID    string
	DisplayName   string
	NotifyChannel string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MemberFilters contains filter options for querying members.
type MemberFilters struct {
	ActiveOnly bool
}

// RotationRepository defines the secondary port for the singleton rotation config.
type RotationRepository interface {
	// Get returns the rotation config, or an empty one if none was saved yet.
	Get(ctx context.Context) (*RotationRecord, error)

	// Save upserts the rotation config.
	Save(ctx context.Context, rotation *RotationRecord) error
}

// RotationRecord represents the rotation config as stored in persistence.
type RotationRecord struct {
	OrderedMemberIDs []string
	AnchorWeek       time.Time // zero when unset
	UpdatedAt        time.Time
}

// AssignmentRepository defines the secondary port for weekly assignments.
type AssignmentRepository interface {
	// Get retrieves the assignment for a week. Missing rows yield rotation.ErrNotFound.
	Get(ctx context.Context, weekStart time.Time) (*AssignmentRecord, error)

	// Create persists a new assignment.
	Create(ctx context.Context, assignment *AssignmentRecord) error

	// Update overwrites assignee, status and completion fields.
	Update(ctx context.Context, assignment *AssignmentRecord) error

	// MarkMissedBefore flips pending rows before weekStart to missed.
	MarkMissedBefore(ctx context.Context, weekStart time.Time) (int64, error)
}

// AssignmentRecord represents a weekly assignment as stored in persistence.
type AssignmentRecord struct {
	WeekStart      time.Time
	AssigneeID     string
	Status         string
	CompletedByID  string
	CompletionMode string
	CompletedAt    time.Time // zero when not completed
}

// OverrideRepository defines the secondary port for override persistence.
// The store enforces at most one row per (week_start, status); a second row
// yields rotation.ErrConflict.
type OverrideRepository interface {
	// Create persists a new override.
	Create(ctx context.Context, override *OverrideRecord) error

	// Update overwrites every mutable field of an override.
	Update(ctx context.Context, override *OverrideRecord) error

	// Delete removes an override.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves an override. Missing rows yield rotation.ErrNotFound.
	GetByID(ctx context.Context, id string) (*OverrideRecord, error)

	// List retrieves overrides ordered by week, then creation time.
	List(ctx context.Context, filters OverrideFilters) ([]*OverrideRecord, error)

	// GetNextID returns the next available override ID.
	GetNextID(ctx context.Context) (string, error)
}

// OverrideRecord represents an override as stored in persistence.
type OverrideRecord struct {
	ID            string
	WeekStart     time.Time
	Type          string
	Source        string
	SourceEventID int64 // 0 when not linked to an event
	MemberFromID  string
	MemberToID    string
	Status        string
	CreatedByID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OverrideFilters contains filter options for querying overrides.
// Zero values are ignored.
type OverrideFilters struct {
	WeekStart     time.Time
	AfterWeek     time.Time
	Status        string
	Type          string
	Source        string
	SourceEventID int64
	MemberFromID  string
	MemberToID    string
	ExcludeID     string
}

// EventRepository defines the secondary port for the append-only event log.
type EventRepository interface {
	// Append persists a new event and sets its ID.
	Append(ctx context.Context, event *EventRecord) error

	// GetByID retrieves an event. Missing rows yield rotation.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*EventRecord, error)

	// List retrieves events newest first.
	List(ctx context.Context, filters EventFilters) ([]*EventRecord, error)
}

// EventRecord represents an event as stored in persistence.
type EventRecord struct {
	ID              int64
	Domain          string
	Action          string
	ActorMemberID   string
	ActorExternalID string
	PayloadJSON     string
	CreatedAt       time.Time
}

// EventFilters contains filter options for querying events.
type EventFilters struct {
	Domain string
	Action string
	Limit  int
}

// DispatchRepository defines the secondary port for the notification dispatch audit.
type DispatchRepository interface {
	// Create persists a dispatch outcome.
	Create(ctx context.Context, dispatch *DispatchRecord) error

	// List retrieves dispatch outcomes newest first.
	List(ctx context.Context, filters DispatchFilters) ([]*DispatchRecord, error)
}

// DispatchRecord represents one delivery attempt as stored in persistence.
type DispatchRecord struct {
	ID            string
	WeekStart     time.Time
	MemberID      string
	NotifyChannel string
	Kind          string
	Slot          string
	SourceAction  string
	Title         string
	Message       string
	Status        string
	Reason        string
	DispatchedAt  time.Time
}

// DispatchFilters contains filter options for querying dispatch outcomes.
type DispatchFilters struct {
	WeekStart time.Time
	MemberID  string
	Status    string
	Limit     int
}
