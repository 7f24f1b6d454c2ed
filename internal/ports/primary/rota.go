package primary

import (
	"context"
	"time"
)

// RotaService defines the primary port for the weekly cleaning rotation.
type RotaService interface {
	// GetCurrent resolves the week containing now, sweeping earlier pending weeks to missed.
	GetCurrent(ctx context.Context, now time.Time) (*Current, error)

	// GetSchedule resolves consecutive weeks starting at the current or a given week.
	GetSchedule(ctx context.Context, req ScheduleRequest) ([]*ScheduleRow, error)

	// GetRotation returns the reconciled rotation order and its anchor.
	GetRotation(ctx context.Context) (*Rotation, error)

	// PlanSwap creates, edits or cancels the manual swap of a week together
	// with its linked return compensation.
	PlanSwap(ctx context.Context, req PlanSwapRequest) (*PlanSwapResponse, error)

	// MarkDone records own completion of a week.
	MarkDone(ctx context.Context, req MarkDoneRequest) ([]Notification, error)

	// MarkUndone reverts a completed week to pending.
	MarkUndone(ctx context.Context, req MarkUndoneRequest) ([]Notification, error)

	// MarkTakeoverDone records that someone else cleaned a week and plans
	// their compensation.
	MarkTakeoverDone(ctx context.Context, req MarkTakeoverRequest) (*MarkTakeoverResponse, error)

	// CancelOverridesForInactiveMembers cancels every planned override naming
	// one of memberIDs.
	CancelOverridesForInactiveMembers(ctx context.Context, memberIDs []string, actorExternalID string) ([]Notification, error)
}

// Current is the resolved state of the current week.
type Current struct {
	WeekStart      time.Time
	BaselineID     string
	EffectiveID    string
	Status         string
	CompletedByID  string
	CompletionMode string
	OverrideType   string
}

// ScheduleRequest contains parameters for resolving a schedule.
type ScheduleRequest struct {
	WeeksAhead int
	// FromWeek defaults to the week containing Now.
	FromWeek time.Time
	Now      time.Time
}

// ScheduleRow is one resolved week.
type ScheduleRow struct {
	WeekStart       time.Time
	BaselineID      string
	EffectiveID     string
	OverrideID      string
	OverrideType    string
	OverrideSource  string
	SourceWeekStart time.Time // zero when the override has no source event
	Status          string
	CompletedByID   string
	CompletionMode  string
	CompletedAt     time.Time
}

// Rotation represents the rotation config at the port boundary.
type Rotation struct {
	OrderedMemberIDs []string
	AnchorWeek       time.Time
}

// PlanSwapRequest contains parameters for planning a manual swap.
type PlanSwapRequest struct {
	WeekStart       time.Time
	MemberAID       string
	MemberBID       string
	ActorExternalID string
	Cancel          bool
}

// PlanSwapResponse contains the swap and its return compensation.
// Both are nil after a cancel.
type PlanSwapResponse struct {
	Swap          *Override
	Return        *Override
	Notifications []Notification
}

// MarkDoneRequest contains parameters for own completion.
type MarkDoneRequest struct {
	WeekStart       time.Time
	ActorExternalID string
	// CompletedByID defaults to the actor's member.
	CompletedByID string
}

// MarkUndoneRequest contains parameters for reverting a completion.
type MarkUndoneRequest struct {
	WeekStart       time.Time
	ActorExternalID string
}

// MarkTakeoverRequest contains parameters for takeover completion.
type MarkTakeoverRequest struct {
	WeekStart          time.Time
	OriginalAssigneeID string
	CleanerID          string
	ActorExternalID    string
}

// MarkTakeoverResponse contains the planned compensation.
type MarkTakeoverResponse struct {
	Compensation  *Override
	Notifications []Notification
}

// Override represents an override at the port boundary.
type Override struct {
	ID            string
	WeekStart     time.Time
	Type          string
	Source        string
	SourceEventID int64
	MemberFromID  string
	MemberToID    string
	Status        string
}

// Notification is an outbound message for the host to deliver.
type Notification struct {
	MemberID      string    `json:"member_id"`
	NotifyChannel string    `json:"notify_channel,omitempty"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Category      string    `json:"category"`
	WeekStart     time.Time `json:"-"`
	Kind          string    `json:"kind"`
	Slot          string    `json:"slot,omitempty"`
	SourceAction  string    `json:"source_action"`
}
