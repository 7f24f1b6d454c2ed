package primary

import (
	"context"
	"time"
)

// Dispatch statuses recorded by the host.
const (
	DispatchSent           = "sent"
	DispatchFailed         = "failed"
	DispatchSkipped        = "skipped"
	DispatchSuppressed     = "suppressed"
	DispatchTestRedirected = "test_redirected"
)

// NotificationService defines the primary port for scheduled reminders and
// the delivery audit.
type NotificationService interface {
	// DueNotifications returns the reminders due at the exact minute at.
	// It never writes.
	DueNotifications(ctx context.Context, at time.Time) ([]Notification, error)

	// RecordDispatches stores delivery outcomes reported by the host.
	RecordDispatches(ctx context.Context, dispatches []Dispatch) (int, error)

	// ListDispatches returns delivery outcomes newest first.
	ListDispatches(ctx context.Context, filters DispatchFilters) ([]*Dispatch, error)
}

// Dispatch is one delivery attempt of a notification.
type Dispatch struct {
	ID string
	Notification
	Status       string
	Reason       string
	DispatchedAt time.Time
}

// DispatchFilters contains filter options for listing dispatches.
type DispatchFilters struct {
	WeekStart time.Time
	MemberID  string
	Status    string
	Limit     int
}
