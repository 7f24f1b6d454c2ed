package primary

import (
	"context"
	"time"
)

// ActivityService defines the primary port for reading the event log.
type ActivityService interface {
	// ListActivity returns events newest first.
	ListActivity(ctx context.Context, filters ActivityFilters) ([]*Event, error)
}

// ActivityFilters contains filter options for listing events.
type ActivityFilters struct {
	Domain string
	Action string
	Limit  int
}

// Event represents a logged event at the port boundary.
type Event struct {
	ID              int64
	Domain          string
	Action          string
	ActorMemberID   string
	ActorExternalID string
	Payload         map[string]any
	CreatedAt       time.Time
}
