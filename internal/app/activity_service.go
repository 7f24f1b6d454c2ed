package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/example/rota/internal/metrics"
	"github.com/example/rota/internal/ports/primary"
	"github.com/example/rota/internal/ports/secondary"
)

// defaultActivityLimit applies when the caller passes no limit.
const defaultActivityLimit = 50

// ActivityServiceImpl implements the ActivityService interface.
type ActivityServiceImpl struct {
	runner
}

// NewActivityService creates a new ActivityService with injected dependencies.
func NewActivityService(tx secondary.Transactor, logger *slog.Logger, m *metrics.Metrics) *ActivityServiceImpl {
	return &ActivityServiceImpl{runner: newRunner(tx, EngineConfig{}, logger, m)}
}

// ListActivity returns logged events newest first.
func (s *ActivityServiceImpl) ListActivity(ctx context.Context, filters primary.ActivityFilters) ([]*primary.Event, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	var out []*primary.Event
	err := s.read(ctx, "list_activity", func(ctx context.Context, e *engine) error {
		records, err := e.repos.Events.List(ctx, secondary.EventFilters{
			Domain: filters.Domain,
			Action: filters.Action,
			Limit:  limit,
		})
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}

		out = make([]*primary.Event, len(records))
		for i, r := range records {
			var payload map[string]any
			if r.PayloadJSON != "" {
				if err := json.Unmarshal([]byte(r.PayloadJSON), &payload); err != nil {
					return fmt.Errorf("event %d has a malformed payload: %w", r.ID, err)
				}
			}
			out[i] = &primary.Event{
				ID:              r.ID,
				Domain:          r.Domain,
				Action:          r.Action,
				ActorMemberID:   r.ActorMemberID,
				ActorExternalID: r.ActorExternalID,
				Payload:         payload,
				CreatedAt:       r.CreatedAt,
			}
		}
		return nil
	})
	return out, err
}
