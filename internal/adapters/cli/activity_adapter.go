package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/example/rota/internal/ports/primary"
)

// ActivityAdapter translates CLI operations to ActivityService calls.
type ActivityAdapter struct {
	service primary.ActivityService
	out     io.Writer
}

// NewActivityAdapter creates a new ActivityAdapter with the given service.
func NewActivityAdapter(service primary.ActivityService, out io.Writer) *ActivityAdapter {
	return &ActivityAdapter{
		service: service,
		out:     out,
	}
}

// List prints logged events newest first.
func (a *ActivityAdapter) List(ctx context.Context, filters primary.ActivityFilters) ([]*primary.Event, error) {
	events, err := a.service.ListActivity(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	if len(events) == 0 {
		fmt.Fprintln(a.out, "No activity yet.")
		return events, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tAT\tACTION\tACTOR\tPAYLOAD")
	fmt.Fprintln(w, "--\t--\t------\t-----\t-------")

	for _, e := range events {
		actor := e.ActorMemberID
		if actor == "" {
			actor = orDash(e.ActorExternalID)
		}
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			payload = []byte("{}")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.CreatedAt.Format(time.RFC3339),
			e.Action,
			actor,
			payload,
		)
	}

	w.Flush()
	return events, nil
}
