package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ports/primary"
)

// NotificationAdapter is a thin adapter that translates CLI operations to
// NotificationService calls. Notifications and dispatch outcomes travel as
// JSON lines so a delivery agent can pipe them.
type NotificationAdapter struct {
	service primary.NotificationService
	out     io.Writer
}

// NewNotificationAdapter creates a new NotificationAdapter with the given service.
func NewNotificationAdapter(service primary.NotificationService, out io.Writer) *NotificationAdapter {
	return &NotificationAdapter{
		service: service,
		out:     out,
	}
}

// dispatchLine is one JSON line of delivery outcome.
type dispatchLine struct {
	primary.Notification
	WeekStart    string     `json:"week_start"`
	Status       string     `json:"status,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}

// Due writes the notifications due at the minute at, one JSON object per line.
func (a *NotificationAdapter) Due(ctx context.Context, at time.Time) ([]primary.Notification, error) {
	notes, err := a.service.DueNotifications(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate notifications: %w", err)
	}

	enc := json.NewEncoder(a.out)
	for _, n := range notes {
		if err := enc.Encode(dispatchLine{Notification: n, WeekStart: week.Format(n.WeekStart)}); err != nil {
			return nil, fmt.Errorf("failed to write notification: %w", err)
		}
	}
	return notes, nil
}

// DecodeDispatches reads JSON lines of delivery outcomes. Blank lines are skipped.
func DecodeDispatches(r io.Reader) ([]primary.Dispatch, error) {
	var dispatches []primary.Dispatch
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var l dispatchLine
		if err := json.Unmarshal([]byte(text), &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		w, err := week.Parse(l.WeekStart)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		d := primary.Dispatch{Notification: l.Notification, Status: l.Status, Reason: l.Reason}
		d.WeekStart = w
		if l.DispatchedAt != nil {
			d.DispatchedAt = *l.DispatchedAt
		}
		dispatches = append(dispatches, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dispatches: %w", err)
	}
	return dispatches, nil
}

// Record stores delivery outcomes.
func (a *NotificationAdapter) Record(ctx context.Context, dispatches []primary.Dispatch) (int, error) {
	if len(dispatches) == 0 {
		fmt.Fprintln(a.out, "No dispatches to record.")
		return 0, nil
	}

	n, err := a.service.RecordDispatches(ctx, dispatches)
	if err != nil {
		return 0, err
	}

	fmt.Fprintf(a.out, "✓ Recorded %d dispatches\n", n)
	return n, nil
}

// Dispatches lists recorded delivery outcomes.
func (a *NotificationAdapter) Dispatches(ctx context.Context, filters primary.DispatchFilters) ([]*primary.Dispatch, error) {
	dispatches, err := a.service.ListDispatches(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatches: %w", err)
	}

	if len(dispatches) == 0 {
		fmt.Fprintln(a.out, "No dispatches recorded.")
		return dispatches, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "WEEK\tMEMBER\tKIND\tSLOT\tSTATUS\tAT\tREASON")
	fmt.Fprintln(w, "----\t------\t----\t----\t------\t--\t------")

	for _, d := range dispatches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			week.Format(d.WeekStart),
			orDash(d.MemberID),
			d.Kind,
			orDash(d.Slot),
			d.Status,
			d.DispatchedAt.Format(time.RFC3339),
			orDash(d.Reason),
		)
	}

	w.Flush()
	return dispatches, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
