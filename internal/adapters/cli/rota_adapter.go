package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ports/primary"
)

// RotaAdapter is a thin adapter that translates CLI operations to RotaService calls.
// Member names are looked up through MemberService for display only.
type RotaAdapter struct {
	service primary.RotaService
	members primary.MemberService
	out     io.Writer
}

// NewRotaAdapter creates a new RotaAdapter with the given services.
func NewRotaAdapter(service primary.RotaService, members primary.MemberService, out io.Writer) *RotaAdapter {
	return &RotaAdapter{
		service: service,
		members: members,
		out:     out,
	}
}

// Current displays who cleans this week.
func (a *RotaAdapter) Current(ctx context.Context) (*primary.Current, error) {
	cur, err := a.service.GetCurrent(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to get current week: %w", err)
	}
	names := a.names(ctx)

	fmt.Fprintf(a.out, "\nWeek:      %s\n", week.Format(cur.WeekStart))
	fmt.Fprintf(a.out, "Cleaner:   %s\n", names.label(cur.EffectiveID))
	if cur.BaselineID != cur.EffectiveID {
		fmt.Fprintf(a.out, "Baseline:  %s (%s)\n", names.label(cur.BaselineID), cur.OverrideType)
	}
	fmt.Fprintf(a.out, "Status:    %s\n", statusText(cur.Status))
	if cur.CompletedByID != "" {
		fmt.Fprintf(a.out, "Done by:   %s (%s)\n", names.label(cur.CompletedByID), cur.CompletionMode)
	}
	fmt.Fprintln(a.out)

	return cur, nil
}

// Schedule displays weeks consecutive weeks starting at from (zero for the current week).
func (a *RotaAdapter) Schedule(ctx context.Context, weeks int, from time.Time) ([]*primary.ScheduleRow, error) {
	rows, err := a.service.GetSchedule(ctx, primary.ScheduleRequest{WeeksAhead: weeks, FromWeek: from})
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No weeks to show.")
		return rows, nil
	}
	names := a.names(ctx)

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "WEEK\tCLEANER\tBASELINE\tSTATUS\tOVERRIDE")
	fmt.Fprintln(w, "----\t-------\t--------\t------\t--------")

	for _, row := range rows {
		override := "-"
		if row.OverrideID != "" {
			override = fmt.Sprintf("%s %s", row.OverrideID, row.OverrideType)
			if !row.SourceWeekStart.IsZero() {
				override += " (from " + week.Format(row.SourceWeekStart) + ")"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			week.Format(row.WeekStart),
			names.label(row.EffectiveID),
			names.label(row.BaselineID),
			statusText(row.Status),
			override,
		)
	}

	w.Flush()
	return rows, nil
}

// Rotation displays the rotation order and its anchor.
func (a *RotaAdapter) Rotation(ctx context.Context) (*primary.Rotation, error) {
	rot, err := a.service.GetRotation(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation: %w", err)
	}

	if len(rot.OrderedMemberIDs) == 0 {
		fmt.Fprintln(a.out, "Rotation is empty.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Add flatmates first:")
		fmt.Fprintln(a.out, "  rota member sync --file members.yaml")
		return rot, nil
	}
	names := a.names(ctx)

	fmt.Fprintf(a.out, "Anchor week: %s\n", week.Format(rot.AnchorWeek))
	for i, id := range rot.OrderedMemberIDs {
		fmt.Fprintf(a.out, "  %d. %s\n", i+1, names.label(id))
	}
	return rot, nil
}

// PlanSwap plans, edits or cancels a swap and prints the messages it produced.
func (a *RotaAdapter) PlanSwap(ctx context.Context, req primary.PlanSwapRequest) (*primary.PlanSwapResponse, error) {
	resp, err := a.service.PlanSwap(ctx, req)
	if err != nil {
		return nil, err
	}
	names := a.names(ctx)

	switch {
	case req.Cancel:
		fmt.Fprintf(a.out, "✓ Swap for week %s canceled\n", week.Format(req.WeekStart))
	case resp.Swap == nil:
		fmt.Fprintf(a.out, "Nothing to swap: neither member cleans week %s\n", week.Format(req.WeekStart))
	default:
		fmt.Fprintf(a.out, "✓ Swap %s: %s cleans week %s\n", resp.Swap.ID, names.label(resp.Swap.MemberToID), week.Format(resp.Swap.WeekStart))
		if resp.Return != nil {
			fmt.Fprintf(a.out, "  Return %s: %s cleans week %s\n", resp.Return.ID, names.label(resp.Return.MemberToID), week.Format(resp.Return.WeekStart))
		}
	}

	a.printNotifications(names, resp.Notifications)
	return resp, nil
}

// MarkDone records own completion.
func (a *RotaAdapter) MarkDone(ctx context.Context, req primary.MarkDoneRequest) ([]primary.Notification, error) {
	notes, err := a.service.MarkDone(ctx, req)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "✓ Week %s marked done\n", week.Format(req.WeekStart))
	a.printNotifications(a.names(ctx), notes)
	return notes, nil
}

// MarkUndone reverts a completion.
func (a *RotaAdapter) MarkUndone(ctx context.Context, req primary.MarkUndoneRequest) ([]primary.Notification, error) {
	notes, err := a.service.MarkUndone(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(notes) == 0 {
		fmt.Fprintf(a.out, "Week %s was not done, nothing to undo\n", week.Format(req.WeekStart))
		return notes, nil
	}
	fmt.Fprintf(a.out, "✓ Week %s is pending again\n", week.Format(req.WeekStart))
	a.printNotifications(a.names(ctx), notes)
	return notes, nil
}

// MarkTakeover records a takeover and shows the planned compensation.
func (a *RotaAdapter) MarkTakeover(ctx context.Context, req primary.MarkTakeoverRequest) (*primary.MarkTakeoverResponse, error) {
	resp, err := a.service.MarkTakeoverDone(ctx, req)
	if err != nil {
		return nil, err
	}
	names := a.names(ctx)

	fmt.Fprintf(a.out, "✓ %s took over week %s from %s\n",
		names.label(req.CleanerID), week.Format(req.WeekStart), names.label(req.OriginalAssigneeID))
	if resp.Compensation != nil {
		fmt.Fprintf(a.out, "  Compensation %s: %s cleans week %s\n",
			resp.Compensation.ID, names.label(resp.Compensation.MemberToID), week.Format(resp.Compensation.WeekStart))
	}
	a.printNotifications(names, resp.Notifications)
	return resp, nil
}

func (a *RotaAdapter) printNotifications(names memberNames, notes []primary.Notification) {
	if len(notes) == 0 {
		return
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Notifications:")
	for _, n := range notes {
		fmt.Fprintf(a.out, "  → %s: %s\n", names.label(n.MemberID), n.Message)
	}
}

// names is best effort; a failed lookup falls back to bare IDs.
func (a *RotaAdapter) names(ctx context.Context) memberNames {
	names := memberNames{}
	if a.members == nil {
		return names
	}
	members, err := a.members.ListMembers(ctx)
	if err != nil {
		return names
	}
	for _, m := range members {
		names[m.ID] = m.DisplayName
	}
	return names
}

type memberNames map[string]string

func (n memberNames) label(id string) string {
	if id == "" {
		return "-"
	}
	if name, ok := n[id]; ok {
		return fmt.Sprintf("%s (%s)", name, id)
	}
	return id
}

func statusText(status string) string {
	switch status {
	case rotation.StatusDone:
		return color.New(color.FgGreen).Sprint(status)
	case rotation.StatusMissed:
		return color.New(color.FgRed).Sprint(status)
	case rotation.StatusPending:
		return color.New(color.FgYellow).Sprint(status)
	}
	return status
}
