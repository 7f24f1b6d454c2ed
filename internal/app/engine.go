package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/metrics"
	"github.com/example/rota/internal/ports/secondary"
)

// Event log domains and actions.
const (
	domainCleaning = "cleaning"
	domainMembers  = "members"

	actionSwapCreated          = "cleaning_swap_created"
	actionSwapUpdated          = "cleaning_swap_updated"
	actionSwapCanceled         = "cleaning_swap_canceled"
	actionDone                 = "cleaning_done"
	actionUndone               = "cleaning_undone"
	actionTakeoverDone         = "cleaning_takeover_done"
	actionCompensationPlanned  = "cleaning_compensation_planned"
	actionAutoCanceledInactive = "cleaning_override_auto_canceled_member_inactive"
	actionMembersSynced        = "members_synced"
)

// engine resolves and mutates rotation state inside one transaction.
// It caches the reconciled rotation and member lookups for its lifetime,
// so a new engine is built per transaction.
type engine struct {
	repos    secondary.Repositories
	now      time.Time
	maxScan  int
	readOnly bool
	metrics  *metrics.Metrics

	loaded  bool
	order   []string
	anchor  time.Time
	members map[string]*secondary.MemberRecord
}

func newEngine(repos secondary.Repositories, now time.Time, maxScan int, m *metrics.Metrics) *engine {
	if maxScan <= 0 {
		maxScan = rotation.DefaultMaxScanWeeks
	}
	return &engine{
		repos:   repos,
		now:     now,
		maxScan: maxScan,
		metrics: m,
		members: make(map[string]*secondary.MemberRecord),
	}
}

// actor is the resolved caller of an operation. Unknown external ids resolve
// to an anonymous actor without a member.
type actor struct {
	externalID string
	member     *secondary.MemberRecord
}

func (a actor) memberID() string {
	if a.member == nil {
		return ""
	}
	return a.member.ID
}

func (a actor) name() string {
	if a.member == nil {
		return ""
	}
	return a.member.DisplayName
}

func (e *engine) resolveActor(ctx context.Context, externalID string) (actor, error) {
	a := actor{externalID: externalID}
	if externalID == "" {
		return a, nil
	}
	m, err := e.repos.Members.GetByExternalID(ctx, externalID)
	if errors.Is(err, rotation.ErrNotFound) {
		return a, nil
	}
	if err != nil {
		return a, fmt.Errorf("failed to resolve actor: %w", err)
	}
	e.members[m.ID] = m
	a.member = m
	return a, nil
}

// member returns the member with id, or nil when id is empty or unknown.
func (e *engine) member(ctx context.Context, id string) (*secondary.MemberRecord, error) {
	if id == "" {
		return nil, nil
	}
	if m, ok := e.members[id]; ok {
		return m, nil
	}
	m, err := e.repos.Members.GetByID(ctx, id)
	if errors.Is(err, rotation.ErrNotFound) {
		e.members[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	e.members[id] = m
	return m, nil
}

func (e *engine) memberState(ctx context.Context, id string) (rotation.MemberState, error) {
	m, err := e.member(ctx, id)
	if err != nil {
		return rotation.MemberState{}, err
	}
	if m == nil {
		return rotation.MemberState{ID: id}, nil
	}
	return rotation.MemberState{ID: id, Exists: true, Active: m.Active}, nil
}

func (e *engine) memberName(ctx context.Context, id, fallback string) string {
	m, err := e.member(ctx, id)
	if err != nil || m == nil {
		return fallback
	}
	return m.DisplayName
}

// rotation returns the reconciled order and anchor, syncing once per engine.
func (e *engine) rotation(ctx context.Context) ([]string, time.Time, error) {
	if e.loaded {
		return e.order, e.anchor, nil
	}
	return e.syncRotation(ctx)
}

// syncRotation reconciles the stored order with the active members and
// persists it when it changed.
func (e *engine) syncRotation(ctx context.Context) ([]string, time.Time, error) {
	rec, err := e.repos.Rotation.Get(ctx)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load rotation: %w", err)
	}

	active, err := e.repos.Members.List(ctx, secondary.MemberFilters{ActiveOnly: true})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to list active members: %w", err)
	}
	activeIDs := make([]string, 0, len(active))
	for _, m := range active {
		activeIDs = append(activeIDs, m.ID)
		e.members[m.ID] = m
	}

	ordered := rotation.Reconcile(rec.OrderedMemberIDs, activeIDs)
	anchor := rotation.ReconcileAnchor(rec.AnchorWeek, ordered, e.now)

	changed := !slices.Equal(ordered, rec.OrderedMemberIDs) || !anchor.Equal(rec.AnchorWeek)
	if changed && !e.readOnly {
		if err := e.repos.Rotation.Save(ctx, &secondary.RotationRecord{
			OrderedMemberIDs: ordered,
			AnchorWeek:       anchor,
			UpdatedAt:        e.now.UTC(),
		}); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to save rotation: %w", err)
		}
	}

	e.order, e.anchor, e.loaded = ordered, anchor, true
	return ordered, anchor, nil
}

func (e *engine) baseline(ctx context.Context, w time.Time) (string, error) {
	ordered, anchor, err := e.rotation(ctx)
	if err != nil {
		return "", err
	}
	return rotation.Baseline(ordered, anchor, w), nil
}

// overrideAt returns the override at w with status, or nil.
func (e *engine) overrideAt(ctx context.Context, w time.Time, status string) (*secondary.OverrideRecord, error) {
	rows, err := e.repos.Overrides.List(ctx, secondary.OverrideFilters{WeekStart: w, Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s override: %w", status, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (e *engine) plannedOverride(ctx context.Context, w time.Time) (*secondary.OverrideRecord, error) {
	return e.overrideAt(ctx, w, rotation.OverrideStatusPlanned)
}

// effective returns the effective assignee of w and the planned override, if any.
func (e *engine) effective(ctx context.Context, w time.Time) (string, *secondary.OverrideRecord, error) {
	baseline, err := e.baseline(ctx, w)
	if err != nil {
		return "", nil, err
	}
	o, err := e.plannedOverride(ctx, w)
	if err != nil {
		return "", nil, err
	}
	return rotation.Apply(baseline, toCore(o)), o, nil
}

// ensureAssignment returns the assignment of w, creating it lazily and
// refreshing its cached assignee while it is pending. A read-only engine
// returns an unsaved row instead of writing.
func (e *engine) ensureAssignment(ctx context.Context, w time.Time) (*secondary.AssignmentRecord, error) {
	effective, _, err := e.effective(ctx, w)
	if err != nil {
		return nil, err
	}

	a, err := e.repos.Assignments.Get(ctx, w)
	if errors.Is(err, rotation.ErrNotFound) {
		a = &secondary.AssignmentRecord{WeekStart: w, AssigneeID: effective, Status: rotation.StatusPending}
		if e.readOnly {
			return a, nil
		}
		if err := e.repos.Assignments.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("failed to create assignment: %w", err)
		}
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	refreshed := rotation.RefreshAssignee(a.Status, a.AssigneeID, effective)
	if refreshed != a.AssigneeID {
		a.AssigneeID = refreshed
		if !e.readOnly {
			if err := e.repos.Assignments.Update(ctx, a); err != nil {
				return nil, fmt.Errorf("failed to refresh assignment: %w", err)
			}
		}
	}
	return a, nil
}

// sweepMissed flips every pending week before current to missed.
func (e *engine) sweepMissed(ctx context.Context, current time.Time) error {
	if e.readOnly {
		return nil
	}
	n, err := e.repos.Assignments.MarkMissedBefore(ctx, current)
	if err != nil {
		return err
	}
	e.metrics.AddMissed(n)
	return nil
}

// findReturnWeek scans forward from start for member's next baseline week
// that no planned override occupies, ignoring the overrides in ignore.
func (e *engine) findReturnWeek(ctx context.Context, member string, start time.Time, ignore map[string]bool) (time.Time, error) {
	probes := 0
	w, err := rotation.FindReturnWeek(start, member, e.maxScan, func(candidate time.Time) (string, bool, error) {
		probes++
		baseline, err := e.baseline(ctx, candidate)
		if err != nil {
			return "", false, err
		}
		planned, err := e.repos.Overrides.List(ctx, secondary.OverrideFilters{
			WeekStart: candidate,
			Status:    rotation.OverrideStatusPlanned,
		})
		if err != nil {
			return "", false, fmt.Errorf("failed to probe week %s: %w", week.Format(candidate), err)
		}
		occupied := false
		for _, o := range planned {
			if !ignore[o.ID] {
				occupied = true
				break
			}
		}
		return baseline, occupied, nil
	})
	e.metrics.ObserveScan(probes)
	return w, err
}

// linkedReturn finds the planned return compensation of a manual swap: by
// shared source event first, then by pattern for swaps whose link was never
// recorded.
func (e *engine) linkedReturn(ctx context.Context, swap *secondary.OverrideRecord) (*secondary.OverrideRecord, error) {
	if swap == nil {
		return nil, nil
	}

	if swap.SourceEventID != 0 {
		rows, err := e.repos.Overrides.List(ctx, secondary.OverrideFilters{
			SourceEventID: swap.SourceEventID,
			Type:          rotation.OverrideCompensation,
			Source:        rotation.SourceManual,
			Status:        rotation.OverrideStatusPlanned,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load linked return: %w", err)
		}
		if len(rows) > 0 {
			return rows[0], nil
		}
	}

	rows, err := e.repos.Overrides.List(ctx, secondary.OverrideFilters{
		Type:         rotation.OverrideCompensation,
		Source:       rotation.SourceManual,
		Status:       rotation.OverrideStatusPlanned,
		MemberFromID: swap.MemberToID,
		MemberToID:   swap.MemberFromID,
		AfterWeek:    swap.WeekStart,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match return override: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// setOverrideStatus moves o to status. When another row already holds that
// (week, status) slot, o's content is merged into it and o is deleted; the
// surviving row is returned.
func (e *engine) setOverrideStatus(ctx context.Context, o *secondary.OverrideRecord, status, actorMemberID string) (*secondary.OverrideRecord, error) {
	others, err := e.repos.Overrides.List(ctx, secondary.OverrideFilters{
		WeekStart: o.WeekStart,
		Status:    status,
		ExcludeID: o.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check %s overrides: %w", status, err)
	}

	if len(others) == 0 {
		o.Status = status
		if err := e.repos.Overrides.Update(ctx, o); err != nil {
			return nil, fmt.Errorf("failed to mark override %s: %w", status, err)
		}
		return o, nil
	}

	target := others[0]
	target.Type = o.Type
	target.Source = o.Source
	target.SourceEventID = o.SourceEventID
	target.MemberFromID = o.MemberFromID
	target.MemberToID = o.MemberToID
	target.CreatedByID = o.CreatedByID
	if status == rotation.OverrideStatusCanceled {
		target.CreatedByID = actorMemberID
	}
	if err := e.repos.Overrides.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to merge override into %s: %w", target.ID, err)
	}
	if err := e.repos.Overrides.Delete(ctx, o.ID); err != nil {
		return nil, fmt.Errorf("failed to delete merged override: %w", err)
	}
	return target, nil
}

func (e *engine) cancelOverride(ctx context.Context, o *secondary.OverrideRecord, a actor) error {
	_, err := e.setOverrideStatus(ctx, o, rotation.OverrideStatusCanceled, a.memberID())
	return err
}

// latestTakeoverEvent returns the newest takeover event for w, or nil.
func (e *engine) latestTakeoverEvent(ctx context.Context, w time.Time) (*secondary.EventRecord, error) {
	events, err := e.repos.Events.List(ctx, secondary.EventFilters{
		Domain: domainCleaning,
		Action: actionTakeoverDone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan takeover events: %w", err)
	}

	want := week.Format(w)
	for _, ev := range events {
		var payload map[string]any
		if err := json.Unmarshal([]byte(ev.PayloadJSON), &payload); err != nil {
			continue
		}
		if s, _ := payload["week_start"].(string); s == want {
			return ev, nil
		}
	}
	return nil, nil
}

// sourceWeek reads the originating week from an event payload:
// source_week_start, else week_start.
func sourceWeek(ev *secondary.EventRecord) time.Time {
	if ev == nil {
		return time.Time{}
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(ev.PayloadJSON), &payload); err != nil {
		return time.Time{}
	}
	for _, key := range []string{"source_week_start", "week_start"} {
		s, _ := payload[key].(string)
		if len(s) >= len(week.Layout) {
			if w, err := week.ParseDate(s[:len(week.Layout)]); err == nil {
				return w
			}
		}
	}
	return time.Time{}
}

func (e *engine) logEvent(ctx context.Context, a actor, domain, action string, payload map[string]any) (*secondary.EventRecord, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", action, err)
	}
	ev := &secondary.EventRecord{
		Domain:          domain,
		Action:          action,
		ActorMemberID:   a.memberID(),
		ActorExternalID: a.externalID,
		PayloadJSON:     string(data),
		CreatedAt:       e.now.UTC(),
	}
	if err := e.repos.Events.Append(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to log %s: %w", action, err)
	}
	return ev, nil
}

func (e *engine) nextOverrideID(ctx context.Context) (string, error) {
	id, err := e.repos.Overrides.GetNextID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to generate override ID: %w", err)
	}
	return id, nil
}

func toCore(o *secondary.OverrideRecord) *rotation.Override {
	if o == nil {
		return nil
	}
	return &rotation.Override{Type: o.Type, MemberFrom: o.MemberFromID, MemberTo: o.MemberToID}
}

// nullableWeek renders a week for an event payload, nil when unset.
func nullableWeek(w time.Time) any {
	if w.IsZero() {
		return nil
	}
	return week.Format(w)
}
