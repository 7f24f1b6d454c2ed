package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/example/rota/internal/core/reminder"
	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ctxutil"
	"github.com/example/rota/internal/metrics"
	"github.com/example/rota/internal/ports/primary"
	"github.com/example/rota/internal/ports/secondary"
)

// maxScheduleWeeks caps a single schedule request at ten years.
const maxScheduleWeeks = 520

// RotaServiceImpl implements the RotaService interface.
type RotaServiceImpl struct {
	runner
}

// NewRotaService creates a new RotaService with injected dependencies.
func NewRotaService(tx secondary.Transactor, cfg EngineConfig, logger *slog.Logger, m *metrics.Metrics) *RotaServiceImpl {
	return &RotaServiceImpl{runner: newRunner(tx, cfg, logger, m)}
}

// GetCurrent resolves the week containing now.
func (s *RotaServiceImpl) GetCurrent(ctx context.Context, now time.Time) (*primary.Current, error) {
	current := week.Start(s.localize(now))

	var out *primary.Current
	err := s.write(ctx, "get_current", func(ctx context.Context, e *engine) error {
		if err := e.sweepMissed(ctx, current); err != nil {
			return err
		}
		a, err := e.ensureAssignment(ctx, current)
		if err != nil {
			return err
		}
		baseline, err := e.baseline(ctx, current)
		if err != nil {
			return err
		}
		effective, o, err := e.effective(ctx, current)
		if err != nil {
			return err
		}

		out = &primary.Current{
			WeekStart:      current,
			BaselineID:     baseline,
			EffectiveID:    effective,
			Status:         a.Status,
			CompletedByID:  a.CompletedByID,
			CompletionMode: a.CompletionMode,
		}
		if o != nil {
			out.OverrideType = o.Type
		}
		return nil
	}, "week_start", week.Format(current))
	return out, err
}

// GetSchedule resolves req.WeeksAhead consecutive weeks.
func (s *RotaServiceImpl) GetSchedule(ctx context.Context, req primary.ScheduleRequest) ([]*primary.ScheduleRow, error) {
	if req.WeeksAhead > maxScheduleWeeks {
		return nil, rotation.Errorf(rotation.ErrValidation, "weeks ahead must be at most %d", maxScheduleWeeks)
	}
	if req.WeeksAhead <= 0 {
		return []*primary.ScheduleRow{}, nil
	}

	current := week.Start(s.localize(req.Now))
	from := current
	if !req.FromWeek.IsZero() {
		if err := rotation.CanUseWeek(req.FromWeek).Error(); err != nil {
			return nil, err
		}
		from = week.Date(req.FromWeek)
	}

	rows := make([]*primary.ScheduleRow, 0, req.WeeksAhead)
	err := s.write(ctx, "get_schedule", func(ctx context.Context, e *engine) error {
		if err := e.sweepMissed(ctx, current); err != nil {
			return err
		}

		sourceWeeks := make(map[int64]time.Time)
		for i := 0; i < req.WeeksAhead; i++ {
			w := week.Add(from, i)
			row, err := e.scheduleRow(ctx, w, sourceWeeks)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	}, "from_week", week.Format(from), "weeks", req.WeeksAhead)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (e *engine) scheduleRow(ctx context.Context, w time.Time, sourceWeeks map[int64]time.Time) (*primary.ScheduleRow, error) {
	a, err := e.ensureAssignment(ctx, w)
	if err != nil {
		return nil, err
	}
	baseline, err := e.baseline(ctx, w)
	if err != nil {
		return nil, err
	}
	o, err := e.plannedOverride(ctx, w)
	if err != nil {
		return nil, err
	}
	if o == nil && rotation.Frozen(a.Status) {
		if o, err = e.overrideAt(ctx, w, rotation.OverrideStatusApplied); err != nil {
			return nil, err
		}
	}

	row := &primary.ScheduleRow{
		WeekStart:      w,
		BaselineID:     baseline,
		EffectiveID:    a.AssigneeID,
		Status:         a.Status,
		CompletedByID:  a.CompletedByID,
		CompletionMode: a.CompletionMode,
		CompletedAt:    a.CompletedAt,
	}
	if o == nil {
		return row, nil
	}

	row.OverrideID = o.ID
	row.OverrideType = o.Type
	row.OverrideSource = o.Source
	if o.SourceEventID != 0 {
		src, ok := sourceWeeks[o.SourceEventID]
		if !ok {
			ev, err := e.repos.Events.GetByID(ctx, o.SourceEventID)
			if err != nil && !errors.Is(err, rotation.ErrNotFound) {
				return nil, fmt.Errorf("failed to load source event: %w", err)
			}
			src = sourceWeek(ev)
			sourceWeeks[o.SourceEventID] = src
		}
		row.SourceWeekStart = src
	}
	return row, nil
}

// GetRotation returns the reconciled rotation without persisting it.
func (s *RotaServiceImpl) GetRotation(ctx context.Context) (*primary.Rotation, error) {
	var out *primary.Rotation
	err := s.read(ctx, "get_rotation", func(ctx context.Context, e *engine) error {
		ordered, anchor, err := e.rotation(ctx)
		if err != nil {
			return err
		}
		out = &primary.Rotation{OrderedMemberIDs: ordered, AnchorWeek: anchor}
		return nil
	})
	return out, err
}

// PlanSwap creates, edits or cancels the manual swap at req.WeekStart.
func (s *RotaServiceImpl) PlanSwap(ctx context.Context, req primary.PlanSwapRequest) (*primary.PlanSwapResponse, error) {
	req.ActorExternalID = actorOrContext(ctx, req.ActorExternalID)
	if err := rotation.CanAct(req.ActorExternalID).Error(); err != nil {
		return nil, err
	}
	if err := rotation.CanUseWeek(req.WeekStart).Error(); err != nil {
		return nil, err
	}

	op := "plan_swap"
	if req.Cancel {
		op = "cancel_swap"
	}

	var resp *primary.PlanSwapResponse
	err := s.write(ctx, op, func(ctx context.Context, e *engine) error {
		a, err := e.resolveActor(ctx, req.ActorExternalID)
		if err != nil {
			return err
		}
		if req.Cancel {
			resp, err = e.cancelSwap(ctx, a, req.WeekStart)
		} else {
			resp, err = e.upsertSwap(ctx, a, req.WeekStart, req.MemberAID, req.MemberBID)
		}
		return err
	}, "week_start", week.Format(req.WeekStart), "member_a", req.MemberAID, "member_b", req.MemberBID)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (e *engine) upsertSwap(ctx context.Context, a actor, w time.Time, memberA, memberB string) (*primary.PlanSwapResponse, error) {
	stateA, err := e.memberState(ctx, memberA)
	if err != nil {
		return nil, err
	}
	stateB, err := e.memberState(ctx, memberB)
	if err != nil {
		return nil, err
	}
	existing, err := e.plannedOverride(ctx, w)
	if err != nil {
		return nil, err
	}

	guardCtx := rotation.PlanSwapContext{Week: w, MemberA: stateA, MemberB: stateB}
	if existing != nil {
		guardCtx.ExistingPlannedType = existing.Type
	}
	if err := rotation.CanPlanSwap(guardCtx).Error(); err != nil {
		return nil, err
	}

	linked, err := e.linkedReturn(ctx, existing)
	if err != nil {
		return nil, err
	}
	ignore := map[string]bool{}
	if existing != nil {
		ignore[existing.ID] = true
	}
	if linked != nil {
		ignore[linked.ID] = true
	}

	returnWeek, err := e.findReturnWeek(ctx, memberB, week.Add(w, 1), ignore)
	if err != nil {
		return nil, err
	}

	action := actionSwapCreated
	if existing != nil {
		action = actionSwapUpdated
	}
	ev, err := e.logEvent(ctx, a, domainCleaning, action, map[string]any{
		"week_start":        week.Format(w),
		"member_a_id":       memberA,
		"member_b_id":       memberB,
		"return_week_start": week.Format(returnWeek),
	})
	if err != nil {
		return nil, err
	}

	swap, err := e.writeOverride(ctx, existing, &secondary.OverrideRecord{
		WeekStart:     w,
		Type:          rotation.OverrideManualSwap,
		Source:        rotation.SourceManual,
		SourceEventID: ev.ID,
		MemberFromID:  memberA,
		MemberToID:    memberB,
		Status:        rotation.OverrideStatusPlanned,
		CreatedByID:   a.memberID(),
	})
	if err != nil {
		return nil, err
	}

	var staleReturn time.Time
	reuse := linked
	if linked != nil && !linked.WeekStart.Equal(returnWeek) {
		staleReturn = linked.WeekStart
		if err := e.cancelOverride(ctx, linked, a); err != nil {
			return nil, err
		}
		reuse = nil
	}
	ret, err := e.writeOverride(ctx, reuse, &secondary.OverrideRecord{
		WeekStart:     returnWeek,
		Type:          rotation.OverrideCompensation,
		Source:        rotation.SourceManual,
		SourceEventID: ev.ID,
		MemberFromID:  memberB,
		MemberToID:    memberA,
		Status:        rotation.OverrideStatusPlanned,
		CreatedByID:   a.memberID(),
	})
	if err != nil {
		return nil, err
	}

	for _, touched := range []time.Time{w, returnWeek, staleReturn} {
		if touched.IsZero() {
			continue
		}
		if _, err := e.ensureAssignment(ctx, touched); err != nil {
			return nil, err
		}
	}

	nameA := e.memberName(ctx, memberA, memberA)
	nameB := e.memberName(ctx, memberB, memberB)
	baseline, err := e.baseline(ctx, w)
	if err != nil {
		return nil, err
	}
	suffix := originalSuffix(w, e.memberName(ctx, baseline, ""))

	var notifications []primary.Notification
	if existing != nil {
		var newcomers []string
		for _, id := range []string{memberA, memberB} {
			if id != existing.MemberFromID && id != existing.MemberToID {
				newcomers = append(newcomers, id)
			}
		}
		for _, former := range []string{existing.MemberFromID, existing.MemberToID} {
			if former == memberA || former == memberB || len(newcomers) == 0 {
				continue
			}
			notifications = append(notifications, e.notify(ctx, former, w, reminder.KindSwapNotice, action,
				swapDisplaced(a, w, e.memberName(ctx, newcomers[0], newcomers[0]))))
		}
	}

	msgA, msgB := swapCreatedToA(a, w, returnWeek, nameB), swapCreatedToB(a, w, returnWeek, nameA)
	if existing != nil {
		msgA, msgB = swapUpdatedToA(a, w, returnWeek, nameB), swapUpdatedToB(a, w, returnWeek, nameA)
	}
	notifications = append(notifications,
		e.notify(ctx, memberA, w, reminder.KindSwapNotice, action, msgA+suffix),
		e.notify(ctx, memberB, w, reminder.KindSwapNotice, action, msgB+suffix),
	)

	return &primary.PlanSwapResponse{
		Swap:          recordToOverride(swap),
		Return:        recordToOverride(ret),
		Notifications: notifications,
	}, nil
}

// writeOverride updates existing in place with want's content, or creates want.
func (e *engine) writeOverride(ctx context.Context, existing, want *secondary.OverrideRecord) (*secondary.OverrideRecord, error) {
	if existing != nil {
		want.ID = existing.ID
		want.CreatedAt = existing.CreatedAt
		if err := e.repos.Overrides.Update(ctx, want); err != nil {
			return nil, err
		}
		return want, nil
	}

	id, err := e.nextOverrideID(ctx)
	if err != nil {
		return nil, err
	}
	want.ID = id
	want.CreatedAt = e.now.UTC()
	if err := e.repos.Overrides.Create(ctx, want); err != nil {
		return nil, err
	}
	return want, nil
}

func (e *engine) cancelSwap(ctx context.Context, a actor, w time.Time) (*primary.PlanSwapResponse, error) {
	existing, err := e.plannedOverride(ctx, w)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.Type != rotation.OverrideManualSwap {
		return nil, rotation.Errorf(rotation.ErrNotFound, "no planned swap for week %s", week.Format(w))
	}

	linked, err := e.linkedReturn(ctx, existing)
	if err != nil {
		return nil, err
	}
	var returnWeek time.Time
	if linked != nil {
		returnWeek = linked.WeekStart
	}

	if _, err := e.logEvent(ctx, a, domainCleaning, actionSwapCanceled, map[string]any{
		"week_start":        week.Format(w),
		"member_a_id":       existing.MemberFromID,
		"member_b_id":       existing.MemberToID,
		"return_week_start": nullableWeek(returnWeek),
	}); err != nil {
		return nil, err
	}

	if err := e.cancelOverride(ctx, existing, a); err != nil {
		return nil, err
	}
	if linked != nil {
		if err := e.cancelOverride(ctx, linked, a); err != nil {
			return nil, err
		}
	}
	for _, touched := range []time.Time{w, returnWeek} {
		if touched.IsZero() {
			continue
		}
		if _, err := e.ensureAssignment(ctx, touched); err != nil {
			return nil, err
		}
	}

	baseline, err := e.baseline(ctx, w)
	if err != nil {
		return nil, err
	}
	msg := swapCanceled(a, w, returnWeek) + originalSuffix(w, e.memberName(ctx, baseline, ""))
	return &primary.PlanSwapResponse{
		Notifications: []primary.Notification{
			e.notify(ctx, existing.MemberFromID, w, reminder.KindSwapNotice, actionSwapCanceled, msg),
			e.notify(ctx, existing.MemberToID, w, reminder.KindSwapNotice, actionSwapCanceled, msg),
		},
	}, nil
}

// MarkDone records own completion of req.WeekStart.
func (s *RotaServiceImpl) MarkDone(ctx context.Context, req primary.MarkDoneRequest) ([]primary.Notification, error) {
	req.ActorExternalID = actorOrContext(ctx, req.ActorExternalID)
	if err := rotation.CanAct(req.ActorExternalID).Error(); err != nil {
		return nil, err
	}
	if err := rotation.CanUseWeek(req.WeekStart).Error(); err != nil {
		return nil, err
	}

	var notifications []primary.Notification
	err := s.write(ctx, "mark_done", func(ctx context.Context, e *engine) error {
		a, err := e.resolveActor(ctx, req.ActorExternalID)
		if err != nil {
			return err
		}
		asg, err := e.ensureAssignment(ctx, req.WeekStart)
		if err != nil {
			return err
		}

		completerID := a.memberID()
		var completer *rotation.MemberState
		if req.CompletedByID != "" {
			st, err := e.memberState(ctx, req.CompletedByID)
			if err != nil {
				return err
			}
			completer = &st
			completerID = req.CompletedByID
		}
		if err := rotation.CanMarkDone(rotation.MarkDoneContext{
			AssigneeID: asg.AssigneeID,
			Completer:  completer,
		}).Error(); err != nil {
			return err
		}

		asg.Status = rotation.StatusDone
		asg.CompletedByID = completerID
		asg.CompletionMode = rotation.CompletionOwn
		asg.CompletedAt = e.now.UTC()
		if err := e.repos.Assignments.Update(ctx, asg); err != nil {
			return fmt.Errorf("failed to mark week done: %w", err)
		}
		if err := e.applyPlanned(ctx, req.WeekStart); err != nil {
			return err
		}

		if _, err := e.logEvent(ctx, a, domainCleaning, actionDone, map[string]any{
			"week_start":             week.Format(req.WeekStart),
			"completed_by_member_id": nullable(completerID),
			"completion_mode":        rotation.CompletionOwn,
			"confirmed_by_member_id": nullable(a.memberID()),
		}); err != nil {
			return err
		}

		if a.member != nil && completerID != "" && completerID != a.memberID() {
			notifications = append(notifications, e.notify(ctx, completerID, req.WeekStart,
				reminder.KindCompletionConfirmation, actionDone, doneConfirmation(a, req.WeekStart)))
		}
		return nil
	}, "week_start", week.Format(req.WeekStart), "completed_by", req.CompletedByID)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// applyPlanned freezes the planned override of w as applied.
func (e *engine) applyPlanned(ctx context.Context, w time.Time) error {
	o, err := e.plannedOverride(ctx, w)
	if err != nil || o == nil {
		return err
	}
	_, err = e.setOverrideStatus(ctx, o, rotation.OverrideStatusApplied, "")
	return err
}

// MarkUndone reverts a done week to pending and unwinds a takeover's
// compensation.
func (s *RotaServiceImpl) MarkUndone(ctx context.Context, req primary.MarkUndoneRequest) ([]primary.Notification, error) {
	req.ActorExternalID = actorOrContext(ctx, req.ActorExternalID)
	if err := rotation.CanAct(req.ActorExternalID).Error(); err != nil {
		return nil, err
	}
	if err := rotation.CanUseWeek(req.WeekStart).Error(); err != nil {
		return nil, err
	}

	var notifications []primary.Notification
	err := s.write(ctx, "mark_undone", func(ctx context.Context, e *engine) error {
		a, err := e.resolveActor(ctx, req.ActorExternalID)
		if err != nil {
			return err
		}
		notifications, err = e.undo(ctx, a, req.WeekStart)
		return err
	}, "week_start", week.Format(req.WeekStart))
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (e *engine) undo(ctx context.Context, a actor, w time.Time) ([]primary.Notification, error) {
	asg, err := e.ensureAssignment(ctx, w)
	if err != nil {
		return nil, err
	}
	if asg.Status != rotation.StatusDone {
		return nil, nil
	}
	previousCompleter := asg.CompletedByID
	previousMode := asg.CompletionMode

	planned, err := e.plannedOverride(ctx, w)
	if err != nil {
		return nil, err
	}
	if planned == nil {
		applied, err := e.overrideAt(ctx, w, rotation.OverrideStatusApplied)
		if err != nil {
			return nil, err
		}
		if applied != nil {
			if _, err := e.setOverrideStatus(ctx, applied, rotation.OverrideStatusPlanned, ""); err != nil {
				return nil, err
			}
		}
	}

	var canceled []*secondary.OverrideRecord
	if previousMode == rotation.CompletionTakeover {
		ev, err := e.latestTakeoverEvent(ctx, w)
		if err != nil {
			return nil, err
		}
		if ev != nil {
			comps, err := e.repos.Overrides.List(ctx, secondary.OverrideFilters{
				SourceEventID: ev.ID,
				Type:          rotation.OverrideCompensation,
				Status:        rotation.OverrideStatusPlanned,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to load takeover compensations: %w", err)
			}
			for _, c := range comps {
				snapshot := *c
				if err := e.cancelOverride(ctx, c, a); err != nil {
					return nil, err
				}
				canceled = append(canceled, &snapshot)
			}
		}
	}

	effective, _, err := e.effective(ctx, w)
	if err != nil {
		return nil, err
	}
	asg.Status = rotation.StatusPending
	asg.AssigneeID = effective
	asg.CompletedByID = ""
	asg.CompletionMode = ""
	asg.CompletedAt = time.Time{}
	if err := e.repos.Assignments.Update(ctx, asg); err != nil {
		return nil, fmt.Errorf("failed to reopen week: %w", err)
	}
	for _, c := range canceled {
		if _, err := e.ensureAssignment(ctx, c.WeekStart); err != nil {
			return nil, err
		}
	}

	if _, err := e.logEvent(ctx, a, domainCleaning, actionUndone, map[string]any{
		"week_start":               week.Format(w),
		"previous_completion_mode": nullable(previousMode),
	}); err != nil {
		return nil, err
	}

	var notifications []primary.Notification
	if effective != "" {
		notifications = append(notifications,
			e.notify(ctx, effective, w, reminder.KindUndoNotice, actionUndone, undoneToAssignee(a, w)))
	}
	if previousCompleter != "" && effective != "" && previousCompleter != effective {
		notifications = append(notifications,
			e.notify(ctx, previousCompleter, w, reminder.KindUndoNotice, actionUndone, undoneToCompleter(a, w)))
	}
	for _, c := range canceled {
		notifications = append(notifications,
			e.notify(ctx, c.MemberFromID, c.WeekStart, reminder.KindUndoNotice, actionUndone,
				undoneCompensationToCleaner(a, w, c.WeekStart)),
			e.notify(ctx, c.MemberToID, c.WeekStart, reminder.KindUndoNotice, actionUndone,
				undoneCompensationToOriginal(a, w, c.WeekStart)),
		)
	}
	return notifications, nil
}

// MarkTakeoverDone records that req.CleanerID cleaned instead of the
// original assignee and plans the compensation at the cleaner's next
// free regular week.
func (s *RotaServiceImpl) MarkTakeoverDone(ctx context.Context, req primary.MarkTakeoverRequest) (*primary.MarkTakeoverResponse, error) {
	req.ActorExternalID = actorOrContext(ctx, req.ActorExternalID)
	if err := rotation.CanAct(req.ActorExternalID).Error(); err != nil {
		return nil, err
	}

	var resp *primary.MarkTakeoverResponse
	err := s.write(ctx, "mark_takeover_done", func(ctx context.Context, e *engine) error {
		original, err := e.memberState(ctx, req.OriginalAssigneeID)
		if err != nil {
			return err
		}
		cleaner, err := e.memberState(ctx, req.CleanerID)
		if err != nil {
			return err
		}
		if err := rotation.CanMarkTakeover(rotation.TakeoverContext{
			Week:             req.WeekStart,
			OriginalAssignee: original,
			Cleaner:          cleaner,
		}).Error(); err != nil {
			return err
		}

		a, err := e.resolveActor(ctx, req.ActorExternalID)
		if err != nil {
			return err
		}
		resp, err = e.takeover(ctx, a, req.WeekStart, req.OriginalAssigneeID, req.CleanerID)
		return err
	}, "week_start", week.Format(req.WeekStart), "original", req.OriginalAssigneeID, "cleaner", req.CleanerID)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (e *engine) takeover(ctx context.Context, a actor, w time.Time, originalID, cleanerID string) (*primary.MarkTakeoverResponse, error) {
	asg, err := e.ensureAssignment(ctx, w)
	if err != nil {
		return nil, err
	}
	asg.Status = rotation.StatusDone
	asg.CompletedByID = cleanerID
	asg.CompletionMode = rotation.CompletionTakeover
	asg.CompletedAt = e.now.UTC()
	if err := e.repos.Assignments.Update(ctx, asg); err != nil {
		return nil, fmt.Errorf("failed to mark takeover: %w", err)
	}
	if err := e.applyPlanned(ctx, w); err != nil {
		return nil, err
	}

	ev, err := e.logEvent(ctx, a, domainCleaning, actionTakeoverDone, map[string]any{
		"week_start":                  week.Format(w),
		"original_assignee_member_id": originalID,
		"cleaner_member_id":           cleanerID,
		"completion_mode":             rotation.CompletionTakeover,
	})
	if err != nil {
		return nil, err
	}

	compWeek, err := e.findReturnWeek(ctx, cleanerID, week.Add(w, 1), nil)
	if err != nil {
		return nil, err
	}
	comp, err := e.writeOverride(ctx, nil, &secondary.OverrideRecord{
		WeekStart:     compWeek,
		Type:          rotation.OverrideCompensation,
		Source:        rotation.SourceTakeoverCompletion,
		SourceEventID: ev.ID,
		MemberFromID:  cleanerID,
		MemberToID:    originalID,
		Status:        rotation.OverrideStatusPlanned,
		CreatedByID:   a.memberID(),
	})
	if err != nil {
		return nil, err
	}

	if _, err := e.logEvent(ctx, a, domainCleaning, actionCompensationPlanned, map[string]any{
		"source_week_start":       week.Format(w),
		"compensation_week_start": week.Format(compWeek),
		"member_from_id":          cleanerID,
		"member_to_id":            originalID,
		"override_type":           rotation.OverrideCompensation,
	}); err != nil {
		return nil, err
	}
	if _, err := e.ensureAssignment(ctx, compWeek); err != nil {
		return nil, err
	}

	cleanerName := e.memberName(ctx, cleanerID, cleanerID)
	originalName := e.memberName(ctx, originalID, originalID)
	return &primary.MarkTakeoverResponse{
		Compensation: recordToOverride(comp),
		Notifications: []primary.Notification{
			e.notify(ctx, cleanerID, compWeek, reminder.KindCompensationNotice, actionTakeoverDone,
				compensationToCleaner(a, w, compWeek, originalName)),
			e.notify(ctx, originalID, compWeek, reminder.KindCompensationNotice, actionTakeoverDone,
				compensationToOriginal(a, w, compWeek, cleanerName)),
		},
	}, nil
}

// CancelOverridesForInactiveMembers cancels every planned override naming
// one of memberIDs and re-resolves the affected weeks.
func (s *RotaServiceImpl) CancelOverridesForInactiveMembers(ctx context.Context, memberIDs []string, actorExternalID string) ([]primary.Notification, error) {
	actorExternalID = actorOrContext(ctx, actorExternalID)

	var notifications []primary.Notification
	err := s.write(ctx, "cancel_inactive_overrides", func(ctx context.Context, e *engine) error {
		a, err := e.resolveActor(ctx, actorExternalID)
		if err != nil {
			return err
		}
		notifications, err = e.cancelForInactive(ctx, a, memberIDs)
		return err
	}, "member_ids", memberIDs)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (e *engine) cancelForInactive(ctx context.Context, a actor, memberIDs []string) ([]primary.Notification, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	inactive := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		inactive[id] = true
	}

	planned, err := e.repos.Overrides.List(ctx, secondary.OverrideFilters{Status: rotation.OverrideStatusPlanned})
	if err != nil {
		return nil, fmt.Errorf("failed to list planned overrides: %w", err)
	}

	var notifications []primary.Notification
	var weeks []time.Time
	for _, o := range planned {
		hit := toCore(o).Involves(inactive)
		if len(hit) == 0 {
			continue
		}
		snapshot := *o
		if err := e.cancelOverride(ctx, o, a); err != nil {
			return nil, err
		}
		if !slices.ContainsFunc(weeks, snapshot.WeekStart.Equal) {
			weeks = append(weeks, snapshot.WeekStart)
		}

		if _, err := e.logEvent(ctx, a, domainCleaning, actionAutoCanceledInactive, map[string]any{
			"week_start":          week.Format(snapshot.WeekStart),
			"override_type":       snapshot.Type,
			"member_from_id":      snapshot.MemberFromID,
			"member_to_id":        snapshot.MemberToID,
			"inactive_member_ids": hit,
		}); err != nil {
			return nil, err
		}

		var names []string
		for _, id := range hit {
			if m, err := e.member(ctx, id); err == nil && m != nil {
				names = append(names, m.DisplayName)
			}
		}
		msg := overrideCanceledInactive(snapshot.Type, snapshot.WeekStart, names)
		for _, party := range []string{snapshot.MemberFromID, snapshot.MemberToID} {
			if inactive[party] {
				continue
			}
			m, err := e.member(ctx, party)
			if err != nil {
				return nil, err
			}
			if m == nil || !m.Active {
				continue
			}
			notifications = append(notifications, e.notify(ctx, party, snapshot.WeekStart,
				reminder.KindOverrideCanceledNotice, actionAutoCanceledInactive, msg))
		}
	}

	slices.SortFunc(weeks, func(x, y time.Time) int { return x.Compare(y) })
	for _, w := range weeks {
		if _, err := e.ensureAssignment(ctx, w); err != nil {
			return nil, err
		}
	}
	return notifications, nil
}

func actorOrContext(ctx context.Context, actorExternalID string) string {
	if actorExternalID != "" {
		return actorExternalID
	}
	return ctxutil.ActorFromContext(ctx)
}

// nullable maps "" to a JSON null in event payloads.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func recordToOverride(r *secondary.OverrideRecord) *primary.Override {
	if r == nil {
		return nil
	}
	return &primary.Override{
		ID:            r.ID,
		WeekStart:     r.WeekStart,
		Type:          r.Type,
		Source:        r.Source,
		SourceEventID: r.SourceEventID,
		MemberFromID:  r.MemberFromID,
		MemberToID:    r.MemberToID,
		Status:        r.Status,
	}
}
