package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/rota/internal/core/reminder"
	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/metrics"
	"github.com/example/rota/internal/ports/primary"
	"github.com/example/rota/internal/ports/secondary"
)

var dispatchStatuses = map[string]bool{
	primary.DispatchSent:           true,
	primary.DispatchFailed:         true,
	primary.DispatchSkipped:        true,
	primary.DispatchSuppressed:     true,
	primary.DispatchTestRedirected: true,
}

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	runner
}

// NewNotificationService creates a new NotificationService with injected dependencies.
func NewNotificationService(tx secondary.Transactor, cfg EngineConfig, logger *slog.Logger, m *metrics.Metrics) *NotificationServiceImpl {
	return &NotificationServiceImpl{runner: newRunner(tx, cfg, logger, m)}
}

// DueNotifications returns the reminders due at the minute at, evaluated in
// the configured location. Missing assignment rows count as pending.
func (s *NotificationServiceImpl) DueNotifications(ctx context.Context, at time.Time) ([]primary.Notification, error) {
	local := s.localize(at)
	slot, ok := reminder.DueSlot(local)
	if !ok {
		return []primary.Notification{}, nil
	}
	current := week.Start(local)

	out := []primary.Notification{}
	err := s.read(ctx, "due_notifications", func(ctx context.Context, e *engine) error {
		asg, err := e.ensureAssignment(ctx, current)
		if err != nil {
			return err
		}
		if slot.RequiresPending && asg.Status != rotation.StatusPending {
			return nil
		}

		previousDone := true
		if slot == reminder.SlotMonday11 {
			prev, err := e.ensureAssignment(ctx, week.Add(current, -1))
			if err != nil {
				return err
			}
			previousDone = prev.Status == rotation.StatusDone
		}

		n := e.notify(ctx, asg.AssigneeID, current, slot.Kind, reminder.SourceAction, reminder.Message(slot, previousDone))
		n.Slot = slot.Name
		out = append(out, n)
		return nil
	}, "slot", slot.Name, "week_start", week.Format(current))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordDispatches stores the delivery outcomes reported by the host.
func (s *NotificationServiceImpl) RecordDispatches(ctx context.Context, dispatches []primary.Dispatch) (int, error) {
	for i, d := range dispatches {
		if err := rotation.CanUseWeek(d.WeekStart).Error(); err != nil {
			return 0, fmt.Errorf("dispatch %d: %w", i, err)
		}
		if !dispatchStatuses[d.Status] {
			return 0, rotation.Errorf(rotation.ErrValidation, "dispatch %d: unknown status %q", i, d.Status)
		}
	}

	err := s.write(ctx, "record_dispatches", func(ctx context.Context, e *engine) error {
		for _, d := range dispatches {
			dispatchedAt := d.DispatchedAt
			if dispatchedAt.IsZero() {
				dispatchedAt = e.now.UTC()
			}
			kind := d.Kind
			if kind == "" {
				kind = reminder.KindWeeklyAssignment
			}
			record := &secondary.DispatchRecord{
				ID:            uuid.Must(uuid.NewV7()).String(),
				WeekStart:     week.Date(d.WeekStart),
				MemberID:      d.MemberID,
				NotifyChannel: d.NotifyChannel,
				Kind:          kind,
				Slot:          d.Slot,
				SourceAction:  d.SourceAction,
				Title:         d.Title,
				Message:       d.Message,
				Status:        d.Status,
				Reason:        d.Reason,
				DispatchedAt:  dispatchedAt,
			}
			if err := e.repos.Dispatches.Create(ctx, record); err != nil {
				return err
			}
		}
		return nil
	}, "count", len(dispatches))
	if err != nil {
		return 0, err
	}

	for _, d := range dispatches {
		s.metrics.ObserveDispatch(d.Status)
	}
	return len(dispatches), nil
}

// ListDispatches returns recorded outcomes newest first.
func (s *NotificationServiceImpl) ListDispatches(ctx context.Context, filters primary.DispatchFilters) ([]*primary.Dispatch, error) {
	var out []*primary.Dispatch
	err := s.read(ctx, "list_dispatches", func(ctx context.Context, e *engine) error {
		records, err := e.repos.Dispatches.List(ctx, secondary.DispatchFilters{
			WeekStart: filters.WeekStart,
			MemberID:  filters.MemberID,
			Status:    filters.Status,
			Limit:     filters.Limit,
		})
		if err != nil {
			return fmt.Errorf("failed to list dispatches: %w", err)
		}
		out = make([]*primary.Dispatch, len(records))
		for i, r := range records {
			out[i] = &primary.Dispatch{
				ID: r.ID,
				Notification: primary.Notification{
					MemberID:      r.MemberID,
					NotifyChannel: r.NotifyChannel,
					Title:         r.Title,
					Message:       r.Message,
					Category:      reminder.Category,
					WeekStart:     r.WeekStart,
					Kind:          r.Kind,
					Slot:          r.Slot,
					SourceAction:  r.SourceAction,
				},
				Status:       r.Status,
				Reason:       r.Reason,
				DispatchedAt: r.DispatchedAt,
			}
		}
		return nil
	})
	return out, err
}
