package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/ports/primary"
	"github.com/example/rota/internal/ports/secondary"
)

func TestGetSchedule_Baseline(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	rows, err := h.rota.GetSchedule(ctx, primary.ScheduleRequest{WeeksAhead: 4})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	want := []string{alice, bob, carol, alice}
	for i, row := range rows {
		assert.Equal(t, week1.AddDate(0, 0, 7*i), row.WeekStart)
		assert.Equal(t, want[i], row.BaselineID, "week %d", i+1)
		assert.Equal(t, want[i], row.EffectiveID, "week %d", i+1)
		assert.Equal(t, rotation.StatusPending, row.Status)
	}

	rot, err := h.rota.GetRotation(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{alice, bob, carol}, rot.OrderedMemberIDs)
	assert.Equal(t, week1, rot.AnchorWeek)
}

func TestGetSchedule_WeeksBeforeAnchor(t *testing.T) {
	h := newHarness(t, EngineConfig{})

	rows, err := h.rota.GetSchedule(context.Background(), primary.ScheduleRequest{
		WeeksAhead: 3,
		FromWeek:   week1.AddDate(0, 0, -21),
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// k = -3, -2, -1
	assert.Equal(t, alice, rows[0].BaselineID)
	assert.Equal(t, bob, rows[1].BaselineID)
	assert.Equal(t, carol, rows[2].BaselineID)
}

func TestGetSchedule_Validation(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	rows, err := h.rota.GetSchedule(ctx, primary.ScheduleRequest{WeeksAhead: 0})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = h.rota.GetSchedule(ctx, primary.ScheduleRequest{WeeksAhead: 600})
	assert.ErrorIs(t, err, rotation.ErrValidation)

	_, err = h.rota.GetSchedule(ctx, primary.ScheduleRequest{WeeksAhead: 2, FromWeek: week1.AddDate(0, 0, 1)})
	assert.ErrorIs(t, err, rotation.ErrValidation)
}

func TestGetCurrent_SweepsMissedWeeks(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	current, err := h.rota.GetCurrent(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, week1, current.WeekStart)
	assert.Equal(t, alice, current.EffectiveID)
	assert.Equal(t, rotation.StatusPending, current.Status)

	h.clock.Set(week2.Add(10 * time.Hour))

	current, err = h.rota.GetCurrent(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, week2, current.WeekStart)
	assert.Equal(t, bob, current.EffectiveID)

	assert.Equal(t, rotation.StatusMissed, h.row(t, week1).Status)
	assert.Equal(t, 1.0, h.counter(t, "rota_missed_weeks_total"))
}

func TestPlanSwap_ScenarioOwnCompletion(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	resp, err := h.rota.PlanSwap(ctx, primary.PlanSwapRequest{
		WeekStart:       week2,
		MemberAID:       bob,
		MemberBID:       carol,
		ActorExternalID: "ha-bob",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Swap)
	require.NotNil(t, resp.Return)

	assert.Equal(t, rotation.OverrideManualSwap, resp.Swap.Type)
	assert.Equal(t, week3, resp.Return.WeekStart)
	assert.Equal(t, carol, resp.Return.MemberFromID)
	assert.Equal(t, bob, resp.Return.MemberToID)
	assert.Equal(t, resp.Swap.SourceEventID, resp.Return.SourceEventID)
	assert.Equal(t, []string{bob, carol}, recipients(resp.Notifications))
	assert.Contains(t, resp.Notifications[0].Message, "Bob swapped shifts between week 2026-10-12 and week 2026-10-19 with Carol.")
	assert.Contains(t, resp.Notifications[0].Message, "Original assignee for 2026-10-12: Bob.")
	assert.Equal(t, "notify.mobile_app_carol", resp.Notifications[1].NotifyChannel)

	assert.Equal(t, carol, h.effective(t, week2))
	assert.Equal(t, bob, h.effective(t, week3))

	// Alice is not the assignee of week 2.
	_, err = h.rota.MarkDone(ctx, primary.MarkDoneRequest{
		WeekStart:       week2,
		ActorExternalID: "ha-alice",
		CompletedByID:   alice,
	})
	assert.ErrorIs(t, err, rotation.ErrUseTakeover)
	assert.ErrorIs(t, err, rotation.ErrValidation)

	notes, err := h.rota.MarkDone(ctx, primary.MarkDoneRequest{WeekStart: week2, ActorExternalID: "ha-carol"})
	require.NoError(t, err)
	assert.Empty(t, notes)

	row := h.row(t, week2)
	assert.Equal(t, rotation.StatusDone, row.Status)
	assert.Equal(t, rotation.CompletionOwn, row.CompletionMode)
	assert.Equal(t, carol, row.CompletedByID)
	assert.Equal(t, rotation.OverrideManualSwap, row.OverrideType)

	applied := h.overrides(t, secondary.OverrideFilters{WeekStart: week2, Status: rotation.OverrideStatusApplied})
	assert.Len(t, applied, 1)
}

func TestPlanSwap_CancelRestoresBaseline(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	_, err := h.rota.PlanSwap(ctx, primary.PlanSwapRequest{
		WeekStart: week2, MemberAID: bob, MemberBID: carol, ActorExternalID: "ha-bob",
	})
	require.NoError(t, err)

	resp, err := h.rota.PlanSwap(ctx, primary.PlanSwapRequest{
		WeekStart: week2, ActorExternalID: "ha-carol", Cancel: true,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Swap)
	assert.Equal(t, []string{bob, carol}, recipients(resp.Notifications))
	assert.Contains(t, resp.Notifications[0].Message, "Carol canceled the shift swap between week 2026-10-12 and week 2026-10-19.")

	assert.Equal(t, bob, h.effective(t, week2))
	assert.Equal(t, carol, h.effective(t, week3))
	assert.Empty(t, h.planned(t, week2))
	assert.Empty(t, h.planned(t, week3))

	canceled := h.overrides(t, secondary.OverrideFilters{Status: rotation.OverrideStatusCanceled})
	assert.Len(t, canceled, 2)
}

func TestPlanSwap_CancelTwiceMergesCanceledRows(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := h.rota.PlanSwap(ctx, primary.PlanSwapRequest{
			WeekStart: week2, MemberAID: bob, MemberBID: carol, ActorExternalID: "ha-bob",
		})
		require.NoError(t, err)
		_, err = h.rota.PlanSwap(ctx, primary.PlanSwapRequest{
			WeekStart: week2, ActorExternalID: "ha-bob", Cancel: true,
		})
		require.NoError(t, err)
	}

	for _, w := range []time.Time{week2, week3} {
		canceled := h.overrides(t, secondary.OverrideFilters{WeekStart: w, Status: rotation.OverrideStatusCanceled})
		assert.Len(t, canceled, 1, "week %s", w.Format("2006-01-02"))
	}
	assert.Len(t, h.overrides(t, secondary.OverrideFilters{}), 2)
}

func TestPlanSwap_CancelWithoutSwap(t *testing.T) {
	h := newHarness(t, EngineConfig{})

	_, err := h.rota.PlanSwap(context.Background(), primary.PlanSwapRequest{
		WeekStart: week2, ActorExternalID: "ha-bob", Cancel: true,
	})
	assert.ErrorIs(t, err, rotation.ErrNotFound)
}

func TestPlanSwap_EditNotifiesDisplacedPartner(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	_, err := h.rota.PlanSwap(ctx, primary.PlanSwapRequest{
		WeekStart: week2, MemberAID: bob, MemberBID: carol, ActorExternalID: "ha-bob",
	})
	require.NoError(t, err)

	resp, err := h.rota.PlanSwap(ctx, primary.PlanSwapRequest{
		WeekStart: week2, MemberAID: bob, MemberBID: alice, ActorExternalID: "ha-bob",
	})
	require.NoError(t, err)
	assert.Equal(t, week4, resp.Return.WeekStart)
	assert.Equal(t, []string{carol, bob, alice}, recipients(resp.Notifications))
	assert.Contains(t, resp.Notifications[0].Message, "Alice is now swapped in instead of you.")
	assert.Contains(t, resp.Notifications[1].Message, "updated the shift swap")

	assert.Equal(t, alice, h.effective(t, week2))
	assert.Equal(t, carol, h.effective(t, week3))
	assert.Equal(t, bob, h.effective(t, week4))
	assert.Empty(t, h.planned(t, week3))

	swaps := h.overrides(t, secondary.OverrideFilters{Type: rotation.OverrideManualSwap})
	require.Len(t, swaps, 1, "the swap row is edited in place")
	assert.Equal(t, resp.Swap.ID, swaps[0].ID)
}

func TestPlanSwap_Validation(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	tests := []struct {
		name    string
		req     primary.PlanSwapRequest
		wantErr error
	}{
		{
			name:    "missing actor",
			req:     primary.PlanSwapRequest{WeekStart: week2, MemberAID: bob, MemberBID: carol},
			wantErr: rotation.ErrValidation,
		},
		{
			name:    "not a monday",
			req:     primary.PlanSwapRequest{WeekStart: week2.AddDate(0, 0, 2), MemberAID: bob, MemberBID: carol, ActorExternalID: "ha-bob"},
			wantErr: rotation.ErrValidation,
		},
		{
			name:    "same member",
			req:     primary.PlanSwapRequest{WeekStart: week2, MemberAID: bob, MemberBID: bob, ActorExternalID: "ha-bob"},
			wantErr: rotation.ErrValidation,
		},
		{
			name:    "unknown member",
			req:     primary.PlanSwapRequest{WeekStart: week2, MemberAID: bob, MemberBID: "MEM-999", ActorExternalID: "ha-bob"},
			wantErr: rotation.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.rota.PlanSwap(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, h.overrides(t, secondary.OverrideFilters{}))
}

func TestPlanSwap_ConflictsWithCompensation(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	// Bob cleans Alice's week 1; his compensation lands on week 2.
	_, err := h.rota.MarkTakeoverDone(ctx, primary.MarkTakeoverRequest{
		WeekStart: week1, OriginalAssigneeID: alice, CleanerID: bob, ActorExternalID: "ha-bob",
	})
	require.NoError(t, err)

	_, err = h.rota.PlanSwap(ctx, primary.PlanSwapRequest{
		WeekStart: week2, MemberAID: bob, MemberBID: carol, ActorExternalID: "ha-bob",
	})
	assert.ErrorIs(t, err, rotation.ErrConflict)
	assert.Len(t, h.planned(t, week2), 1)
}

func TestPlanSwap_Exhausted(t *testing.T) {
	h := newHarness(t, EngineConfig{MaxScanWeeks: 1})

	_, err := h.rota.PlanSwap(context.Background(), primary.PlanSwapRequest{
		WeekStart: week2, MemberAID: bob, MemberBID: alice, ActorExternalID: "ha-bob",
	})
	assert.ErrorIs(t, err, rotation.ErrExhausted)
	assert.NotErrorIs(t, err, rotation.ErrValidation)

	// Nothing was written.
	assert.Empty(t, h.overrides(t, secondary.OverrideFilters{}))
	events, err := h.activity.ListActivity(context.Background(), primary.ActivityFilters{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPlanSwap_NoOpWhenBaselineIsNeitherParty(t *testing.T) {
	h := newHarness(t, EngineConfig{})

	// Week 1 belongs to Alice; a Bob/Carol swap there leaves her in place.
	_, err := h.rota.PlanSwap(context.Background(), primary.PlanSwapRequest{
		WeekStart: week1, MemberAID: bob, MemberBID: carol, ActorExternalID: "ha-bob",
	})
	require.NoError(t, err)
	assert.Equal(t, alice, h.effective(t, week1))
}

func TestPlanSwap_CancelFindsUnlinkedReturn(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	// Imported rows carry no source event.
	err := h.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		if err := repos.Overrides.Create(ctx, &secondary.OverrideRecord{
			ID: "OVR-0001", WeekStart: week2, Type: rotation.OverrideManualSwap, Source: rotation.SourceManual,
			MemberFromID: bob, MemberToID: carol, Status: rotation.OverrideStatusPlanned,
		}); err != nil {
			return err
		}
		return repos.Overrides.Create(ctx, &secondary.OverrideRecord{
			ID: "OVR-0002", WeekStart: week3, Type: rotation.OverrideCompensation, Source: rotation.SourceManual,
			MemberFromID: carol, MemberToID: bob, Status: rotation.OverrideStatusPlanned,
		})
	})
	require.NoError(t, err)
	assert.Equal(t, bob, h.effective(t, week3))

	_, err = h.rota.PlanSwap(ctx, primary.PlanSwapRequest{WeekStart: week2, ActorExternalID: "ha-alice", Cancel: true})
	require.NoError(t, err)

	assert.Empty(t, h.planned(t, week2))
	assert.Empty(t, h.planned(t, week3))
	assert.Equal(t, carol, h.effective(t, week3))
}

func TestTakeoverThenUndo_RoundTrip(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	resp, err := h.rota.MarkTakeoverDone(ctx, primary.MarkTakeoverRequest{
		WeekStart: week1, OriginalAssigneeID: alice, CleanerID: bob, ActorExternalID: "ha-carol",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Compensation)
	assert.Equal(t, week2, resp.Compensation.WeekStart)
	assert.Equal(t, rotation.SourceTakeoverCompletion, resp.Compensation.Source)
	assert.Equal(t, []string{bob, alice}, recipients(resp.Notifications))
	assert.Contains(t, resp.Notifications[1].Message, "Carol recorded that Bob took over your shift in week 2026-10-05.")

	row := h.row(t, week1)
	assert.Equal(t, rotation.StatusDone, row.Status)
	assert.Equal(t, rotation.CompletionTakeover, row.CompletionMode)
	assert.Equal(t, bob, row.CompletedByID)

	comp := h.row(t, week2)
	assert.Equal(t, alice, comp.EffectiveID)
	assert.Equal(t, rotation.OverrideCompensation, comp.OverrideType)
	assert.Equal(t, week1, comp.SourceWeekStart)

	notes, err := h.rota.MarkUndone(ctx, primary.MarkUndoneRequest{WeekStart: week1, ActorExternalID: "ha-carol"})
	require.NoError(t, err)
	assert.Equal(t, []string{alice, bob, bob, alice}, recipients(notes))
	assert.Equal(t, week2, notes[2].WeekStart)

	row = h.row(t, week1)
	assert.Equal(t, rotation.StatusPending, row.Status)
	assert.Empty(t, row.CompletedByID)
	assert.Empty(t, row.CompletionMode)
	assert.True(t, row.CompletedAt.IsZero())

	assert.Empty(t, h.planned(t, week2))
	assert.Equal(t, bob, h.effective(t, week2))
}

func TestTakeover_Validation(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	_, err := h.rota.MarkTakeoverDone(ctx, primary.MarkTakeoverRequest{
		WeekStart: week1, OriginalAssigneeID: alice, CleanerID: alice, ActorExternalID: "ha-alice",
	})
	assert.ErrorIs(t, err, rotation.ErrValidation)

	_, err = h.rota.MarkTakeoverDone(ctx, primary.MarkTakeoverRequest{
		WeekStart: week1, OriginalAssigneeID: alice, CleanerID: "MEM-404", ActorExternalID: "ha-alice",
	})
	assert.ErrorIs(t, err, rotation.ErrNotFound)
}

func TestMarkDone_ConfirmsForSomeoneElse(t *testing.T) {
	h := newHarness(t, EngineConfig{})

	notes, err := h.rota.MarkDone(context.Background(), primary.MarkDoneRequest{
		WeekStart: week1, ActorExternalID: "ha-bob", CompletedByID: alice,
	})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, alice, notes[0].MemberID)
	assert.Equal(t, "completion_confirmation", notes[0].Kind)
	assert.Equal(t, "Bob marked your cleaning shift as done for week 2026-10-05.", notes[0].Message)
}

func TestMarkUndone_NotDoneIsNoOp(t *testing.T) {
	h := newHarness(t, EngineConfig{})

	notes, err := h.rota.MarkUndone(context.Background(), primary.MarkUndoneRequest{WeekStart: week1, ActorExternalID: "ha-bob"})
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestMarkUndone_RevertsAppliedSwap(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	_, err := h.rota.PlanSwap(ctx, primary.PlanSwapRequest{
		WeekStart: week2, MemberAID: bob, MemberBID: carol, ActorExternalID: "ha-bob",
	})
	require.NoError(t, err)
	_, err = h.rota.MarkDone(ctx, primary.MarkDoneRequest{WeekStart: week2, ActorExternalID: "ha-carol"})
	require.NoError(t, err)
	assert.Empty(t, h.planned(t, week2))

	notes, err := h.rota.MarkUndone(ctx, primary.MarkUndoneRequest{WeekStart: week2, ActorExternalID: "ha-carol"})
	require.NoError(t, err)
	assert.Equal(t, []string{carol}, recipients(notes))

	assert.Len(t, h.planned(t, week2), 1)
	row := h.row(t, week2)
	assert.Equal(t, rotation.StatusPending, row.Status)
	assert.Equal(t, carol, row.EffectiveID)
}

func TestCancelOverridesForInactiveMembers(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := context.Background()

	_, err := h.rota.PlanSwap(ctx, primary.PlanSwapRequest{
		WeekStart: week2, MemberAID: bob, MemberBID: carol, ActorExternalID: "ha-bob",
	})
	require.NoError(t, err)

	notes, err := h.members.DeactivateMember(ctx, carol, "ha-alice")
	require.NoError(t, err)

	// Bob is told about both halves of the swap; Carol is gone.
	assert.Equal(t, []string{bob, bob}, recipients(notes))
	assert.Contains(t, notes[0].Message, "A planned cleaning swap for week 2026-10-12 was canceled because Carol is no longer active in the flat.")
	assert.Contains(t, notes[1].Message, "A planned return shift for week 2026-10-19")

	assert.Empty(t, h.overrides(t, secondary.OverrideFilters{Status: rotation.OverrideStatusPlanned}))

	rot, err := h.rota.GetRotation(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{alice, bob}, rot.OrderedMemberIDs)
	assert.Equal(t, bob, h.effective(t, week2))
	assert.Equal(t, alice, h.effective(t, week3))

	events, err := h.activity.ListActivity(ctx, primary.ActivityFilters{Action: actionAutoCanceledInactive})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCancelOverridesForInactiveMembers_NothingPlanned(t *testing.T) {
	h := newHarness(t, EngineConfig{})

	notes, err := h.rota.CancelOverridesForInactiveMembers(context.Background(), []string{carol}, "")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestPlanSwap_ActorFromContext(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	ctx := contextWithActor("ha-alice")

	resp, err := h.rota.PlanSwap(ctx, primary.PlanSwapRequest{WeekStart: week2, MemberAID: bob, MemberBID: carol})
	require.NoError(t, err)
	assert.Contains(t, resp.Notifications[0].Message, "Alice swapped shifts")
}
