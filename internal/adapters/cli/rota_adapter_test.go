package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/rota/internal/ports/primary"
)

var testWeek = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

// mockRotaService implements primary.RotaService for testing
type mockRotaService struct {
	getCurrentFn   func(ctx context.Context, now time.Time) (*primary.Current, error)
	getScheduleFn  func(ctx context.Context, req primary.ScheduleRequest) ([]*primary.ScheduleRow, error)
	getRotationFn  func(ctx context.Context) (*primary.Rotation, error)
	planSwapFn     func(ctx context.Context, req primary.PlanSwapRequest) (*primary.PlanSwapResponse, error)
	markDoneFn     func(ctx context.Context, req primary.MarkDoneRequest) ([]primary.Notification, error)
	markUndoneFn   func(ctx context.Context, req primary.MarkUndoneRequest) ([]primary.Notification, error)
	markTakeoverFn func(ctx context.Context, req primary.MarkTakeoverRequest) (*primary.MarkTakeoverResponse, error)

	// Track calls for verification
	lastScheduleReq primary.ScheduleRequest
	lastSwapReq     primary.PlanSwapRequest
}

func (m *mockRotaService) GetCurrent(ctx context.Context, now time.Time) (*primary.Current, error) {
	if m.getCurrentFn != nil {
		return m.getCurrentFn(ctx, now)
	}
	return &primary.Current{WeekStart: testWeek, BaselineID: "MEM-001", EffectiveID: "MEM-001", Status: "pending"}, nil
}

func (m *mockRotaService) GetSchedule(ctx context.Context, req primary.ScheduleRequest) ([]*primary.ScheduleRow, error) {
	m.lastScheduleReq = req
	if m.getScheduleFn != nil {
		return m.getScheduleFn(ctx, req)
	}
	return []*primary.ScheduleRow{}, nil
}

func (m *mockRotaService) GetRotation(ctx context.Context) (*primary.Rotation, error) {
	if m.getRotationFn != nil {
		return m.getRotationFn(ctx)
	}
	return &primary.Rotation{}, nil
}

func (m *mockRotaService) PlanSwap(ctx context.Context, req primary.PlanSwapRequest) (*primary.PlanSwapResponse, error) {
	m.lastSwapReq = req
	if m.planSwapFn != nil {
		return m.planSwapFn(ctx, req)
	}
	return &primary.PlanSwapResponse{}, nil
}

func (m *mockRotaService) MarkDone(ctx context.Context, req primary.MarkDoneRequest) ([]primary.Notification, error) {
	if m.markDoneFn != nil {
		return m.markDoneFn(ctx, req)
	}
	return nil, nil
}

func (m *mockRotaService) MarkUndone(ctx context.Context, req primary.MarkUndoneRequest) ([]primary.Notification, error) {
	if m.markUndoneFn != nil {
		return m.markUndoneFn(ctx, req)
	}
	return nil, nil
}

func (m *mockRotaService) MarkTakeoverDone(ctx context.Context, req primary.MarkTakeoverRequest) (*primary.MarkTakeoverResponse, error) {
	if m.markTakeoverFn != nil {
		return m.markTakeoverFn(ctx, req)
	}
	return &primary.MarkTakeoverResponse{}, nil
}

func (m *mockRotaService) CancelOverridesForInactiveMembers(ctx context.Context, memberIDs []string, actorExternalID string) ([]primary.Notification, error) {
	return nil, errors.New("not implemented in mock")
}

func household() *mockMemberService {
	return &mockMemberService{
		listMembersFn: func(ctx context.Context) ([]*primary.Member, error) {
			return []*primary.Member{
				{ID: "MEM-001", DisplayName: "Alice", Active: true},
				{ID: "MEM-002", DisplayName: "Bob", Active: true},
			}, nil
		},
	}
}

// ============================================================================
// Current / Schedule Tests
// ============================================================================

func TestRotaAdapter_Current_ShowsNames(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewRotaAdapter(&mockRotaService{}, household(), &buf)

	cur, err := adapter.Current(context.Background())

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cur.EffectiveID != "MEM-001" {
		t.Errorf("expected MEM-001, got %s", cur.EffectiveID)
	}
	output := buf.String()
	if !strings.Contains(output, "Alice (MEM-001)") {
		t.Errorf("expected output to contain 'Alice (MEM-001)', got '%s'", output)
	}
	if !strings.Contains(output, "2026-10-19") {
		t.Errorf("expected output to contain week, got '%s'", output)
	}
	if strings.Contains(output, "Baseline:") {
		t.Errorf("baseline should only show when overridden, got '%s'", output)
	}
}

func TestRotaAdapter_Schedule_WithOverride(t *testing.T) {
	mock := &mockRotaService{
		getScheduleFn: func(ctx context.Context, req primary.ScheduleRequest) ([]*primary.ScheduleRow, error) {
			return []*primary.ScheduleRow{
				{WeekStart: testWeek, BaselineID: "MEM-001", EffectiveID: "MEM-001", Status: "done"},
				{
					WeekStart: testWeek.AddDate(0, 0, 7), BaselineID: "MEM-002", EffectiveID: "MEM-001",
					OverrideID: "OVR-0002", OverrideType: "compensation", SourceWeekStart: testWeek,
					Status: "pending",
				},
			}, nil
		},
	}
	var buf bytes.Buffer
	adapter := NewRotaAdapter(mock, household(), &buf)

	rows, err := adapter.Schedule(context.Background(), 2, testWeek)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
	if mock.lastScheduleReq.WeeksAhead != 2 || !mock.lastScheduleReq.FromWeek.Equal(testWeek) {
		t.Errorf("unexpected request %+v", mock.lastScheduleReq)
	}
	output := buf.String()
	if !strings.Contains(output, "OVR-0002 compensation (from 2026-10-19)") {
		t.Errorf("expected override column, got '%s'", output)
	}
	if !strings.Contains(output, "Bob (MEM-002)") {
		t.Errorf("expected baseline name, got '%s'", output)
	}
}

func TestRotaAdapter_Schedule_Error(t *testing.T) {
	mock := &mockRotaService{
		getScheduleFn: func(ctx context.Context, req primary.ScheduleRequest) ([]*primary.ScheduleRow, error) {
			return nil, errors.New("weeks must be at most 520")
		},
	}
	adapter := NewRotaAdapter(mock, household(), &bytes.Buffer{})

	_, err := adapter.Schedule(context.Background(), 600, time.Time{})

	if err == nil || !strings.Contains(err.Error(), "at most 520") {
		t.Errorf("expected wrapped service error, got %v", err)
	}
}

func TestRotaAdapter_NamesFallBackToIDs(t *testing.T) {
	members := &mockMemberService{
		listMembersFn: func(ctx context.Context) ([]*primary.Member, error) {
			return nil, errors.New("database is locked")
		},
	}
	var buf bytes.Buffer
	adapter := NewRotaAdapter(&mockRotaService{}, members, &buf)

	if _, err := adapter.Current(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "MEM-001") || strings.Contains(buf.String(), "Alice") {
		t.Errorf("expected bare ID, got '%s'", buf.String())
	}
}

func TestRotaAdapter_Rotation_Empty(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewRotaAdapter(&mockRotaService{}, household(), &buf)

	if _, err := adapter.Rotation(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "rota member sync") {
		t.Errorf("expected sync hint, got '%s'", buf.String())
	}
}

// ============================================================================
// Swap / Completion Tests
// ============================================================================

func TestRotaAdapter_PlanSwap_PrintsReturnAndNotifications(t *testing.T) {
	mock := &mockRotaService{
		planSwapFn: func(ctx context.Context, req primary.PlanSwapRequest) (*primary.PlanSwapResponse, error) {
			return &primary.PlanSwapResponse{
				Swap:   &primary.Override{ID: "OVR-0001", WeekStart: req.WeekStart, MemberFromID: "MEM-001", MemberToID: "MEM-002"},
				Return: &primary.Override{ID: "OVR-0002", WeekStart: req.WeekStart.AddDate(0, 0, 7), MemberFromID: "MEM-002", MemberToID: "MEM-001"},
				Notifications: []primary.Notification{
					{MemberID: "MEM-002", Message: "Alice swapped week 2026-10-19 with you."},
				},
			}, nil
		},
	}
	var buf bytes.Buffer
	adapter := NewRotaAdapter(mock, household(), &buf)

	_, err := adapter.PlanSwap(context.Background(), primary.PlanSwapRequest{
		WeekStart: testWeek, MemberAID: "MEM-001", MemberBID: "MEM-002",
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mock.lastSwapReq.MemberBID != "MEM-002" {
		t.Errorf("expected request to pass through, got %+v", mock.lastSwapReq)
	}
	output := buf.String()
	for _, want := range []string{"✓ Swap OVR-0001", "Return OVR-0002", "2026-10-26", "→ Bob (MEM-002): Alice swapped"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got '%s'", want, output)
		}
	}
}

func TestRotaAdapter_PlanSwap_Cancel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewRotaAdapter(&mockRotaService{}, household(), &buf)

	_, err := adapter.PlanSwap(context.Background(), primary.PlanSwapRequest{WeekStart: testWeek, Cancel: true})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "canceled") {
		t.Errorf("expected cancel confirmation, got '%s'", buf.String())
	}
}

func TestRotaAdapter_PlanSwap_Error(t *testing.T) {
	mock := &mockRotaService{
		planSwapFn: func(ctx context.Context, req primary.PlanSwapRequest) (*primary.PlanSwapResponse, error) {
			return nil, errors.New("week already has a compensation")
		},
	}
	var buf bytes.Buffer
	adapter := NewRotaAdapter(mock, household(), &buf)

	_, err := adapter.PlanSwap(context.Background(), primary.PlanSwapRequest{WeekStart: testWeek})

	if err == nil {
		t.Fatal("expected error")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output on error, got '%s'", buf.String())
	}
}

func TestRotaAdapter_MarkUndone_NothingToUndo(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewRotaAdapter(&mockRotaService{}, household(), &buf)

	if _, err := adapter.MarkUndone(context.Background(), primary.MarkUndoneRequest{WeekStart: testWeek}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "nothing to undo") {
		t.Errorf("expected no-op message, got '%s'", buf.String())
	}
}

func TestRotaAdapter_MarkTakeover(t *testing.T) {
	mock := &mockRotaService{
		markTakeoverFn: func(ctx context.Context, req primary.MarkTakeoverRequest) (*primary.MarkTakeoverResponse, error) {
			return &primary.MarkTakeoverResponse{
				Compensation: &primary.Override{ID: "OVR-0003", WeekStart: testWeek.AddDate(0, 0, 7), MemberFromID: "MEM-002", MemberToID: "MEM-001"},
			}, nil
		},
	}
	var buf bytes.Buffer
	adapter := NewRotaAdapter(mock, household(), &buf)

	_, err := adapter.MarkTakeover(context.Background(), primary.MarkTakeoverRequest{
		WeekStart: testWeek, OriginalAssigneeID: "MEM-001", CleanerID: "MEM-002",
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Bob (MEM-002) took over week 2026-10-19 from Alice (MEM-001)") {
		t.Errorf("unexpected output '%s'", output)
	}
	if !strings.Contains(output, "Compensation OVR-0003") {
		t.Errorf("expected compensation line, got '%s'", output)
	}
}
