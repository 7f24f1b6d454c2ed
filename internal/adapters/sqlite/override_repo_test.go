package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/rota/internal/adapters/sqlite"
	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/ports/secondary"
)

func TestOverrideRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	seedHousehold(t, db)
	repo := sqlite.NewOverrideRepository(db)
	ctx := context.Background()

	o := &secondary.OverrideRecord{
		ID:           "OVR-0001",
		WeekStart:    mustWeek(t, "2026-10-19"),
		Type:         rotation.OverrideManualSwap,
		Source:       rotation.SourceManual,
		MemberFromID: "MEM-001",
		MemberToID:   "MEM-002",
		Status:       rotation.OverrideStatusPlanned,
		CreatedByID:  "MEM-003",
	}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "OVR-0001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.WeekStart.Equal(o.WeekStart) || got.MemberToID != "MEM-002" || got.SourceEventID != 0 {
		t.Errorf("unexpected override: %+v", got)
	}
	if got.CreatedByID != "MEM-003" {
		t.Errorf("expected creator MEM-003, got %q", got.CreatedByID)
	}
}

func TestOverrideRepository_UniqueWeekStatus(t *testing.T) {
	db := setupTestDB(t)
	seedHousehold(t, db)
	repo := sqlite.NewOverrideRepository(db)
	ctx := context.Background()
	seedOverride(t, db, "OVR-0001", "2026-10-19", "manual_swap", "MEM-001", "MEM-002", "planned")

	err := repo.Create(ctx, &secondary.OverrideRecord{
		ID:           "OVR-0002",
		WeekStart:    mustWeek(t, "2026-10-19"),
		Type:         rotation.OverrideCompensation,
		Source:       rotation.SourceManual,
		MemberFromID: "MEM-002",
		MemberToID:   "MEM-001",
		Status:       rotation.OverrideStatusPlanned,
	})
	if !errors.Is(err, rotation.ErrConflict) {
		t.Fatalf("expected conflict on second planned row, got %v", err)
	}

	seedOverride(t, db, "OVR-0003", "2026-10-19", "manual_swap", "MEM-001", "MEM-003", "canceled")
	third, _ := repo.GetByID(ctx, "OVR-0003")
	third.Status = rotation.OverrideStatusPlanned
	if err := repo.Update(ctx, third); !errors.Is(err, rotation.ErrConflict) {
		t.Errorf("expected conflict when updating into an occupied status, got %v", err)
	}
}

func TestOverrideRepository_List_Filters(t *testing.T) {
	db := setupTestDB(t)
	seedHousehold(t, db)
	repo := sqlite.NewOverrideRepository(db)
	ctx := context.Background()
	seedOverride(t, db, "OVR-0001", "2026-10-19", "manual_swap", "MEM-001", "MEM-002", "planned")
	seedOverride(t, db, "OVR-0002", "2026-11-02", "compensation", "MEM-002", "MEM-001", "planned")
	seedOverride(t, db, "OVR-0003", "2026-10-19", "manual_swap", "MEM-001", "MEM-003", "canceled")
	if _, err := db.Exec("INSERT INTO events (id, domain, action) VALUES (42, 'cleaning', 'cleaning_swap_created')"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE overrides SET source_event_id = 42 WHERE id = 'OVR-0002'"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		filters secondary.OverrideFilters
		want    []string
	}{
		{"all ordered by week", secondary.OverrideFilters{}, []string{"OVR-0001", "OVR-0003", "OVR-0002"}},
		{"planned only", secondary.OverrideFilters{Status: "planned"}, []string{"OVR-0001", "OVR-0002"}},
		{"week", secondary.OverrideFilters{WeekStart: mustWeek(t, "2026-10-19"), Status: "planned"}, []string{"OVR-0001"}},
		{"after week", secondary.OverrideFilters{AfterWeek: mustWeek(t, "2026-10-19")}, []string{"OVR-0002"}},
		{"source event", secondary.OverrideFilters{SourceEventID: 42}, []string{"OVR-0002"}},
		{"parties", secondary.OverrideFilters{MemberFromID: "MEM-002", MemberToID: "MEM-001"}, []string{"OVR-0002"}},
		{"exclude", secondary.OverrideFilters{WeekStart: mustWeek(t, "2026-10-19"), ExcludeID: "OVR-0001"}, []string{"OVR-0003"}},
		{"type", secondary.OverrideFilters{Type: "compensation", Source: "manual"}, []string{"OVR-0002"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filters)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %d rows", tt.want, len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("row %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestOverrideRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	seedHousehold(t, db)
	repo := sqlite.NewOverrideRepository(db)
	ctx := context.Background()
	seedOverride(t, db, "OVR-0001", "2026-10-19", "manual_swap", "MEM-001", "MEM-002", "planned")

	if err := repo.Delete(ctx, "OVR-0001"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, "OVR-0001"); !errors.Is(err, rotation.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "OVR-0001"); !errors.Is(err, rotation.ErrNotFound) {
		t.Errorf("expected not found deleting twice, got %v", err)
	}
}

func TestOverrideRepository_GetNextID(t *testing.T) {
	db := setupTestDB(t)
	seedHousehold(t, db)
	repo := sqlite.NewOverrideRepository(db)
	ctx := context.Background()

	id, _ := repo.GetNextID(ctx)
	if id != "OVR-0001" {
		t.Errorf("expected OVR-0001, got %s", id)
	}

	seedOverride(t, db, "OVR-0012", "2026-10-19", "manual_swap", "MEM-001", "MEM-002", "planned")
	id, _ = repo.GetNextID(ctx)
	if id != "OVR-0013" {
		t.Errorf("expected OVR-0013, got %s", id)
	}
}
