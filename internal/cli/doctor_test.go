package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/example/rota/internal/config"
	"github.com/example/rota/internal/ports/secondary"
)

func TestCheckRotation(t *testing.T) {
	monday := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		rot         *secondary.RotationRecord
		active      []string
		wantStatus  string
		wantDetails string
	}{
		{"empty household", &secondary.RotationRecord{}, nil, "✓", ""},
		{"not stored yet", &secondary.RotationRecord{}, []string{"MEM-001"}, "⚠", "next write"},
		{
			"in sync",
			&secondary.RotationRecord{OrderedMemberIDs: []string{"MEM-002", "MEM-001"}, AnchorWeek: monday},
			[]string{"MEM-001", "MEM-002"},
			"✓", "",
		},
		{
			"drifted",
			&secondary.RotationRecord{OrderedMemberIDs: []string{"MEM-001", "MEM-003"}, AnchorWeek: monday},
			[]string{"MEM-001", "MEM-002"},
			"⚠", "MEM-003 is in the rotation but not active",
		},
		{
			"anchor not monday",
			&secondary.RotationRecord{OrderedMemberIDs: []string{"MEM-001"}, AnchorWeek: monday.AddDate(0, 0, 2)},
			[]string{"MEM-001"},
			"✗", "not a Monday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkRotation(tt.rot, tt.active)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s (%s)", got.Status, tt.wantStatus, got.Details)
			}
			if !strings.Contains(got.Details, tt.wantDetails) {
				t.Errorf("details = %q, want to contain %q", got.Details, tt.wantDetails)
			}
		})
	}
}

func TestCheckMembers(t *testing.T) {
	if got := checkMembers(nil); got.Status != "⚠" {
		t.Errorf("expected warning without members, got %s", got.Status)
	}
	if got := checkMembers([]string{"MEM-001"}); got.Status != "✓" {
		t.Errorf("expected pass, got %s", got.Status)
	}
}

func TestCheckConfig(t *testing.T) {
	cfg := config.Default(t.TempDir())
	if got := checkConfig(cfg); got.Status != "✓" {
		t.Errorf("expected default config to pass, got %s: %s", got.Status, got.Details)
	}

	cfg.Timezone = "Mars/Olympus_Mons"
	if got := checkConfig(cfg); got.Status != "✗" {
		t.Errorf("expected bad timezone to fail, got %s", got.Status)
	}
}
