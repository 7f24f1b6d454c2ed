package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/example/rota/internal/config"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/db"
	"github.com/example/rota/internal/ports/secondary"
	"github.com/example/rota/internal/version"
	"github.com/example/rota/internal/wire"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the rota setup",
		Long: `Health check for the rota database and rotation.

Validates:
- Config (timezone, scan limit)
- Database schema version
- Active members
- Stored rotation order against the active members

Examples:
  rota doctor              # Run full health check
  rota doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := currentConfig(cmd)
			ctx := cmd.Context()

			results := []CheckResult{
				checkConfig(cfg),
				checkSchema(),
			}
			store := wire.Store()
			err := store.ReadOnly(ctx, func(ctx context.Context, repos secondary.Repositories) error {
				members, err := repos.Members.List(ctx, secondary.MemberFilters{ActiveOnly: true})
				if err != nil {
					return err
				}
				active := make([]string, len(members))
				for i, m := range members {
					active[i] = m.ID
				}
				results = append(results, checkMembers(active))
				rot, err := repos.Rotation.Get(ctx)
				if err != nil {
					return err
				}
				results = append(results, checkRotation(rot, active))
				return nil
			})
			if err != nil {
				results = append(results, CheckResult{Name: "Rotation", Status: "✗", Details: "  " + err.Error()})
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println(version.String())
				fmt.Println()
				fmt.Println("Check              Status")
				fmt.Println("─────────────────────────")
				for _, r := range results {
					fmt.Printf("%-18s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}

				if hasErrors {
					fmt.Println("\n⚠ Issues found.")
				} else {
					fmt.Println("All checks passed.")
				}
			}

			if hasErrors {
				return fmt.Errorf("rota validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

func checkConfig(cfg *config.Config) CheckResult {
	if err := cfg.Validate(); err != nil {
		return CheckResult{Name: "Config", Status: "✗", Details: "  " + err.Error()}
	}
	return CheckResult{Name: "Config", Status: "✓"}
}

func checkSchema() CheckResult {
	current, err := db.CurrentVersion(wire.DB())
	if err != nil {
		return CheckResult{Name: "Schema", Status: "✗", Details: "  " + err.Error()}
	}
	if current != db.LatestVersion() {
		return CheckResult{
			Name:    "Schema",
			Status:  "✗",
			Details: fmt.Sprintf("  Schema version %d, expected %d", current, db.LatestVersion()),
		}
	}
	return CheckResult{Name: "Schema", Status: "✓"}
}

func checkMembers(active []string) CheckResult {
	if len(active) == 0 {
		return CheckResult{
			Name:    "Members",
			Status:  "⚠",
			Details: "  No active members. Run 'rota member sync --file members.yaml'",
		}
	}
	return CheckResult{Name: "Members", Status: "✓"}
}

// checkRotation flags a stored order that drifted from the active members.
// Drift is repaired on the next write, so it only warns.
func checkRotation(rot *secondary.RotationRecord, active []string) CheckResult {
	if len(rot.OrderedMemberIDs) == 0 {
		if len(active) == 0 {
			return CheckResult{Name: "Rotation", Status: "✓"}
		}
		return CheckResult{
			Name:    "Rotation",
			Status:  "⚠",
			Details: "  No rotation stored yet; it is created on the next write",
		}
	}

	var details string
	for _, id := range rot.OrderedMemberIDs {
		if !slices.Contains(active, id) {
			details += fmt.Sprintf("  %s is in the rotation but not active\n", id)
		}
	}
	for _, id := range active {
		if !slices.Contains(rot.OrderedMemberIDs, id) {
			details += fmt.Sprintf("  %s is active but not in the rotation\n", id)
		}
	}
	if !rot.AnchorWeek.IsZero() && !week.IsMonday(rot.AnchorWeek) {
		return CheckResult{
			Name:    "Rotation",
			Status:  "✗",
			Details: fmt.Sprintf("  Anchor %s is not a Monday", week.Format(rot.AnchorWeek)),
		}
	}
	if details != "" {
		return CheckResult{Name: "Rotation", Status: "⚠", Details: details}
	}
	return CheckResult{Name: "Rotation", Status: "✓"}
}
