package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/wire"
)

// CurrentCmd returns the current command
func CurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show who cleans this week",
		Long: `Show this week's cleaner, status and any override.

Earlier weeks that were never confirmed are marked missed as a side effect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.RotaAdapter().Current(cmd.Context())
			return err
		},
	}
}

// ScheduleCmd returns the schedule command
func ScheduleCmd() *cobra.Command {
	var weeks int
	var from string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the upcoming cleaning schedule",
		Long: `Show consecutive weeks with their baseline and effective cleaner.

Examples:
  rota schedule                        # next 8 weeks
  rota schedule --weeks 12
  rota schedule --from 2026-10-05 --weeks 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var fromWeek time.Time
			if from != "" {
				w, err := week.Parse(from)
				if err != nil {
					return err
				}
				fromWeek = w
			}
			_, err := wire.RotaAdapter().Schedule(cmd.Context(), weeks, fromWeek)
			return err
		},
	}

	cmd.Flags().IntVarP(&weeks, "weeks", "w", 8, "Number of weeks to show (max 520)")
	cmd.Flags().StringVar(&from, "from", "", "First week, a Monday in YYYY-MM-DD (default: this week)")

	return cmd
}

// RotationCmd returns the rotation command
func RotationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotation",
		Short: "Show the rotation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.RotaAdapter().Rotation(cmd.Context())
			return err
		},
	}
}
