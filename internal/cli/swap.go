package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ports/primary"
	"github.com/example/rota/internal/wire"
)

// SwapCmd returns the swap command
func SwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Plan or cancel a manual swap",
		Long: `Swap a week between two flatmates. The one who takes the week is paid
back with a return shift on the next week the other one would clean.`,
	}

	cmd.AddCommand(swapPlanCmd())
	cmd.AddCommand(swapCancelCmd())

	return cmd
}

func swapPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <week> <member-a> <member-b>",
		Short: "Plan or edit the swap of a week",
		Long: `Plan the swap of a week. Planning again for the same week edits the swap
and moves its return shift when needed.

Examples:
  rota swap plan 2026-10-12 MEM-002 MEM-003`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := week.Parse(args[0])
			if err != nil {
				return err
			}
			if err := validateMemberID(args[1]); err != nil {
				return err
			}
			if err := validateMemberID(args[2]); err != nil {
				return err
			}

			_, err = wire.RotaAdapter().PlanSwap(cmd.Context(), primary.PlanSwapRequest{
				WeekStart: w,
				MemberAID: args[1],
				MemberBID: args[2],
			})
			return err
		},
	}
}

func swapCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <week>",
		Short: "Cancel the swap of a week and its return shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := week.Parse(args[0])
			if err != nil {
				return err
			}

			_, err = wire.RotaAdapter().PlanSwap(cmd.Context(), primary.PlanSwapRequest{
				WeekStart: w,
				Cancel:    true,
			})
			return err
		},
	}
}
