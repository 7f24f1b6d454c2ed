package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/rota/internal/ports/primary"
	"github.com/example/rota/internal/wire"
)

// DoneCmd returns the done command
func DoneCmd() *cobra.Command {
	var completedBy string

	cmd := &cobra.Command{
		Use:   "done [week]",
		Short: "Mark a week's cleaning as done",
		Long: `Mark a week as cleaned by its assignee. The week defaults to this week.

Examples:
  rota done
  rota done 2026-10-12 --by MEM-002`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := weekArg(cmd, args)
			if err != nil {
				return err
			}
			if err := validateMemberID(completedBy); err != nil {
				return err
			}

			_, err = wire.RotaAdapter().MarkDone(cmd.Context(), primary.MarkDoneRequest{
				WeekStart:     w,
				CompletedByID: completedBy,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&completedBy, "by", "", "Member who cleaned (default: the acting member)")

	return cmd
}

// UndoneCmd returns the undone command
func UndoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undone [week]",
		Short: "Revert a week to pending",
		Long: `Revert a completed week to pending. Undoing a takeover also cancels the
compensation it planned.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := weekArg(cmd, args)
			if err != nil {
				return err
			}

			_, err = wire.RotaAdapter().MarkUndone(cmd.Context(), primary.MarkUndoneRequest{WeekStart: w})
			return err
		},
	}
}

// TakeoverCmd returns the takeover command
func TakeoverCmd() *cobra.Command {
	var original string
	var cleaner string

	cmd := &cobra.Command{
		Use:   "takeover [week]",
		Short: "Record that someone else cleaned a week",
		Long: `Record that the cleaner did the original assignee's week. The original
assignee covers the cleaner's next regular week in return.

Examples:
  rota takeover 2026-10-12 --original MEM-002 --cleaner MEM-001`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if original == "" || cleaner == "" {
				return fmt.Errorf("--original and --cleaner are required")
			}
			if err := validateMemberID(original); err != nil {
				return err
			}
			if err := validateMemberID(cleaner); err != nil {
				return err
			}
			w, err := weekArg(cmd, args)
			if err != nil {
				return err
			}

			_, err = wire.RotaAdapter().MarkTakeover(cmd.Context(), primary.MarkTakeoverRequest{
				WeekStart:          w,
				OriginalAssigneeID: original,
				CleanerID:          cleaner,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&original, "original", "", "Member who was assigned the week")
	cmd.Flags().StringVar(&cleaner, "cleaner", "", "Member who actually cleaned")

	return cmd
}
