package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/rota/internal/ports/primary"
	"github.com/example/rota/internal/wire"
)

// ActivityCmd returns the activity command
func ActivityCmd() *cobra.Command {
	var domain, action string
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the event log",
		Long: `Show logged events newest first.

Examples:
  rota activity
  rota activity --domain members
  rota activity --action cleaning_takeover_done --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.ActivityAdapter().List(cmd.Context(), primary.ActivityFilters{
				Domain: domain,
				Action: action,
				Limit:  limit,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Only this domain (cleaning, members)")
	cmd.Flags().StringVar(&action, "action", "", "Only this action")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum events")

	return cmd
}
