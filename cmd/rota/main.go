package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/rota/internal/cli"
	"github.com/example/rota/internal/version"
	"github.com/example/rota/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "rota",
		Short:   "rota - weekly cleaning rotation for a shared flat",
		Version: version.String(),
		Long: `rota keeps track of whose turn it is to clean the common areas.
It handles swaps, takeovers with compensation, and weekly reminders.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.AddGlobalFlags(rootCmd)

	// Setup
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.MemberCmd())

	// Schedule
	rootCmd.AddCommand(cli.CurrentCmd())
	rootCmd.AddCommand(cli.ScheduleCmd())
	rootCmd.AddCommand(cli.RotationCmd())
	rootCmd.AddCommand(cli.SwapCmd())
	rootCmd.AddCommand(cli.DoneCmd())
	rootCmd.AddCommand(cli.UndoneCmd())
	rootCmd.AddCommand(cli.TakeoverCmd())

	// Notifications and history
	rootCmd.AddCommand(cli.NotifyCmd())
	rootCmd.AddCommand(cli.ActivityCmd())

	err := rootCmd.Execute()
	_ = wire.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
