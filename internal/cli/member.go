package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/rota/internal/adapters/cli"
	"github.com/example/rota/internal/wire"
)

// MemberCmd returns the member command
func MemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage flatmates",
		Long:  `Mirror the household directory into the rotation and inspect members.`,
	}

	cmd.AddCommand(memberSyncCmd())
	cmd.AddCommand(memberListCmd())
	cmd.AddCommand(memberDeactivateCmd())

	return cmd
}

func memberSyncCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync members from a directory snapshot",
		Long: `Upsert members from a YAML snapshot. Members missing from the snapshot
are deactivated and their planned swaps and return shifts canceled.

The file looks like:

  members:
    - externalId: ha-alice
      displayName: Alice
      notifyChannel: notify.mobile_app_alice
    - externalId: ha-bob
      displayName: Bob
      active: false

Examples:
  rota member sync --file members.yaml
  cat members.yaml | rota member sync --file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openInput(file)
			if err != nil {
				return err
			}
			defer closeFn()

			items, err := cliadapter.DecodeMembers(r)
			if err != nil {
				return err
			}

			_, err = wire.MemberAdapter().Sync(cmd.Context(), items, "")
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML snapshot, - for stdin")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func memberListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.MemberAdapter().List(cmd.Context())
			return err
		},
	}
}

func memberDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <member-id>",
		Short: "Remove a member from the rotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateMemberID(args[0]); err != nil {
				return err
			}
			_, err := wire.MemberAdapter().Deactivate(cmd.Context(), args[0], "")
			return err
		},
	}
}

// openInput opens path for reading, with - meaning stdin.
func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
