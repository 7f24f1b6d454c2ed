package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/rota/internal/config"
	"github.com/example/rota/internal/db"
	"github.com/example/rota/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the rota database and config",
		Long: `Initialize the rota database with the required schema and write a
default config.yaml to ~/.rota if none exists.

Examples:
  rota init
  rota init --seed     # add a three person demo household`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := currentConfig(cmd)

			fmt.Printf("Initializing rota database at %s\n", cfg.DatabasePath)
			database := wire.DB()
			version, err := db.CurrentVersion(database)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Database initialized (schema version %d)\n", version)

			if configPath == "" {
				home, err := config.Home()
				if err != nil {
					return err
				}
				path := filepath.Join(home, "config.yaml")
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					if err := config.Save(path, cfg); err != nil {
						return err
					}
					fmt.Printf("✓ Config written to %s\n", path)
				}
			}

			if seed {
				members, err := wire.MemberService().ListMembers(cmd.Context())
				if err != nil {
					return err
				}
				if len(members) > 0 {
					fmt.Println("Members already present, skipping demo household")
				} else {
					if err := db.SeedFixtures(database); err != nil {
						return err
					}
					fmt.Println("✓ Demo household added (Alice, Bob, Carol)")
				}
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  rota member sync --file members.yaml")
			fmt.Println("  rota schedule")

			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Add a demo household")

	return cmd
}
