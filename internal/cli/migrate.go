package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts Options) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply the numbered .sql files of the migrations directory that the
database has not seen yet. Defaults to MIGRATIONS_DIR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			storage, cfg, err := opts.Open(ctx)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer storage.Close()

			if storage.Pool == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "In-memory store: nothing to migrate.")
				return nil
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			applied, err := storage.Migrate(ctx, dir, opts.Logger)
			if err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) from %s.\n", applied, dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Migrations directory (default: MIGRATIONS_DIR)")
	return cmd
}
