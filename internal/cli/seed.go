package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coursehub-backend/internal/repository"
	"coursehub-backend/internal/services"
)

func newSeedCmd(opts Options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load courses, modules and lessons from a YAML catalog",
		Long: `Load a course catalog into the document store. Documents with the
same ids are replaced. Use --dry-run to validate the file without writing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening catalog: %w", err)
			}
			defer f.Close()

			if dryRun {
				file, err := services.ParseCatalog(f)
				if err != nil {
					return err
				}
				printCounts(cmd, "Would seed", file.Counts())
				return nil
			}

			ctx := cmd.Context()
			storage, _, err := opts.Open(ctx)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer storage.Close()

			catalog := services.NewCatalogService(repository.NewCourseRepo(storage.Store), opts.Logger)
			res, err := catalog.SeedCatalog(ctx, f)
			if err != nil {
				return err
			}
			printCounts(cmd, "Seeded", res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the catalog without writing it")
	return cmd
}

func printCounts(cmd *cobra.Command, verb string, res services.SeedResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d course(s), %d module(s), %d lesson(s).\n",
		verb, res.Courses, res.Modules, res.Lessons)
}
