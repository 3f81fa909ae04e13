// Package cli defines the Cobra commands of lmsctl, the CourseHub
// operations tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"coursehub-backend/internal/config"
	"coursehub-backend/internal/database"
	"coursehub-backend/internal/log"
)

var version = "dev" // set via ldflags at build time

// Options lets tests swap the storage and the output streams.
type Options struct {
	// Open returns the document store and the configuration it came from.
	Open   func(ctx context.Context) (*database.Storage, *config.Config, error)
	Out    io.Writer
	Logger zerolog.Logger
}

func defaultOptions() Options {
	// Logs go to stderr so command output stays scriptable.
	log.Configure(log.Config{Level: os.Getenv("LOG_LEVEL"), Output: os.Stderr, Service: "lmsctl"})

	return Options{
		Open: func(ctx context.Context) (*database.Storage, *config.Config, error) {
			cfg, err := config.LoadStorage()
			if err != nil {
				return nil, nil, err
			}
			storage, err := database.OpenStorage(ctx, cfg)
			if err != nil {
				return nil, nil, err
			}
			return storage, cfg, nil
		},
		Out:    os.Stdout,
		Logger: log.WithComponent("lmsctl"),
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	rootCmd := &cobra.Command{
		Use:   "lmsctl",
		Short: "CourseHub operations tool",
		Long: `lmsctl manages the CourseHub document store: it applies schema
migrations and loads the course catalog from YAML files.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetOut(opts.Out)

	rootCmd.AddCommand(newMigrateCmd(opts))
	rootCmd.AddCommand(newSeedCmd(opts))
	return rootCmd
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := NewRootCmd(defaultOptions()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
