// Package cli implements exercisectl, an operator CLI over the exercise
// service and the configured store.
package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/frossokourou/exercise-tracker/internal/config"
	"github.com/frossokourou/exercise-tracker/internal/domain"
	"github.com/frossokourou/exercise-tracker/internal/idgen"
)

// Version is overwritten at build time with -ldflags.
var Version = "dev"

// OpenFunc opens the store described by cfg.
type OpenFunc func(ctx context.Context, cfg config.Config) (domain.Store, error)

type app struct {
	open    OpenFunc
	load    func() config.Config
	driver  string
	timeout time.Duration
}

// NewRoot builds the exercisectl command tree.
func NewRoot(open OpenFunc) *cobra.Command {
	a := &app{open: open, load: config.Load}

	cmd := &cobra.Command{
		Use:           "exercisectl",
		Short:         "Manage exercise tracker users and logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&a.driver, "driver", "", "store driver override (memory, postgres, sqlite, mongo)")
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 20*time.Second, "deadline for the whole command")

	cmd.AddCommand(a.newUserCmd())
	cmd.AddCommand(a.newExerciseCmd())
	cmd.AddCommand(a.newLogCmd())
	cmd.AddCommand(a.newMigrateCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (a *app) config() config.Config {
	cfg := a.load()
	if a.driver != "" {
		cfg.StoreDriver = a.driver
	}
	return cfg
}

// withService opens the store, runs fn and closes the store again.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *domain.Service) error) error {
	cfg := a.config()
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	store, err := a.open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mode, err := domain.ParseLimitMode(cfg.LogLimitMode)
	if err != nil {
		return err
	}
	svc := domain.NewService(store, idgen.UUID{},
		domain.WithLimitMode(mode),
		domain.WithLogger(log.New(cmd.ErrOrStderr(), "exercisectl: ", 0)),
	)
	return fn(ctx, svc)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "exercisectl %s\n", Version)
		},
	}
}
