package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/frossokourou/exercise-tracker/internal/domain"
	"github.com/frossokourou/exercise-tracker/internal/persistence"
)

func (a *app) newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management",
	}
	cmd.AddCommand(a.newUserAddCmd())
	cmd.AddCommand(a.newUserListCmd())
	return cmd
}

func (a *app) newUserAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <username>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *domain.Service) error {
				reg, err := svc.Register(ctx, args[0])
				if err != nil {
					return err
				}
				if reg.Taken {
					return fmt.Errorf("%s already taken", reg.User.Username)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", reg.User.Username, reg.User.ID)
				return nil
			})
		},
	}
}

func (a *app) newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users sorted by username",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *domain.Service) error {
				users, err := svc.ListUsers(ctx)
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "no users yet\n")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "ID\tUSERNAME\n")
				for _, u := range users {
					fmt.Fprintf(tw, "%s\t%s\n", u.ID, u.Username)
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) newExerciseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exercise",
		Short: "Exercise log management",
	}
	cmd.AddCommand(a.newExerciseAddCmd())
	return cmd
}

func (a *app) newExerciseAddCmd() *cobra.Command {
	var in domain.LogExerciseInput
	c := &cobra.Command{
		Use:   "add",
		Short: "Append an exercise to a user's log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *domain.Service) error {
				logged, err := svc.LogExercise(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged %q (%s min) on %s for %s\n",
					logged.Exercise.Description,
					strconv.FormatFloat(logged.Exercise.Duration, 'f', -1, 64),
					logged.Exercise.Date.Format(time.DateOnly),
					logged.User.Username,
				)
				return nil
			})
		},
	}
	c.Flags().StringVar(&in.UserID, "user", "", "user id")
	c.Flags().StringVar(&in.Description, "description", "", "what was done")
	c.Flags().StringVar(&in.Duration, "duration", "", "duration in minutes")
	c.Flags().StringVar(&in.Date, "date", "", "date (YYYY-MM-DD), defaults to now")
	_ = c.MarkFlagRequired("user")
	return c
}

func (a *app) newLogCmd() *cobra.Command {
	var (
		from, to string
		limit    int
		asJSON   bool
	)
	c := &cobra.Command{
		Use:   "log <user-id>",
		Short: "Print a user's exercise log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *domain.Service) error {
				q := domain.NewLogQuery(args[0], from, to, strconv.Itoa(limit))
				userLog, err := svc.QueryLog(ctx, q)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(toLogOutput(userLog))
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: %d exercise(s)\n", userLog.User.Username, userLog.Count())
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "DATE\tDURATION\tDESCRIPTION\n")
				for _, e := range userLog.Exercises {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Date.Format(time.DateOnly), strconv.FormatFloat(e.Duration, 'f', -1, 64), e.Description)
				}
				return tw.Flush()
			})
		},
	}
	c.Flags().StringVar(&from, "from", "", "earliest date to include (YYYY-MM-DD)")
	c.Flags().StringVar(&to, "to", "", "latest date to include (YYYY-MM-DD)")
	c.Flags().IntVar(&limit, "limit", 0, "maximum number of entries")
	c.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return c
}

type logOutput struct {
	Username      string           `json:"username"`
	ID            string           `json:"id"`
	Exercises     []exerciseOutput `json:"exercises"`
	ExerciseCount int              `json:"exerciseCount"`
}

type exerciseOutput struct {
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Date        time.Time `json:"date"`
}

func toLogOutput(l domain.Log) logOutput {
	out := logOutput{
		Username:      l.User.Username,
		ID:            l.User.ID,
		Exercises:     make([]exerciseOutput, 0, len(l.Exercises)),
		ExerciseCount: l.Count(),
	}
	for _, e := range l.Exercises {
		out.Exercises = append(out.Exercises, exerciseOutput{Description: e.Description, Duration: e.Duration, Date: e.Date})
	}
	return out
}

func (a *app) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config()
			cfg.AutoMigrate = false
			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			store, err := a.open(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := persistence.Migrate(ctx, store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", cfg.StoreDriver)
			return nil
		},
	}
}
