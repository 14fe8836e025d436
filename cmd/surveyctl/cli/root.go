// Package cli defines the Cobra commands of the surveyctl operator tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/surveyhub/surveyhub/internal/auth"
	"github.com/surveyhub/surveyhub/internal/profiles"
)

// Users creates and finds accounts.
type Users interface {
	CreateConfirmedUser(ctx context.Context, email, password string, role profiles.Role) (*auth.User, error)
	FindUser(ctx context.Context, email string) (*auth.User, error)
}

// Profiles lists and updates roles.
type Profiles interface {
	List(ctx context.Context) ([]profiles.Profile, error)
	Grant(ctx context.Context, userID string, role profiles.Role) error
}

// QueueInspector reads queue counters.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Deps are the backends a command talks to.
type Deps struct {
	Users    Users
	Profiles Profiles
	Migrate  func(ctx context.Context) error
	Queue    QueueInspector
}

// Loader opens Deps on first use so help output never needs a database.
type Loader func(ctx context.Context) (*Deps, error)

// PasswordReader prompts for a secret.
type PasswordReader func(prompt string) (string, error)

var errNotConfigured = errors.New("surveyctl: backend not configured")

type app struct {
	load     Loader
	deps     *Deps
	password PasswordReader
}

func (a *app) open(cmd *cobra.Command) (*Deps, error) {
	if a.deps != nil {
		return a.deps, nil
	}
	deps, err := a.load(cmd.Context())
	if err != nil {
		return nil, err
	}
	a.deps = deps
	return deps, nil
}

// NewRootCommand builds the surveyctl command tree.
func NewRootCommand(load Loader, password PasswordReader) *cobra.Command {
	a := &app{load: load, password: password}
	root := &cobra.Command{
		Use:   "surveyctl",
		Short: "Operate a SurveyHub installation",
		Long: `surveyctl applies the database schema, manages accounts and roles,
and reports on the background job queues.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(
		newMigrateCommand(a),
		newCreateUserCommand(a),
		newGrantRoleCommand(a),
		newProfilesCommand(a),
		newQueueCommand(a),
	)
	return root
}

// Execute runs the command tree with args and output writers.
func Execute(ctx context.Context, root *cobra.Command, args []string, stdout, stderr io.Writer) error {
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.open(cmd)
			if err != nil {
				return err
			}
			if deps.Migrate == nil {
				return errNotConfigured
			}
			if err := deps.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
