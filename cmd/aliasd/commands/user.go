package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/internal/cli/output"
	"github.com/marmos91/aliasd/internal/cli/prompt"
	"github.com/marmos91/aliasd/internal/cli/timeutil"
	"github.com/marmos91/aliasd/pkg/config"
	"github.com/marmos91/aliasd/pkg/models"
	"github.com/marmos91/aliasd/pkg/users"
)

var (
	userDeleteForce bool
	userListOutput  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
	Long: `Manage the users that own aliases.

These commands open the configured database directly. An embedded badger
database can only be opened by one process, so stop the server first
when using it.

Examples:
  aliasd user add alice
  aliasd user list -o json
  aliasd user delete alice --force`,
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a new user (prompts for password)",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userDeleteCmd = &cobra.Command{
	Use:     "delete <username>",
	Aliases: []string{"remove", "rm"},
	Short:   "Delete a user and all of their aliases",
	Args:    cobra.ExactArgs(1),
	RunE:    runUserDelete,
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all users",
	Args:    cobra.NoArgs,
	RunE:    runUserList,
}

func init() {
	userDeleteCmd.Flags().BoolVarP(&userDeleteForce, "force", "f", false, "Skip confirmation")
	userListCmd.Flags().StringVarP(&userListOutput, "output", "o", "table", "Output format (table|json|yaml)")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userListCmd)
}

// withUsers loads the config, runs fn against a user service backed by a
// fresh actor, then drains the actor.
func withUsers(fn func(ctx context.Context, svc *users.Service) error) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	a, closeActor, err := openActor(ctx, cfg, nil)
	if err != nil {
		return err
	}

	runErr := fn(ctx, users.NewService(a, nil))
	if err := withTimeout(cfg.ShutdownTimeout, closeActor); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username := args[0]
	if err := models.ValidateUsername(username); err != nil {
		return err
	}

	password, err := prompt.NewPassword()
	if err != nil {
		if prompt.IsAborted(err) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
		return err
	}

	return withUsers(func(ctx context.Context, svc *users.Service) error {
		user, err := svc.Create(ctx, username, password)
		if err != nil {
			if errors.Is(err, models.ErrDuplicateUser) {
				return fmt.Errorf("user %q already exists", username)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "User %q created (ID: %d)\n", user.Username, user.ID)
		return nil
	})
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	username := args[0]

	confirmed, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Delete user '%s' and all of their aliases", username), userDeleteForce)
	if err != nil {
		if prompt.IsAborted(err) {
			confirmed = false
		} else {
			return err
		}
	}
	if !confirmed {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	return withUsers(func(ctx context.Context, svc *users.Service) error {
		if err := svc.Delete(ctx, username); err != nil {
			if errors.Is(err, models.ErrUserNotFound) {
				return fmt.Errorf("user %q not found", username)
			}
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "User %q deleted\n", username)
		return nil
	})
}

// userView is the printable form of a user; it never carries the hash.
type userView struct {
	ID        uint      `json:"id" yaml:"id"`
	Username  string    `json:"username" yaml:"username"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type userList []userView

func (l userList) Headers() []string {
	return []string{"ID", "Username", "Created"}
}

func (l userList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, u := range l {
		rows = append(rows, []string{fmt.Sprint(u.ID), u.Username, timeutil.FormatTime(u.CreatedAt)})
	}
	return rows
}

func toUserList(in []*models.User) userList {
	out := make(userList, 0, len(in))
	for _, u := range in {
		out = append(out, userView{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt})
	}
	return out
}

func runUserList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(userListOutput)
	if err != nil {
		return err
	}

	return withUsers(func(ctx context.Context, svc *users.Service) error {
		all, err := svc.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		return printUsers(cmd.OutOrStdout(), format, toUserList(all))
	})
}

func printUsers(w io.Writer, format output.Format, list userList) error {
	if format == output.FormatTable && len(list) == 0 {
		_, _ = fmt.Fprintln(w, "No users. Create one with 'aliasd user add <name>'.")
		return nil
	}
	return output.NewPrinter(w, format, false).Print(list)
}
