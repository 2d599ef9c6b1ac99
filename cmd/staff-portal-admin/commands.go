package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/target/staff-portal/internal/domain/model"
	apperrors "github.com/target/staff-portal/internal/errors"
)

const defaultMigrationTimeout = 5 * time.Minute

func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:          "staff-portal-admin",
		Short:        "Operator tasks for the staff portal",
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(open),
		newCreateUserCmd(open),
		newListUsersCmd(open),
		newAssignRoleCmd(open),
		newGrantClaimCmd(open),
		newRevokeClaimCmd(open),
		newListClaimsCmd(open),
	)
	return root
}

// withEnv opens the environment for the duration of fn.
func withEnv(cmd *cobra.Command, open openFunc, fn func(env *environment) error) error {
	env, err := open(cmd.Context())
	if err != nil {
		return err
	}
	if env.Close != nil {
		defer env.Close()
	}
	return fn(env)
}

func newMigrateCmd(open openFunc) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or inspect schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			return withEnv(cmd, open, func(env *environment) error {
				ctx, cancel := contextWithTimeout(cmd, timeout)
				defer cancel()
				if err := env.Migrate(ctx, direction); err != nil {
					return fmt.Errorf("migrate %s: %w", direction, err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: ok\n", direction)
				return err
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "maximum time to wait for migrations")
	return cmd
}

func newCreateUserCmd(open openFunc) *cobra.Command {
	var (
		req           model.RegisterUserRequest
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register a user the same way the admin form does",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				pw, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Password = pw
			}
			if req.Password == "" {
				return errors.New("a password is required: pass --password or --password-stdin")
			}
			return withEnv(cmd, open, func(env *environment) error {
				user, err := env.Users.Register(cmd.Context(), req)
				if err != nil {
					return describe(err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Email, user.ID)
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Email, "email", "", "email address, also the user name")
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Password, "password", "", "initial password")
	f.BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	f.StringVar(&req.Role, "role", "", "role to assign (default User)")
	_ = cmd.MarkFlagRequired("email")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}

func newListUsersCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List registered users with their roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(env *environment) error {
				users, err := env.Users.List(cmd.Context())
				if err != nil {
					return err
				}
				return printUsers(cmd.OutOrStdout(), users)
			})
		},
	}
}

func printUsers(out io.Writer, users []model.UserWithRoles) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLES\tREGISTERED")
	for _, u := range users {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.Email, u.FullName(), strings.Join(u.Roles, ","), u.RegisteredAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func newAssignRoleCmd(open openFunc) *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "assign-role",
		Short: "Add a role to an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(env *environment) error {
				if err := env.Users.AssignRole(cmd.Context(), email, role); err != nil {
					return describe(err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "assigned %s to %s\n", role, email)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&role, "role", "", "role name, e.g. Admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newGrantClaimCmd(open openFunc) *cobra.Command {
	var email, claimType, value string
	cmd := &cobra.Command{
		Use:   "grant-claim",
		Short: "Store a claim on a user, replacing any existing value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(env *environment) error {
				if err := env.Claims.Grant(cmd.Context(), email, claimType, value); err != nil {
					return describe(err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", claimType, email)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&claimType, "type", "", "claim type, e.g. EmploymentStartDate")
	cmd.Flags().StringVar(&value, "value", "", "claim value")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newRevokeClaimCmd(open openFunc) *cobra.Command {
	var email, claimType string
	cmd := &cobra.Command{
		Use:   "revoke-claim",
		Short: "Remove a stored claim from a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(env *environment) error {
				if err := env.Claims.Revoke(cmd.Context(), email, claimType); err != nil {
					return describe(err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "revoked %s from %s\n", claimType, email)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&claimType, "type", "", "claim type")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newListClaimsCmd(open openFunc) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "list-claims",
		Short: "Show the stored claims of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(env *environment) error {
				claims, err := env.Claims.List(cmd.Context(), email)
				if err != nil {
					return describe(err)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "TYPE\tVALUE")
				for _, c := range claims {
					_, _ = fmt.Fprintf(tw, "%s\t%s\n", c.Type, c.Value)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// describe flattens field errors into the command error so the operator sees every problem.
func describe(err error) error {
	fields, ok := apperrors.AsFieldErrors(err)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(fields))
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		parts = append(parts, field+": "+fields[field])
	}
	return errors.New(strings.Join(parts, "; "))
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), d)
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
