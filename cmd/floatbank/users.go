package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/floatbank/floatbank/internal/cliclient"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Short:   "Manage the users of a floatbank server (admin only)",
	GroupID: "remote",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *cliclient.Client) error {
			users, err := client.ListUsers(ctx)
			if err != nil {
				return err
			}
			return writeUsers(cmd.OutOrStdout(), users)
		})
	},
}

var usersStatusCmd = &cobra.Command{
	Use:     "status <id> <active|inactive>",
	Short:   "Activate or deactivate a user",
	Example: "  floatbank users status 3f0c... inactive",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[1] != "active" && args[1] != "inactive" {
			return fmt.Errorf("status must be active or inactive")
		}
		return withClient(cmd, func(ctx context.Context, client *cliclient.Client) error {
			user, err := client.SetUserStatus(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s is now %s\n", user.Email, user.Status)
			return nil
		})
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *cliclient.Client) error {
			if err := client.DeleteUser(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Deleted user %s\n", args[0])
			return nil
		})
	},
}

func init() {
	usersCmd.PersistentFlags().StringVarP(&remoteServer, "server", "s", "http://localhost:8460", "Server URL")
	usersCmd.PersistentFlags().StringVar(&remoteToken, "token", "", "Bearer token (defaults to FLOATBANK_TOKEN, then the keyring)")
	usersCmd.AddCommand(usersListCmd, usersStatusCmd, usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}

// withClient resolves the stored token and runs fn with an authenticated client
func withClient(cmd *cobra.Command, fn func(context.Context, *cliclient.Client) error) error {
	token, err := resolveToken()
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("not logged in; run 'floatbank login' or set FLOATBANK_TOKEN")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	return fn(ctx, cliclient.New(remoteServer, token))
}

func writeUsers(out io.Writer, users []cliclient.User) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tSTATUS\tADMIN")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Phone, u.Status, u.IsAdmin)
	}
	return w.Flush()
}
