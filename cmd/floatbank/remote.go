package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/floatbank/floatbank/internal/cliclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	remoteServer string
	remoteToken  string

	loginEmail    string
	loginPassword string
	loginPrint    bool

	activityCategory string
	activityFrom     string
	activityTo       string
	activityOutput   string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to a floatbank server",
	Long: `Log in to a floatbank server and store the bearer token in the OS keyring.

The password is prompted for when --password is not given.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the stored token and forget it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := resolveToken()
		if err != nil {
			return err
		}
		if token != "" {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := cliclient.New(remoteServer, token).Logout(ctx); err != nil && !cliclient.IsUnauthorized(err) {
				return err
			}
		}
		if err := cliclient.DeleteToken(remoteServer); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Logged out of %s\n", remoteServer)
		return nil
	},
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the activity log of a floatbank server (admin only)",
	Example: `  floatbank activity
  floatbank activity --category Auth
  floatbank activity --from 2024-01-01 --to 2024-01-31 -o yaml`,
	Args: cobra.NoArgs,
	RunE: runActivity,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, logoutCmd, activityCmd} {
		c.Flags().StringVarP(&remoteServer, "server", "s", "http://localhost:8460", "Server URL")
		c.GroupID = "remote"
		rootCmd.AddCommand(c)
	}

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Login email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when empty)")
	loginCmd.Flags().BoolVar(&loginPrint, "print", false, "Print the token instead of storing it")
	loginCmd.MarkFlagRequired("email")

	for _, c := range []*cobra.Command{logoutCmd, activityCmd} {
		c.Flags().StringVar(&remoteToken, "token", "", "Bearer token (defaults to FLOATBANK_TOKEN, then the keyring)")
	}
	activityCmd.Flags().StringVarP(&activityCategory, "category", "c", "", "Only show one log category, e.g. Auth or User")
	activityCmd.Flags().StringVar(&activityFrom, "from", "", "First day to show (YYYY-MM-DD)")
	activityCmd.Flags().StringVar(&activityTo, "to", "", "Last day to show (YYYY-MM-DD)")
	activityCmd.Flags().StringVarP(&activityOutput, "output", "o", "table", "Output format: table, json, yaml")
}

func runLogin(cmd *cobra.Command, args []string) error {
	if !strings.HasPrefix(remoteServer, "http://") && !strings.HasPrefix(remoteServer, "https://") {
		return fmt.Errorf("server URL must start with http:// or https://")
	}

	password := loginPassword
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		password = string(passBytes)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	resp, err := cliclient.NewWithoutAuth(remoteServer).Login(ctx, loginEmail, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if loginPrint {
		fmt.Fprintln(cmd.OutOrStdout(), resp.AccessToken)
		return nil
	}
	if err := cliclient.SaveToken(remoteServer, resp.AccessToken); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Logged in to %s as %s\n", remoteServer, resp.User.Email)
	return nil
}

func runActivity(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, client *cliclient.Client) error {
		logs, err := fetchActivities(ctx, client)
		if err != nil {
			return err
		}
		return writeActivities(cmd.OutOrStdout(), activityOutput, logs)
	})
}

func fetchActivities(ctx context.Context, client *cliclient.Client) ([]cliclient.Activity, error) {
	switch {
	case activityFrom != "" || activityTo != "":
		start, err := time.Parse(time.DateOnly, activityFrom)
		if err != nil {
			return nil, fmt.Errorf("--from must be YYYY-MM-DD")
		}
		end, err := time.Parse(time.DateOnly, activityTo)
		if err != nil {
			return nil, fmt.Errorf("--to must be YYYY-MM-DD")
		}
		return client.ActivityLogsBetween(ctx, start, end)
	case activityCategory != "":
		return client.ActivityLogsByCategory(ctx, activityCategory)
	default:
		return client.ListActivityLogs(ctx)
	}
}

// resolveToken prefers --token, then FLOATBANK_TOKEN, then the keyring
func resolveToken() (string, error) {
	if remoteToken != "" {
		return remoteToken, nil
	}
	if token := os.Getenv("FLOATBANK_TOKEN"); token != "" {
		return token, nil
	}
	return cliclient.LoadToken(remoteServer)
}

func writeActivities(out io.Writer, format string, logs []cliclient.Activity) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(logs)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(activityDocs(logs))
	case "table", "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTIME\tCATEGORY\tDESCRIPTION\tCAUSER")
		for _, l := range logs {
			causer := "-"
			if l.Causer != nil {
				causer = l.Causer.Email
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				l.ID, l.CreatedAt.Format(time.RFC3339), l.LogName, l.Description, causer)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q (supported: table, json, yaml)", format)
	}
}

type activityDoc struct {
	ID          uint           `yaml:"id"`
	LogName     string         `yaml:"log_name"`
	Description string         `yaml:"description"`
	Causer      string         `yaml:"causer,omitempty"`
	Properties  map[string]any `yaml:"properties,omitempty"`
	CreatedAt   string         `yaml:"created_at"`
}

func activityDocs(logs []cliclient.Activity) []activityDoc {
	docs := make([]activityDoc, len(logs))
	for i, l := range logs {
		docs[i] = activityDoc{
			ID:          l.ID,
			LogName:     l.LogName,
			Description: l.Description,
			Properties:  l.Properties,
			CreatedAt:   l.CreatedAt.Format(time.RFC3339),
		}
		if l.Causer != nil {
			docs[i].Causer = l.Causer.Email
		}
	}
	return docs
}
