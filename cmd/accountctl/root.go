package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeLinPlan/account-system/pkg/client"
)

var (
	serverURL string
	api       *client.Client
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "accountctl",
		Short:         "Manage accounts and API tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			snap, err := sessionSnapshot(serverURL)
			if err != nil {
				return err
			}
			api, err = client.NewClient(serverURL,
				client.WithSnapshot(snap),
				client.WithAuthorizationLostHandler(func() {
					fmt.Fprintln(os.Stderr, "Session expired; run `accountctl login` to sign in again.")
				}),
			)
			if err != nil {
				return err
			}
			api.Hydrate(cmd.Context())
			return nil
		},
	}

	root.PersistentFlags().StringVar(&serverURL, "server",
		envOr("ACCOUNTCTL_SERVER", "http://localhost:8080"),
		"base URL of the account API")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newRegisterCmd(),
		newProfileCmd(),
		newAccessTokenCmd(),
		newUserCmd(),
		newTokenCmd(),
	)
	return root
}

// sessionSnapshot stores the session under the user config dir, one file per
// server host so sessions against different deployments do not clobber each
// other.
func sessionSnapshot(server string) (client.Snapshot, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", server)
	}
	name := strings.ReplaceAll(u.Host, ":", "_") + ".json"
	return client.NewFileSnapshot(filepath.Join(dir, "accountctl", "sessions", name)), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireSession() error {
	if !api.Session().IsAuthenticated() {
		return fmt.Errorf("not logged in; run `accountctl login` first")
	}
	return nil
}
