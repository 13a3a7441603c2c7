package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeLinPlan/account-system/pkg/client"
)

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = prompt("Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt("Password: "); err != nil {
					return err
				}
			}

			identity, err := api.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s (role %s)\n", identity.Username, roleName(identity.Role))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username or email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			api.Logout(cmd.Context())
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			identity, err := api.Self(cmd.Context())
			if err != nil {
				return err
			}
			printIdentity(identity)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var username, password, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := api.Register(cmd.Context(), client.RegisterInput{
				Username: username,
				Password: password,
				Email:    email,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Registered %s; run `accountctl login` to sign in.\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "new account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "new account password (min 8 characters)")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newProfileCmd() *cobra.Command {
	var in client.UpdateSelfInput

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the current user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			identity, err := api.UpdateSelf(cmd.Context(), in)
			if err != nil {
				return err
			}
			printIdentity(identity)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "new username")
	cmd.Flags().StringVar(&in.DisplayName, "display-name", "", "new display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "new contact email")
	cmd.Flags().StringVar(&in.Password, "password", "", "new password (min 8 characters)")
	return cmd
}

func newAccessTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "access-token",
		Short: "Generate a fresh personal access token (replaces the old one)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			token, err := api.GenerateAccessToken(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func roleName(role int) string {
	switch {
	case role >= client.RoleRoot:
		return "root"
	case role >= client.RoleAdmin:
		return "admin"
	default:
		return "user"
	}
}

func printIdentity(id *client.Identity) {
	fmt.Printf("ID:           %s\n", id.ID)
	fmt.Printf("Username:     %s\n", id.Username)
	if id.DisplayName != "" {
		fmt.Printf("Display name: %s\n", id.DisplayName)
	}
	if id.Email != "" {
		fmt.Printf("Email:        %s\n", id.Email)
	}
	fmt.Printf("Role:         %s\n", roleName(id.Role))
}
