package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MikeLinPlan/account-system/pkg/client"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer user accounts (admin only)",
	}
	cmd.AddCommand(
		newUserListCmd(),
		newUserGetCmd(),
		newUserCreateCmd(),
		newUserUpdateCmd(),
		newUserDeleteCmd(),
	)
	return cmd
}

func newUserListCmd() *cobra.Command {
	var page, pageSize int
	var keyword string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List or search users",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			var (
				result *client.UserPage
				err    error
			)
			if keyword != "" {
				result, err = api.SearchUsers(cmd.Context(), keyword, page, pageSize)
			} else {
				result, err = api.ListUsers(cmd.Context(), page, pageSize)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tDISPLAY NAME\tEMAIL\tROLE\tSTATUS")
			for _, u := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					u.ID, u.Username, u.DisplayName, u.Email, roleName(u.Role), statusName(u.Status))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("Page %d of %d (%d users)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 10, "results per page")
	cmd.Flags().StringVar(&keyword, "keyword", "", "filter by username, display name or email")
	return cmd
}

func newUserGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			user, err := api.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printIdentity(user)
			return nil
		},
	}
}

func newUserCreateCmd() *cobra.Command {
	var in client.CreateUserInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			user, err := api.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "password (min 8 characters)")
	cmd.Flags().StringVar(&in.DisplayName, "display-name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "contact email")
	cmd.Flags().IntVar(&in.Role, "role", client.RoleCommon, "role tier (1 user, 10 admin)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserUpdateCmd() *cobra.Command {
	var in client.UpdateUserInput

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			in.ID = args[0]
			user, err := api.UpdateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			printIdentity(user)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "new username")
	cmd.Flags().StringVar(&in.DisplayName, "display-name", "", "new display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "new contact email")
	cmd.Flags().StringVar(&in.Password, "password", "", "new password")
	cmd.Flags().IntVar(&in.Role, "role", 0, "new role tier")
	cmd.Flags().IntVar(&in.Status, "status", 0, "new status (1 enabled, 2 disabled)")
	return cmd
}

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			if err := api.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}
}

func statusName(status int) string {
	switch status {
	case 1:
		return "enabled"
	case 2:
		return "disabled"
	default:
		return fmt.Sprintf("unknown(%d)", status)
	}
}
