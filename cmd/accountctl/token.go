package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MikeLinPlan/account-system/pkg/client"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage your API tokens",
	}
	cmd.AddCommand(
		newTokenListCmd(),
		newTokenCreateCmd(),
		newTokenUpdateCmd(),
		newTokenDeleteCmd(),
	)
	return cmd
}

func newTokenListCmd() *cobra.Command {
	var page, pageSize int
	var keyword string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List or search your API tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			var (
				result *client.TokenPage
				err    error
			)
			if keyword != "" {
				result, err = api.SearchTokens(cmd.Context(), keyword, page, pageSize)
			} else {
				result, err = api.ListTokens(cmd.Context(), page, pageSize)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tQUOTA\tEXPIRES")
			for _, tok := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					tok.ID, tok.Name, tokenStatusName(tok.Status), quotaLabel(tok),
					tok.ExpiredTime.Format("2006-01-02"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("Page %d of %d (%d tokens)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 10, "results per page")
	cmd.Flags().StringVar(&keyword, "keyword", "", "filter by token name")
	return cmd
}

func newTokenCreateCmd() *cobra.Command {
	var in client.CreateTokenInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			tok, err := api.CreateToken(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Created token %s\nKey: %s\n", tok.Name, tok.Key)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "token name")
	cmd.Flags().Int64Var(&in.RemainQuota, "quota", 0, "usage quota")
	cmd.Flags().BoolVar(&in.UnlimitedQuota, "unlimited", false, "ignore the quota entirely")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTokenUpdateCmd() *cobra.Command {
	var in client.UpdateTokenInput
	var quota int64
	var unlimited bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			in.ID = args[0]
			// Quota fields are sent only when their flag was given, so a
			// status or name edit leaves the quota as it is.
			if cmd.Flags().Changed("quota") {
				in.RemainQuota = &quota
			}
			if cmd.Flags().Changed("unlimited") {
				in.UnlimitedQuota = &unlimited
			}
			tok, err := api.UpdateToken(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Updated token %s (%s)\n", tok.Name, tokenStatusName(tok.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "new token name")
	cmd.Flags().IntVar(&in.Status, "status", 0, "new status (1 enabled, 2 disabled)")
	cmd.Flags().Int64Var(&quota, "quota", 0, "new usage quota")
	cmd.Flags().BoolVar(&unlimited, "unlimited", false, "ignore the quota entirely")
	return cmd
}

func newTokenDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			if err := api.DeleteToken(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}
}

func tokenStatusName(status int) string {
	switch status {
	case 1:
		return "enabled"
	case 2:
		return "disabled"
	case 3:
		return "expired"
	case 4:
		return "exhausted"
	default:
		return fmt.Sprintf("unknown(%d)", status)
	}
}

func quotaLabel(tok client.APIToken) string {
	if tok.UnlimitedQuota {
		return "unlimited"
	}
	return fmt.Sprintf("%d", tok.RemainQuota)
}
