package main

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for reviewsku.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviewsku",
		Short: "Group product reviews by purchased variant",
		Long: heredoc.Doc(`
			reviewsku attributes product reviews to the variant (SKU) the reviewer bought.

			Review platforms only export the reviewed product and the order number.
			reviewsku looks every order up in the Shopify Admin API, picks the line
			item of the reviewed product and groups the review ids by its SKU.

			Credentials are read from the SHOP_NAME and API_KEY environment variables.
		`),
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", "text", "Log output format (text|json)")

	cmd.AddCommand(NewGroupCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
