package cart

import (
	"github.com/ValentinKolb/kvmarket/cmd/util"
	"github.com/ValentinKolb/kvmarket/lib/market"
	"github.com/spf13/cobra"
)

var (
	mkt *market.Marketplace

	// CartCommands represents the cart command group
	CartCommands = &cobra.Command{
		Use:   "cart",
		Short: "Fill your cart and check out",
		// "kvmarket cart" without subcommand shows the cart
		RunE: func(cmd *cobra.Command, args []string) error {
			return showCmd.RunE(cmd, args)
		},
	}
)

func init() {
	CartCommands.PersistentPreRunE, CartCommands.PersistentPostRunE = util.MarketplaceCommand(&mkt)

	// Add subcommands
	CartCommands.AddCommand(showCmd)
	CartCommands.AddCommand(addCmd)
	CartCommands.AddCommand(removeCmd)
	CartCommands.AddCommand(qtyCmd)
	CartCommands.AddCommand(clearCmd)
	CartCommands.AddCommand(checkoutCmd)
}
