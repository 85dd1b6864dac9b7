package product

import (
	"strings"

	"github.com/ValentinKolb/kvmarket/cmd/util"
	"github.com/ValentinKolb/kvmarket/lib/market"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/spf13/cobra"
)

var (
	mkt *market.Marketplace

	// ProductCommands represents the product command group
	ProductCommands = &cobra.Command{
		Use:     "product",
		Aliases: []string{"products", "p"},
		Short:   "Browse the catalog and manage your listings",
	}
)

func categoryNames() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func init() {
	categoryHelp := "Category (" + categoryNames() + ")"

	ProductCommands.PersistentPreRunE, ProductCommands.PersistentPostRunE = util.MarketplaceCommand(&mkt)

	// list flags
	listCmd.Flags().String("search", "", util.WrapString("Only products whose title or description contains this text"))
	listCmd.Flags().String("category", "", util.WrapString(categoryHelp))
	listCmd.Flags().Bool("wide", false, util.WrapString("Show full product ids"))
	mineCmd.Flags().Bool("wide", false, util.WrapString("Show full product ids"))

	// add / edit flags
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().String("title", "", util.WrapString("Title"))
		c.Flags().String("description", "", util.WrapString("Description"))
		c.Flags().String("category", "", util.WrapString(categoryHelp))
		c.Flags().String("price", "", util.WrapString("Price, e.g. 19.99"))
		c.Flags().String("image-url", "", util.WrapString("Image URL (stored as given, no upload)"))
	}
	_ = addCmd.MarkFlagRequired("title")
	_ = addCmd.MarkFlagRequired("category")
	_ = addCmd.MarkFlagRequired("price")

	// Add subcommands
	ProductCommands.AddCommand(listCmd)
	ProductCommands.AddCommand(showCmd)
	ProductCommands.AddCommand(addCmd)
	ProductCommands.AddCommand(editCmd)
	ProductCommands.AddCommand(deleteCmd)
	ProductCommands.AddCommand(mineCmd)
	ProductCommands.AddCommand(importCmd)
}
