package product

import (
	"fmt"

	"github.com/ValentinKolb/kvmarket/cmd/output"
	"github.com/ValentinKolb/kvmarket/cmd/util"
	"github.com/ValentinKolb/kvmarket/lib/market/catalog"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists the catalog, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := catalog.Query{}
			q.Search, _ = cmd.Flags().GetString("search")
			if raw, _ := cmd.Flags().GetString("category"); raw != "" {
				c, err := model.ParseCategory(raw)
				if err != nil {
					return err
				}
				q.Category = c
			}

			products, err := mkt.Products(q)
			if err != nil {
				return err
			}
			if len(products) == 0 {
				output.Info("no products found")
				return nil
			}
			wide, _ := cmd.Flags().GetBool("wide")
			output.Print(output.ProductTable(products, wide))
			return nil
		},
	}
	showCmd = &cobra.Command{
		Use:   "show [id]",
		Short: "Shows the details of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ResolveProductID(mkt, args[0])
			if err != nil {
				return err
			}
			p, err := mkt.Product(id)
			if err != nil {
				return err
			}
			printProduct(p)
			return nil
		},
	}
	addCmd = &cobra.Command{
		Use:   "add",
		Short: "Lists a new product for sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}
			p, err := mkt.CreateProduct(patch.Apply(model.Product{}))
			if err != nil {
				return err
			}
			output.Success("listed %q (%s)", p.Title, p.ID)
			return nil
		},
	}
	editCmd = &cobra.Command{
		Use:   "edit [id]",
		Short: "Changes one of your products (only the given flags are changed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ResolveProductID(mkt, args[0])
			if err != nil {
				return err
			}
			patch, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}
			if patch.Empty() {
				output.Warning("nothing to change")
				return nil
			}
			p, err := mkt.UpdateProduct(id, patch)
			if err != nil {
				return err
			}
			output.Success("updated %q", p.Title)
			printProduct(p)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Removes one of your products from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ResolveProductID(mkt, args[0])
			if err != nil {
				return err
			}
			if err := mkt.DeleteProduct(id); err != nil {
				return err
			}
			output.Success("deleted %s", id)
			return nil
		},
	}
	mineCmd = &cobra.Command{
		Use:   "mine",
		Short: "Lists your own products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := mkt.MyProducts()
			if err != nil {
				return err
			}
			if len(products) == 0 {
				output.Info("you have not listed any products yet")
				return nil
			}
			wide, _ := cmd.Flags().GetBool("wide")
			output.Print(output.ProductTable(products, wide))
			return nil
		},
	}
)

// patchFromFlags collects the changed product flags
func patchFromFlags(cmd *cobra.Command) (model.ProductPatch, error) {
	var patch model.ProductPatch
	flags := cmd.Flags()

	str := func(flag string, field **string) {
		if flags.Changed(flag) {
			v, _ := flags.GetString(flag)
			*field = &v
		}
	}
	str("title", &patch.Title)
	str("description", &patch.Description)
	str("image-url", &patch.ImageURL)

	if flags.Changed("category") {
		raw, _ := flags.GetString("category")
		c, err := model.ParseCategory(raw)
		if err != nil {
			return patch, err
		}
		patch.Category = &c
	}
	if flags.Changed("price") {
		raw, _ := flags.GetString("price")
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return patch, fmt.Errorf("invalid price %q: %w", raw, model.ErrInvalidInput)
		}
		patch.Price = &price
	}
	return patch, nil
}

func printProduct(p model.Product) {
	output.Section(p.Title)
	output.Field("Price", output.Price(p.Price))
	output.Field("Category", string(p.Category))
	output.Field("Seller", p.SellerUsername)
	if p.Description != "" {
		output.Field("Description", p.Description)
	}
	if p.ImageURL != "" {
		output.Field("Image", p.ImageURL)
	}
	output.Field("Listed", p.CreatedAt.Local().Format("2006-01-02 15:04"))
	if !p.UpdatedAt.Equal(p.CreatedAt) {
		output.Field("Updated", p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	output.Field("ID", p.ID)
}
