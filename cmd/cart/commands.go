package cart

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/kvmarket/cmd/output"
	"github.com/ValentinKolb/kvmarket/cmd/util"
	"github.com/spf13/cobra"
)

var (
	showCmd = &cobra.Command{
		Use:   "show",
		Short: "Shows your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, total, err := mkt.Cart()
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				output.Info("your cart is empty")
				return nil
			}
			output.Print(output.CartTable(lines, total))
			return nil
		},
	}
	addCmd = &cobra.Command{
		Use:   "add [product-id]",
		Short: "Adds one unit of a product to your cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ResolveProductID(mkt, args[0])
			if err != nil {
				return err
			}
			if err := mkt.AddToCart(id); err != nil {
				return err
			}
			_, total, err := mkt.Cart()
			if err != nil {
				return err
			}
			output.Success("added to cart, total now %s", output.Price(total))
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [product-id]",
		Short: "Removes a product from your cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveLineID(args[0])
			if err != nil {
				return err
			}
			if err := mkt.RemoveFromCart(id); err != nil {
				return err
			}
			output.Success("removed from cart")
			return nil
		},
	}
	qtyCmd = &cobra.Command{
		Use:   "qty [product-id] [quantity]",
		Short: "Sets the quantity of a product in your cart (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveLineID(args[0])
			if err != nil {
				return err
			}
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a number: %w", err)
			}
			if err := mkt.UpdateQuantity(id, quantity); err != nil {
				return err
			}
			output.Success("quantity updated")
			return nil
		},
	}
	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Empties your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := mkt.ClearCart(); err != nil {
				return err
			}
			output.Success("cart cleared")
			return nil
		},
	}
	checkoutCmd = &cobra.Command{
		Use:   "checkout",
		Short: "Buys everything in your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			purchase, ok, err := mkt.Checkout()
			if err != nil {
				return err
			}
			if !ok {
				output.Warning("your cart is empty, nothing to check out")
				return nil
			}
			output.Success("purchase %s completed", purchase.ID)
			output.Print(output.CartTable(purchase.Lines, purchase.Total))
			return nil
		},
	}
)

// resolveLineID expands a (short) product id against the lines of the cart
func resolveLineID(ref string) (string, error) {
	lines, _, err := mkt.Cart()
	if err != nil {
		return "", err
	}
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.Product.ID
	}
	return util.ResolveID(ref, ids)
}
