package report

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/kvmarket/cmd/output"
	"github.com/spf13/cobra"
)

var (
	// PurchasesCmd lists the purchase history
	PurchasesCmd = &cobra.Command{
		Use:     "purchases",
		Aliases: []string{"orders"},
		Short:   "Lists your completed purchases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			purchases, err := mkt.Purchases()
			if err != nil {
				return err
			}
			if len(purchases) == 0 {
				output.Info("no purchases yet")
				return nil
			}
			output.Print(output.PurchaseTable(purchases))

			verbose, _ := cmd.Flags().GetBool("items")
			if verbose {
				for _, p := range purchases {
					output.Section(fmt.Sprintf("Purchase %s", p.ID))
					output.Print(output.CartTable(p.Lines, p.Total))
				}
			}
			return nil
		},
	}

	// DashboardCmd prints the summary of the logged in account
	DashboardCmd = &cobra.Command{
		Use:   "dashboard",
		Short: "Shows your profile, listings, purchases and cart at a glance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := mkt.Dashboard()
			if err != nil {
				return err
			}

			output.Section("Dashboard of " + d.Account.Username)
			output.Field("Email", d.Account.Email)
			output.Field("Member since", d.Account.JoinedDate.Local().Format("2006-01-02"))
			output.Field("Listings", strconv.Itoa(d.Listings))
			output.Field("Purchases", fmt.Sprintf("%d (%d items)", d.Purchases, d.ItemsBought))
			output.Field("Total spent", output.Price(d.TotalSpent))
			output.Field("Cart", fmt.Sprintf("%d items, %s", d.CartItems, output.Price(d.CartTotal)))

			if len(d.RecentListings) > 0 {
				output.Section("Recent listings")
				output.Print(output.ProductTable(d.RecentListings, false))
			}
			return nil
		},
	}

	// StatsCmd prints information about the underlying store
	StatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Shows statistics of the marketplace store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if prom, _ := cmd.Flags().GetBool("prometheus"); prom {
				mkt.WriteMetrics(output.Out)
				return nil
			}

			info, err := mkt.StoreInfo()
			if err != nil {
				return err
			}
			accounts, err := mkt.Sessions.Accounts()
			if err != nil {
				return err
			}
			products, err := mkt.Catalog.List()
			if err != nil {
				return err
			}

			output.Section("Store")
			output.Field("Engine", string(info.DbType))
			output.Field("Serializer", string(mkt.Codec().Name()))
			output.Field("Keys", strconv.Itoa(info.Keys))
			output.Field("Size", fmt.Sprintf("%d bytes", info.SizeBytes))

			output.Section("Marketplace")
			output.Field("Accounts", strconv.Itoa(len(accounts)))
			output.Field("Products", strconv.Itoa(len(products)))
			return nil
		},
	}
)
