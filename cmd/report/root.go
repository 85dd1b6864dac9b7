package report

import (
	"github.com/ValentinKolb/kvmarket/cmd/util"
	"github.com/ValentinKolb/kvmarket/lib/market"
	"github.com/spf13/cobra"
)

var mkt *market.Marketplace

// Commands returns the top level report commands (purchases, dashboard, stats)
func Commands() []*cobra.Command {
	return []*cobra.Command{PurchasesCmd, DashboardCmd, StatsCmd}
}

func init() {
	for _, c := range Commands() {
		c.PersistentPreRunE, c.PersistentPostRunE = util.MarketplaceCommand(&mkt)
	}

	PurchasesCmd.Flags().Bool("items", false, util.WrapString("Also list the items of every purchase"))
	StatsCmd.Flags().Bool("prometheus", false, util.WrapString("Print the store gauges in Prometheus text format instead of a summary"))
}
