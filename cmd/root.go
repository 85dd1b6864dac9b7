package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kvmarket/cmd/account"
	"github.com/ValentinKolb/kvmarket/cmd/bench"
	"github.com/ValentinKolb/kvmarket/cmd/cart"
	"github.com/ValentinKolb/kvmarket/cmd/kv"
	"github.com/ValentinKolb/kvmarket/cmd/output"
	"github.com/ValentinKolb/kvmarket/cmd/product"
	"github.com/ValentinKolb/kvmarket/cmd/report"
	"github.com/ValentinKolb/kvmarket/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvmarket",
		Short: "marketplace on a persistent key-value store",
		Long: fmt.Sprintf(`kvmarket (v%s)

A small marketplace (accounts, product listings, carts and checkout)
whose whole state lives in a persistent key-value store.
The logged-in account is remembered between invocations.`, Version),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvmarket",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvmarket v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(account.AccountCommands)
	RootCmd.AddCommand(product.ProductCommands)
	RootCmd.AddCommand(cart.CartCommands)
	RootCmd.AddCommand(report.Commands()...)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupStoreFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		output.Error("%v", err)
		os.Exit(1)
	}
}
