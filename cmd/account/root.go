package account

import (
	"github.com/ValentinKolb/kvmarket/cmd/util"
	"github.com/ValentinKolb/kvmarket/lib/market"
	"github.com/spf13/cobra"
)

var (
	mkt *market.Marketplace

	// AccountCommands represents the account command group
	AccountCommands = &cobra.Command{
		Use:     "account",
		Aliases: []string{"acc"},
		Short:   "Register, log in and manage your profile",
	}
)

func init() {
	AccountCommands.PersistentPreRunE, AccountCommands.PersistentPostRunE = util.MarketplaceCommand(&mkt)

	// register flags
	registerCmd.Flags().String("password", "", util.WrapString("Password (at least 6 characters). Read from KVMARKET_PASSWORD if not set"))
	loginCmd.Flags().String("password", "", util.WrapString("Password. Read from KVMARKET_PASSWORD if not set"))

	// profile flags
	for _, key := range []string{"username", "first-name", "last-name", "phone", "address"} {
		profileCmd.Flags().String(key, "", util.WrapString("New "+key))
	}

	// Add subcommands
	AccountCommands.AddCommand(registerCmd)
	AccountCommands.AddCommand(loginCmd)
	AccountCommands.AddCommand(logoutCmd)
	AccountCommands.AddCommand(whoamiCmd)
	AccountCommands.AddCommand(profileCmd)
	AccountCommands.AddCommand(listCmd)
}
