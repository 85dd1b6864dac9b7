package kv

import (
	"github.com/ValentinKolb/kvmarket/cmd/util"
	"github.com/ValentinKolb/kvmarket/lib/store"
	"github.com/spf13/cobra"
)

var (
	kvStore store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Inspect the raw key-value store",
		Long:               "Inspect the raw key-value store. Keys: accounts, session, products, cart:<account-id>, purchases:<account-id>",
		PersistentPreRunE:  openStore,
		PersistentPostRunE: closeStore,
	}
)

func init() {
	// Add subcommands
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(infoCmd)
}

// openStore opens the configured store without the marketplace on top
func openStore(cmd *cobra.Command, _ []string) error {
	conf, err := util.Setup(cmd)
	if err != nil {
		return err
	}
	kvStore, err = util.OpenStore(conf, nil)
	return err
}

func closeStore(*cobra.Command, []string) error {
	if kvStore == nil {
		return nil
	}
	return kvStore.Close()
}
