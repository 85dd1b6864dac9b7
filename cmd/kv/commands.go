package kv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvmarket/cmd/output"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, ok, err := kvStore.Get(key)
			if err != nil {
				return err
			}
			if !ok {
				output.Info("key=%s, found=false", key)
				return nil
			}

			// json values are indented, everything else is printed as is
			var pretty bytes.Buffer
			if json.Indent(&pretty, value, "", "  ") == nil {
				output.Print(pretty.String())
			} else {
				output.Print(fmt.Sprintf("%q", value))
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := kvStore.Delete(key); err != nil {
				return err
			}
			output.Success("deleted %s", key)
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			found, err := kvStore.Has(key)
			if err != nil {
				return err
			}
			output.Info("key=%s, found=%t", key, found)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := kvStore.GetDBInfo()
			if err != nil {
				return err
			}
			features := make([]string, len(info.SupportedFeatures))
			for i, f := range info.SupportedFeatures {
				features[i] = f.String()
			}

			output.Section("Database")
			output.Field("Type", string(info.DbType))
			output.Field("Keys", fmt.Sprintf("%d", info.Keys))
			output.Field("Size", fmt.Sprintf("%d bytes", info.SizeBytes))
			output.Field("Features", strings.Join(features, ", "))
			if meta, err := json.Marshal(info.Metadata); err == nil {
				output.Field("Metadata", string(meta))
			}
			return nil
		},
	}
)
