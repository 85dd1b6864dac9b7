package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvmarket/cmd/output"
	"github.com/ValentinKolb/kvmarket/lib/common"
	"github.com/ValentinKolb/kvmarket/lib/db"
	"github.com/ValentinKolb/kvmarket/lib/db/engines/maple"
	"github.com/ValentinKolb/kvmarket/lib/market"
	"github.com/ValentinKolb/kvmarket/lib/market/codec"
	"github.com/ValentinKolb/kvmarket/lib/store"
	"github.com/ValentinKolb/kvmarket/lib/store/fstore"
	"github.com/ValentinKolb/kvmarket/lib/store/lstore"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// DefaultDataFile is the snapshot file used when no data-file is configured
	DefaultDataFile = "kvmarket.db"
)

var log = logger.GetLogger("cmd")

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the storage and logging flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "backend"
	cmd.PersistentFlags().String(key, string(common.BackendFile), WrapString("Storage backend (file, memory). The memory backend forgets everything when the command exits"))

	key = "data-file"
	cmd.PersistentFlags().String(key, DefaultDataFile, WrapString("Path of the snapshot file used by the file backend"))

	key = "shards"
	cmd.PersistentFlags().Int(key, 0, WrapString("Number of shards of the in-memory engine (0 = number of CPUs)"))

	key = "serializer"
	cmd.PersistentFlags().String(key, string(common.SerializerJSON), WrapString("Encoding of the stored collections (json, gob)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("Log level (debug, info, warn, error)"))

	key = "metrics"
	cmd.PersistentFlags().Bool(key, false, WrapString("Print the operation metrics of this run in Prometheus text format when the command finishes"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("kvmarket")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetConfig reads the configuration from viper
func GetConfig() *common.Config {
	return &common.Config{
		Backend:    common.Backend(strings.ToLower(viper.GetString("backend"))),
		DataFile:   viper.GetString("data-file"),
		Shards:     viper.GetInt("shards"),
		Serializer: common.Serializer(strings.ToLower(viper.GetString("serializer"))),
		LogLevel:   viper.GetString("log-level"),
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// Setup binds the flags of cmd, validates the configuration and initializes the loggers
func Setup(cmd *cobra.Command) (*common.Config, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	conf := GetConfig()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if err := common.InitLoggers(conf.LogLevel); err != nil {
		return nil, err
	}
	log.Debugf("configuration:%s", conf.String())
	return conf, nil
}

// OpenStore creates the key-value store described by conf.
// Snapshot metrics of the file backend go to registry (nil = go-metrics default registry).
func OpenStore(conf *common.Config, registry gometrics.Registry) (store.IStore, error) {
	factory := func() db.KVDB {
		opts := maple.DefaultOptions()
		if conf.Shards > 0 {
			opts.NumShards = conf.Shards
		}
		return maple.NewMapleDB(opts)
	}

	switch conf.Backend {
	case common.BackendMemory:
		return lstore.NewLocalStore(factory), nil
	case common.BackendFile:
		return fstore.NewFileStore(factory, fstore.Options{
			Path:     conf.DataFile,
			Registry: registry,
		})
	default:
		return nil, fmt.Errorf("invalid backend %s", conf.Backend)
	}
}

// OpenMarketplace opens the store and wires a marketplace on top of it
func OpenMarketplace(conf *common.Config) (*market.Marketplace, error) {
	c, err := codec.New(conf.Serializer)
	if err != nil {
		return nil, err
	}
	kv, err := OpenStore(conf, nil)
	if err != nil {
		return nil, err
	}
	return market.New(kv, c), nil
}

// MarketplaceCommand returns the PersistentPreRunE and PersistentPostRunE hooks of a command group
// that works on a marketplace. The opened marketplace is stored in *target.
func MarketplaceCommand(target **market.Marketplace) (pre, post func(*cobra.Command, []string) error) {
	pre = func(cmd *cobra.Command, _ []string) error {
		conf, err := Setup(cmd)
		if err != nil {
			return err
		}
		m, err := OpenMarketplace(conf)
		if err != nil {
			return err
		}
		*target = m
		return nil
	}
	post = func(*cobra.Command, []string) error {
		if *target == nil {
			return nil
		}
		if viper.GetBool("metrics") {
			(*target).WriteMetrics(output.Out)
		}
		err := (*target).Close()
		*target = nil
		return err
	}
	return pre, post
}

// ResolveID finds the id in ids that equals ref or, failing that, the single id starting with ref.
// This lets commands accept the short ids shown in tables.
func ResolveID(ref string, ids []string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty id")
	}
	var matches []string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return ref, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// ResolveProductID expands a (short) product id against the catalog
func ResolveProductID(m *market.Marketplace, ref string) (string, error) {
	products, err := m.Catalog.List()
	if err != nil {
		return "", err
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ResolveID(ref, ids)
}
