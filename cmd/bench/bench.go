package bench

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/kvmarket/cmd/output"
	"github.com/ValentinKolb/kvmarket/cmd/util"
	"github.com/ValentinKolb/kvmarket/lib/common"
	"github.com/ValentinKolb/kvmarket/lib/market"
	"github.com/ValentinKolb/kvmarket/lib/market/catalog"
	"github.com/ValentinKolb/kvmarket/lib/market/codec"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/ValentinKolb/kvmarket/lib/market/session"
	"github.com/ValentinKolb/kvmarket/lib/store/fstore"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// BenchCmd runs marketplace workloads against a scratch store
	BenchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Measures marketplace operations against a scratch store",
		Long: util.WrapString("Measures marketplace operations (register, list, browse, add to cart, checkout) " +
			"against a scratch store of the configured backend and serializer. " +
			"The file backend writes to a temporary file, your data file is never touched."),
		Args:    cobra.NoArgs,
		PreRunE: processBenchConfig,
		RunE:    run,
	}

	benchThreads    = 10
	benchProducts   = 100
	benchBcryptCost = 4
	benchSkip       = make([]string, 0)
	benchConf       *common.Config

	log = logger.GetLogger("cmd")
)

// workload names in execution order
var workloads = []string{"create-product", "register", "browse", "add-to-cart", "checkout", "mixed"}

func init() {
	key := "skip"
	BenchCmd.Flags().String(key, "", util.WrapString("Workloads to skip (comma separated - e.g. register,checkout)"))
	key = "threads"
	BenchCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per workload"))
	key = "products"
	BenchCmd.Flags().Int(key, 100, util.WrapString("Number of products listed before the workloads run"))
	key = "bcrypt-cost"
	BenchCmd.Flags().Int(key, 4, util.WrapString("bcrypt cost for the register workload (the real commands use 10)"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	conf, err := util.Setup(cmd)
	if err != nil {
		return err
	}
	benchConf = conf

	// Read the configuration from the command line flags and environment variables
	benchThreads = viper.GetInt("threads")
	benchProducts = viper.GetInt("products")
	benchBcryptCost = viper.GetInt("bcrypt-cost")
	benchSkip = strings.Split(viper.GetString("skip"), ",")

	if benchThreads < 1 || benchProducts < 1 {
		return fmt.Errorf("threads and products must be positive")
	}
	return nil
}

// result of one workload
type result struct {
	name  string
	bench testing.BenchmarkResult
	timer gometrics.Timer
}

func run(_ *cobra.Command, _ []string) error {
	registry := gometrics.NewRegistry()

	m, cleanup, err := openScratchMarketplace(registry)
	if err != nil {
		return err
	}
	defer cleanup()

	output.Section("kvmarket benchmark")
	output.Print(benchConf.String())
	output.Field("Threads", strconv.Itoa(benchThreads))
	output.Field("Products", strconv.Itoa(benchProducts))

	fixture, err := prepare(m)
	if err != nil {
		return fmt.Errorf("preparing fixture: %w", err)
	}

	output.Info("starting workloads...")

	var results []result
	for _, name := range workloads {
		if shouldSkip(name) {
			output.Muted("%-16s skipped", name)
			continue
		}
		timer := gometrics.GetOrRegisterTimer("bench."+name, registry)
		op := fixture.op(name)

		if err := fixture.before(name); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		var failures atomic.Int64
		res := testing.Benchmark(func(b *testing.B) {
			b.SetParallelism(benchThreads)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					start := time.Now()
					if err := op(); err != nil {
						failures.Add(1)
						log.Debugf("(%s) - %v", name, err)
					}
					timer.UpdateSince(start)
				}
			})
		})
		if n := failures.Load(); n > 0 {
			output.Warning("%s: %d operations failed (run with --log-level debug for details)", name, n)
		}

		results = append(results, result{name: name, bench: res, timer: timer})
		printResult(name, res, timer)
	}

	if snapshots, ok := registry.Get(fstore.MetricSnapshot).(gometrics.Timer); ok && snapshots.Count() > 0 {
		output.Section("Snapshots")
		output.Field("Count", strconv.FormatInt(snapshots.Count(), 10))
		output.Field("Mean", time.Duration(snapshots.Mean()).String())
		output.Field("p99", time.Duration(snapshots.Percentile(0.99)).String())
	}

	if viper.GetBool("metrics") {
		output.Section("Operation metrics")
		m.WriteMetrics(output.Out)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		output.Info("exporting results to CSV: %s", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		output.Success("export complete")
	}
	return nil
}

// openScratchMarketplace opens a marketplace on a fresh store of the configured backend.
// The returned cleanup closes it and removes temporary files.
func openScratchMarketplace(registry gometrics.Registry) (*market.Marketplace, func(), error) {
	c, err := codec.New(benchConf.Serializer)
	if err != nil {
		return nil, nil, err
	}

	conf := *benchConf
	tmpDir := ""
	if conf.Backend == common.BackendFile {
		tmpDir, err = os.MkdirTemp("", "kvmarket-bench-*")
		if err != nil {
			return nil, nil, err
		}
		conf.DataFile = filepath.Join(tmpDir, "bench.db")
	}

	kv, err := util.OpenStore(&conf, registry)
	if err != nil {
		if tmpDir != "" {
			_ = os.RemoveAll(tmpDir)
		}
		return nil, nil, err
	}

	m := market.New(kv, c, session.WithBcryptCost(benchBcryptCost))
	cleanup := func() {
		_ = m.Close()
		if tmpDir != "" {
			_ = os.RemoveAll(tmpDir)
		}
	}
	return m, cleanup, nil
}

// --------------------------------------------------------------------------
// Workloads
// --------------------------------------------------------------------------

const benchPassword = "bench-password"

type fixture struct {
	m        *market.Marketplace
	products []model.Product
	counter  atomic.Int64
}

// prepare registers a seller with benchProducts listings and a buyer
func prepare(m *market.Marketplace) (*fixture, error) {
	f := &fixture{m: m}

	if _, err := m.Register("seller@bench.local", benchPassword, "bench-seller"); err != nil {
		return nil, err
	}
	for i := 0; i < benchProducts; i++ {
		p, err := m.CreateProduct(model.ProductFields{
			Title:       fmt.Sprintf("Item %d", i),
			Description: fmt.Sprintf("benchmark item number %d", i),
			Category:    model.Categories[i%len(model.Categories)],
			Price:       decimal.NewFromInt(int64(i%50) + 1),
		})
		if err != nil {
			return nil, err
		}
		f.products = append(f.products, p)
	}
	if _, err := m.Register("buyer@bench.local", benchPassword, "bench-buyer"); err != nil {
		return nil, err
	}
	return f, nil
}

// before switches to the account a workload runs as
func (f *fixture) before(name string) error {
	email := "buyer@bench.local"
	if name == "create-product" {
		email = "seller@bench.local"
	}
	_, err := f.m.Login(email, benchPassword)
	return err
}

func (f *fixture) next() int {
	return int(f.counter.Add(1))
}

func (f *fixture) product(i int) model.Product {
	return f.products[i%len(f.products)]
}

// op returns the operation executed per benchmark iteration
func (f *fixture) op(name string) func() error {
	switch name {
	case "create-product":
		return func() error {
			i := f.next()
			_, err := f.m.CreateProduct(model.ProductFields{
				Title:    fmt.Sprintf("Extra %d", i),
				Category: model.CategoryOther,
				Price:    decimal.NewFromInt(1),
			})
			return err
		}
	case "register":
		return func() error {
			i := f.next()
			_, err := f.m.Register(fmt.Sprintf("user%d@bench.local", i), benchPassword, fmt.Sprintf("user%d", i))
			return err
		}
	case "browse":
		return func() error {
			i := f.next()
			_, err := f.m.Products(catalog.Query{
				Search:   strconv.Itoa(i % 10),
				Category: model.Categories[i%len(model.Categories)],
			})
			return err
		}
	case "add-to-cart":
		return func() error {
			return f.m.AddToCart(f.product(f.next()).ID)
		}
	case "checkout":
		return func() error {
			if err := f.m.AddToCart(f.product(f.next()).ID); err != nil {
				return err
			}
			_, _, err := f.m.Checkout()
			return err
		}
	default: // mixed
		return func() error {
			i := f.next()
			switch i % 4 {
			case 0:
				_, err := f.m.Products(catalog.Query{Search: "item"})
				return err
			case 1:
				return f.m.AddToCart(f.product(i).ID)
			case 2:
				return f.m.UpdateQuantity(f.product(i-1).ID, 3)
			default:
				_, _, err := f.m.Cart()
				return err
			}
		}
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range benchSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

func opsPerSec(res testing.BenchmarkResult) (nsPerOp, ops float64) {
	nsPerOp = math.Max(float64(res.NsPerOp()), 1) // prevent division by zero
	return nsPerOp, 1.0 / (nsPerOp / 1e9)
}

// printResult prints the result of a workload in a formatted way
func printResult(name string, res testing.BenchmarkResult, timer gometrics.Timer) {
	nsPerOp, ops := opsPerSec(res)
	output.Print(fmt.Sprintf("%-16s%10s/op %10.0f ops/sec   p50 %-10s p99 %s",
		name,
		time.Duration(nsPerOp),
		ops,
		time.Duration(timer.Percentile(0.5)),
		time.Duration(timer.Percentile(0.99)),
	))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []result) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{
		"Workload", "NsPerOp", "OpsPerSec", "P50Ns", "P99Ns", "Operations",
		"Backend", "Serializer", "Shards", "Threads", "Products",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		nsPerOp, ops := opsPerSec(r.bench)
		row := []string{
			r.name,
			fmt.Sprintf("%.0f", nsPerOp),
			fmt.Sprintf("%.0f", ops),
			fmt.Sprintf("%.0f", r.timer.Percentile(0.5)),
			fmt.Sprintf("%.0f", r.timer.Percentile(0.99)),
			strconv.FormatInt(r.timer.Count(), 10),
			string(benchConf.Backend),
			string(benchConf.Serializer),
			strconv.Itoa(benchConf.Shards),
			strconv.Itoa(benchThreads),
			strconv.Itoa(benchProducts),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for workload %s: %w", r.name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
