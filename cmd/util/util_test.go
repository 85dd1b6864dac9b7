package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/kvmarket/cmd/output"
	"github.com/ValentinKolb/kvmarket/lib/common"
	"github.com/ValentinKolb/kvmarket/lib/market"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}

func TestResolveID(t *testing.T) {
	ids := []string{"3f2a9c1e-aaaa", "3f2b0000-bbbb", "77aa0000-cccc"}

	id, err := ResolveID("77", ids)
	require.NoError(t, err)
	assert.Equal(t, "77aa0000-cccc", id)

	id, err = ResolveID("3f2b0000-bbbb", ids)
	require.NoError(t, err)
	assert.Equal(t, "3f2b0000-bbbb", id)

	_, err = ResolveID("3f2", ids)
	assert.Error(t, err, "ambiguous prefix")

	id, err = ResolveID("unknown", ids)
	require.NoError(t, err)
	assert.Equal(t, "unknown", id, "unknown ids are passed through so the store reports not found")

	_, err = ResolveID(" ", ids)
	assert.Error(t, err)
}

func TestOpenStoreMemory(t *testing.T) {
	conf := &common.Config{Backend: common.BackendMemory, Serializer: common.SerializerJSON, LogLevel: "warn"}
	kv, err := OpenStore(conf, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	require.NoError(t, kv.Set("k", []byte("v")))
	v, ok, err := kv.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestOpenMarketplaceFile(t *testing.T) {
	conf := &common.Config{
		Backend:    common.BackendFile,
		DataFile:   t.TempDir() + "/market.db",
		Shards:     2,
		Serializer: common.SerializerGOB,
		LogLevel:   "warn",
	}
	m, err := OpenMarketplace(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	assert.Equal(t, common.SerializerGOB, m.Codec().Name())
	info, err := m.StoreInfo()
	require.NoError(t, err)
	assert.Equal(t, 0, info.Keys)
}

// runMarketplaceCommand opens a memory marketplace through the command hooks,
// registers one account and returns everything printed.
func runMarketplaceCommand(t *testing.T, args ...string) string {
	t.Helper()

	var buf bytes.Buffer
	prev := output.Out
	output.Out = &buf
	t.Cleanup(func() {
		output.Out = prev
		viper.Reset()
	})

	cmd := &cobra.Command{Use: "test"}
	SetupStoreFlags(cmd)
	require.NoError(t, cmd.ParseFlags(append([]string{"--backend", "memory"}, args...)))

	var m *market.Marketplace
	pre, post := MarketplaceCommand(&m)
	require.NoError(t, pre(cmd, nil))
	require.NotNil(t, m)

	_, err := m.Register("ada@example.com", "secret1", "ada")
	require.NoError(t, err)

	require.NoError(t, post(cmd, nil))
	assert.Nil(t, m, "post hook releases the marketplace")
	return buf.String()
}

func TestMarketplaceCommand_MetricsFlag(t *testing.T) {
	out := runMarketplaceCommand(t, "--metrics")
	assert.Contains(t, out, `kvmarket_operations_total{op="register"} 1`)
	assert.Contains(t, out, `kvmarket_operation_duration_seconds_count{op="register"} 1`)
	assert.Contains(t, out, "kvmarket_accounts 1")
}

func TestMarketplaceCommand_NoMetricsByDefault(t *testing.T) {
	out := runMarketplaceCommand(t)
	assert.Empty(t, out)
}
