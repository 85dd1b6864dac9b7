package common

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		" error ": logger.ERROR,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := logOutput
	logOutput = &buf
	t.Cleanup(func() { logOutput = prev })

	l := CreateLogger("catalog")
	l.SetLevel(logger.INFO)
	l.Debugf("hidden %d", 1)
	l.Infof("created product %s", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO  | catalog  | created product abc")
}

func TestLoggerTimestampAndPanic(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevClock := logOutput, logClock
	logOutput = &buf
	logClock = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { logOutput, logClock = prevOut, prevClock })

	l := CreateLogger("fstore")
	l.Warningf("snapshot slow")
	assert.Equal(t, "2024/05/01 09:30:00 WARN  | fstore   | snapshot slow\n", buf.String())

	buf.Reset()
	l.SetLevel(logger.ERROR)
	assert.PanicsWithValue(t, "broken 7", func() { l.Panicf("broken %d", 7) })
	assert.Equal(t, "2024/05/01 09:30:00 CRIT  | fstore   | broken 7\n", buf.String())
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Backend: BackendFile, DataFile: "market.db", Serializer: SerializerJSON, LogLevel: "warn"}
	require.NoError(t, valid.Validate())

	mem := Config{Backend: BackendMemory, Serializer: SerializerGOB, LogLevel: "debug"}
	require.NoError(t, mem.Validate())

	noFile := valid
	noFile.DataFile = ""
	assert.Error(t, noFile.Validate())

	badBackend := valid
	badBackend.Backend = "redis"
	assert.Error(t, badBackend.Validate())

	badSerializer := valid
	badSerializer.Serializer = "xml"
	assert.Error(t, badSerializer.Validate())

	badLevel := valid
	badLevel.LogLevel = "loud"
	assert.Error(t, badLevel.Validate())
}

func TestConfigString(t *testing.T) {
	c := Config{Backend: BackendFile, DataFile: "/tmp/market.db", Serializer: SerializerJSON, LogLevel: "info"}
	s := c.String()

	assert.True(t, strings.Contains(s, "STORAGE"))
	assert.Contains(t, s, "/tmp/market.db")
	assert.Contains(t, s, "auto")
	assert.Contains(t, s, "LOGGING")

	c.Backend = BackendMemory
	assert.NotContains(t, c.String(), "Data File")
}
