package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Backend and serializer names
// --------------------------------------------------------------------------

type Backend string

const (
	BackendFile   Backend = "file"   // durable snapshot file (fstore)
	BackendMemory Backend = "memory" // process-local, lost on exit (lstore)
)

type Serializer string

const (
	SerializerJSON Serializer = "json"
	SerializerGOB  Serializer = "gob"
)

// --------------------------------------------------------------------------
// Marketplace configuration struct
// --------------------------------------------------------------------------

// Config holds all configuration parameters needed to open a marketplace.
type Config struct {
	// Storage backend and its location
	Backend  Backend
	DataFile string
	Shards   int

	// Encoding of the stored collections
	Serializer Serializer

	// Logging configuration
	LogLevel string
}

// Validate checks that all enumerated settings hold a known value
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("backend %q requires a data file", c.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid backend: %q. must be one of %s, %s", c.Backend, BackendFile, BackendMemory)
	}

	switch c.Serializer {
	case SerializerJSON, SerializerGOB:
	default:
		return fmt.Errorf("invalid serializer: %q. must be one of %s, %s", c.Serializer, SerializerJSON, SerializerGOB)
	}

	if c.Shards < 0 {
		return fmt.Errorf("invalid shard count: %d", c.Shards)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Storage")
	addField("Backend", string(c.Backend))
	if c.Backend == BackendFile {
		addField("Data File", c.DataFile)
	}
	if c.Shards == 0 {
		addField("Shards", "auto")
	} else {
		addField("Shards", fmt.Sprintf("%d", c.Shards))
	}
	addField("Serializer", string(c.Serializer))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
