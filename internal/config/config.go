package config

import (
	"fmt"
	"os"

	"read-lines/internal/filesystem"
)

// DefaultServeMaxFileSizeMB caps file size in serve mode when no limit is given.
// A single CLI read has no cap unless one is set.
const DefaultServeMaxFileSizeMB = 100

// Transports accepted by Serve.
const (
	TransportNone  = ""
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all configurable values for a run.
type Config struct {
	// Serve selects serve mode: "" runs a single CLI read, "stdio" or "http" start a server.
	Serve string
	// RootDirectory confines paths in serve mode. Unused for a CLI read.
	RootDirectory string
	// Port is the HTTP listen port.
	Port int

	// MaxFileSizeMB refuses larger files. Zero means no limit and is only valid for a CLI read.
	MaxFileSizeMB  int
	Encoding       string
	LockEnabled    bool
	LockTimeoutSec int

	// Strict makes expected outcomes (not found, range exceeded) exit non-zero.
	Strict  bool
	Verbose bool
}

// Default returns the configuration used when no flags are given.
func Default() *Config {
	return &Config{
		Serve:          TransportNone,
		Port:           8080,
		Encoding:       filesystem.DefaultEncoding,
		LockEnabled:    true,
		LockTimeoutSec: 5,
	}
}

// ApplyServeDefaults fills in serve mode values left unset on the command line.
func (c *Config) ApplyServeDefaults() {
	if c.Serve != TransportNone && c.MaxFileSizeMB == 0 {
		c.MaxFileSizeMB = DefaultServeMaxFileSizeMB
	}
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	switch c.Serve {
	case TransportNone, TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("serve must be 'stdio' or 'http'")
	}

	if c.Serve != TransportNone {
		if c.RootDirectory == "" {
			return fmt.Errorf("root directory is required in serve mode")
		}
		info, err := os.Stat(c.RootDirectory)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("root directory does not exist: %s", c.RootDirectory)
			}
			return fmt.Errorf("error accessing root directory: %v", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("root directory is not a directory: %s", c.RootDirectory)
		}
	}

	if c.Serve == TransportHTTP && (c.Port < 1024 || c.Port > 65535) {
		return fmt.Errorf("port must be between 1024 and 65535")
	}

	if c.Serve == TransportNone {
		if c.MaxFileSizeMB < 0 {
			return fmt.Errorf("max file size must be 0 (no limit) or a positive number of MB")
		}
	} else if c.MaxFileSizeMB < 1 || c.MaxFileSizeMB > 1024 {
		return fmt.Errorf("max file size must be between 1 and 1024 MB in serve mode")
	}

	if c.LockTimeoutSec < 1 || c.LockTimeoutSec > 300 {
		return fmt.Errorf("lock timeout must be between 1 and 300 seconds")
	}

	if !filesystem.IsNativeEncoding(c.Encoding) {
		if _, err := filesystem.LookupEncoding(c.Encoding); err != nil {
			return fmt.Errorf("encoding %q is not supported", c.Encoding)
		}
	}

	return nil
}
