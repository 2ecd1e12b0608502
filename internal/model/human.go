// human readable and writable stdlib types
// used in the config file and in operator output
package model

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// Bytes formats a byte count with a binary unit, e.g. 12.3 MiB.
type Bytes uint64

func (b Bytes) String() string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", uint64(b))
	}
	div, exp := uint64(unit), 0
	for n := uint64(b) / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// TCPAddr resolves the metrics listen address. Environment variables are
// expanded, so addr: ${METRICS_ADDR} works.
func (m Metrics) TCPAddr() (*net.TCPAddr, error) {
	if m.Addr == "" {
		return nil, errors.New("metrics.addr is empty")
	}
	expanded := os.ExpandEnv(m.Addr)
	addr, err := net.ResolveTCPAddr("tcp", expanded)
	if err != nil {
		return nil, fmt.Errorf("resolving metrics.addr %q: %w", expanded, err)
	}
	return addr, nil
}

// MetricsEnabled reports whether the /metrics endpoint should be served.
func (c Config) MetricsEnabled() bool {
	return c.Metrics != nil && c.Metrics.Addr != ""
}
