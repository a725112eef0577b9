package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/smartplot/format"
	"github.com/arloliu/smartplot/transport"
)

// Config is the smartplot tool configuration, read from YAML.
type Config struct {
	// Addr is host:port for TCP or a ws:// URL for WebSocket plotters.
	Addr           string        `yaml:"addr"`
	Capacity       int           `yaml:"capacity"`
	Threshold      int           `yaml:"threshold"`
	Interval       time.Duration `yaml:"interval"`
	SendTimeout    time.Duration `yaml:"send_timeout"`
	CloseAfterSend bool          `yaml:"close_after_send"`
	Compression    string        `yaml:"compression"`
	LogLevel       string        `yaml:"log_level"`
	MetricsAddr    string        `yaml:"metrics_addr"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Addr:        "localhost:2000",
		Capacity:    1000,
		Threshold:   100,
		Interval:    50 * time.Millisecond,
		SendTimeout: 5 * time.Second,
		Compression: "s2",
		LogLevel:    "info",
	}
}

// LoadConfig reads path over the defaults. An empty path or a missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	var errList []error

	if c.Addr == "" {
		errList = append(errList, errors.New("addr is required"))
	}
	if c.Capacity <= 0 {
		errList = append(errList, fmt.Errorf("capacity %d must be positive", c.Capacity))
	}
	if c.Interval <= 0 {
		errList = append(errList, fmt.Errorf("interval %s must be positive", c.Interval))
	}
	if _, err := c.CompressionType(); err != nil {
		errList = append(errList, err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errList = append(errList, err)
	}

	return errors.Join(errList...)
}

// CompressionType returns the capture compression.
func (c *Config) CompressionType() (format.CompressionType, error) {
	ct, ok := format.ParseCompression(c.Compression)
	if !ok {
		return 0, fmt.Errorf("unknown compression %q", c.Compression)
	}

	return ct, nil
}

// Dialer returns the dialer for Addr: a WebSocket dialer for ws:// and
// wss:// URLs, TCP otherwise.
func (c *Config) Dialer() transport.Dialer {
	if strings.HasPrefix(c.Addr, "ws://") || strings.HasPrefix(c.Addr, "wss://") {
		return transport.WebSocketDialer{URL: c.Addr, Timeout: c.SendTimeout}
	}

	return transport.TCPDialer{Addr: c.Addr, Timeout: c.SendTimeout}
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, fmt.Errorf("log level %q: %w", name, err)
	}

	return level, nil
}
