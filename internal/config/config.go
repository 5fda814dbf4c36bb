package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config files larger than this are rejected outright.
const maxFileBytes = 1 << 20

// Duration accepts either a Go duration string ("30s", "1m30s") or a
// bare number of seconds.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		if dur, perr := time.ParseDuration(s); perr == nil {
			*d = Duration(dur)
			return nil
		}
	}
	var secs float64
	if err := value.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration %q", value.Value)
}

type Config struct {
	Addr            string   `yaml:"addr"`
	MaxConnections  int64    `yaml:"max_connections"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	MonitorInterval Duration `yaml:"monitor_interval"`
	StatsInterval   Duration `yaml:"stats_interval"`
	DrainTimeout    Duration `yaml:"drain_timeout"`
	RequestQuota    int64    `yaml:"request_quota"`
	MetricsAddr     string   `yaml:"metrics_addr"`
	LogLevel        string   `yaml:"log_level"`
	LogFormat       string   `yaml:"log_format"`
	LogFile         string   `yaml:"log_file"`
}

func Default() Config {
	return Config{
		Addr:            "127.0.0.1:8080",
		MaxConnections:  10,
		ReadTimeout:     Duration(30 * time.Second),
		IdleTimeout:     Duration(300 * time.Second),
		MonitorInterval: Duration(30 * time.Second),
		StatsInterval:   Duration(60 * time.Second),
		DrainTimeout:    Duration(10 * time.Second),
		RequestQuota:    1000,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load reads a YAML file and applies it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	info, err := os.Stat(path)
	if err != nil {
		return cfg, err
	}
	if info.Size() > maxFileBytes {
		return cfg, fmt.Errorf("config %s: file too large", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.MaxConnections <= 0 {
		return errors.New("max_connections must be positive")
	}
	if c.ReadTimeout <= 0 {
		return errors.New("read_timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return errors.New("idle_timeout must be positive")
	}
	if c.MonitorInterval <= 0 {
		return errors.New("monitor_interval must be positive")
	}
	if c.StatsInterval <= 0 {
		return errors.New("stats_interval must be positive")
	}
	if c.DrainTimeout <= 0 {
		return errors.New("drain_timeout must be positive")
	}
	if c.RequestQuota <= 0 {
		return errors.New("request_quota must be positive")
	}
	return nil
}
