// Package config loads the scanner's TOML configuration file, overridable
// by environment variables, using viper the way the rest of the pack does.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the scanner daemon's fully-resolved configuration.
type Config struct {
	BlacklistFile string
	WorkerCount   int
	TimeoutMS     int
	DBURL         string

	EnableISPScan    bool
	ISPScanSubnet    int
	ExtendedPortScan bool

	// WorkerRecheckCount is the number of concurrent chunks the rescanner
	// splits its server list across, one goroutine per chunk; it bounds
	// concurrency, not time.
	WorkerRecheckCount int

	LogLevel        string
	LogStdout       bool
	LogStdoutPretty bool
	MetricsAddr     string
}

const defaultConfigName = "mcscand"

// Load reads the scanner config from the file at path configFile if it is
// non-empty, or else from a TOML file named "mcscand.toml" in the current
// directory or /etc/mcscand, falling back to defaults for anything unset. Every key can also be set
// via an MCSCAND_-prefixed environment variable, e.g. MCSCAND_WORKER_COUNT.
func Load(configFile string) (Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/mcscand")
	}

	v.SetEnvPrefix("MCSCAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("blacklist_file", "blacklist.txt")
	v.SetDefault("worker_count", 256)
	v.SetDefault("timeout_ms", 3000)
	v.SetDefault("db_url", "")
	v.SetDefault("enable_isp_scan", false)
	v.SetDefault("isp_scan_subnet", 0)
	v.SetDefault("extended_port_scan", false)
	v.SetDefault("worker_recheck", 32)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_stdout", true)
	v.SetDefault("log_stdout_pretty", false)
	v.SetDefault("metrics_addr", "127.0.0.1:9120")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := Config{
		BlacklistFile:      v.GetString("blacklist_file"),
		WorkerCount:        v.GetInt("worker_count"),
		TimeoutMS:          v.GetInt("timeout_ms"),
		DBURL:              v.GetString("db_url"),
		EnableISPScan:      v.GetBool("enable_isp_scan"),
		ISPScanSubnet:      v.GetInt("isp_scan_subnet"),
		ExtendedPortScan:   v.GetBool("extended_port_scan"),
		WorkerRecheckCount: v.GetInt("worker_recheck"),
		LogLevel:           v.GetString("log_level"),
		LogStdout:          v.GetBool("log_stdout"),
		LogStdoutPretty:    v.GetBool("log_stdout_pretty"),
		MetricsAddr:        v.GetString("metrics_addr"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.WorkerCount < 0 {
		return fmt.Errorf("config: worker_count must not be negative, got %d", c.WorkerCount)
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("config: timeout_ms must be positive, got %d", c.TimeoutMS)
	}
	if c.DBURL == "" {
		return fmt.Errorf("config: db_url must be set")
	}
	if c.EnableISPScan && (c.ISPScanSubnet <= 0 || c.ISPScanSubnet > 32) {
		return fmt.Errorf("config: isp_scan_subnet must be a prefix length in 1-32 when enable_isp_scan is true, got %d", c.ISPScanSubnet)
	}
	if c.WorkerRecheckCount < 0 {
		return fmt.Errorf("config: worker_recheck must not be negative, got %d", c.WorkerRecheckCount)
	}
	return nil
}
