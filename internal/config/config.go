package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format   string `mapstructure:"format"`
	Quiet    bool   `mapstructure:"quiet"`
	Verbose  bool   `mapstructure:"verbose"`
	Disabled bool   `mapstructure:"disabled"` // kill switch: accept and drop everything

	// DataDir roots the event log and session state directories.
	DataDir string `mapstructure:"data_dir"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig holds the append-log tunables
type LogConfig struct {
	MaxSegmentSize    int64  `mapstructure:"max_segment_size"` // bytes; active segment seals before exceeding this
	MaxPayloadSize    int    `mapstructure:"max_payload_size"` // bytes; larger payloads are rejected, not truncated
	MaxSessionID      int    `mapstructure:"max_session_id"`   // bytes
	Flush             string `mapstructure:"flush"`            // per-record | buffered
	CompressSealed    bool   `mapstructure:"compress_sealed"`
	MaxSealedSegments int    `mapstructure:"max_sealed_segments"` // prune keeps this many sealed segments
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:  "ndjson",
		Quiet:   false,
		Verbose: false,
		Log: LogConfig{
			MaxSegmentSize:    10 << 20,
			MaxPayloadSize:    512 << 10,
			MaxSessionID:      256,
			Flush:             "per-record",
			CompressSealed:    false,
			MaxSealedSegments: 5,
		},
	}
}

// EventsDir returns the append-log directory.
func (c *Config) EventsDir() string {
	return filepath.Join(c.dataDir(), "events")
}

// SessionsDir returns the per-session state directory.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.dataDir(), "sessions")
}

func (c *Config) dataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".hooklog")
	}
	return ".hooklog"
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("hooklog")
	v.SetConfigType("yaml")

	// Add config paths (in order of precedence, lowest first)
	// 1. System-wide config
	v.AddConfigPath("/etc/hooklog/")
	// 2. User config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "hooklog"))
	}
	// 3. Home directory (as .hooklog.yaml)
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".hooklog")
	}
	// 4. Current directory
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("HOOKLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	v.BindEnv("format", "HOOKLOG_FORMAT")
	v.BindEnv("quiet", "HOOKLOG_QUIET")
	v.BindEnv("verbose", "HOOKLOG_VERBOSE")
	v.BindEnv("disabled", "HOOKLOG_DISABLED")
	v.BindEnv("data_dir", "HOOKLOG_DATA_DIR")
	v.BindEnv("log.flush", "HOOKLOG_LOG_FLUSH")

	// Set defaults
	cfg := Default()
	v.SetDefault("format", cfg.Format)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("disabled", cfg.Disabled)
	v.SetDefault("log.max_segment_size", cfg.Log.MaxSegmentSize)
	v.SetDefault("log.max_payload_size", cfg.Log.MaxPayloadSize)
	v.SetDefault("log.max_session_id", cfg.Log.MaxSessionID)
	v.SetDefault("log.flush", cfg.Log.Flush)
	v.SetDefault("log.compress_sealed", cfg.Log.CompressSealed)
	v.SetDefault("log.max_sealed_segments", cfg.Log.MaxSealedSegments)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, err
		}
		// Config file not found; use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path to the config file that was loaded
func ConfigFile() string {
	v := viper.New()

	v.SetConfigName("hooklog")
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	// Try .hooklog
	v.SetConfigName(".hooklog")
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	return ""
}
