// Package config loads settings for the command line tools from defaults,
// an optional fitcodec.yaml and FITCODEC_* environment variables.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for fitdump
type Config struct {
	Log    LogConfig
	Decode DecodeConfig
	Export ExportConfig
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

type DecodeConfig struct {
	Workers     int    // Files decoded in parallel
	StrictCRC   bool   // Treat CRC mismatches as errors
	ProfilePath string // YAML overlay merged over the built-in profile
}

type ExportConfig struct {
	OutDir     string
	Overwrite  bool
	CopySource bool
	Zstd       bool
	Msgpack    bool
	Parquet    bool
}

// Load builds a Config. path names an explicit config file; when empty,
// fitcodec.yaml is looked up in the working directory and $HOME/.fitcodec
// and its absence is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("FITCODEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fitcodec")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.fitcodec/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Decode: DecodeConfig{
			Workers:     v.GetInt("decode.workers"),
			StrictCRC:   v.GetBool("decode.strict_crc"),
			ProfilePath: v.GetString("decode.profile_path"),
		},
		Export: ExportConfig{
			OutDir:     v.GetString("export.out_dir"),
			Overwrite:  v.GetBool("export.overwrite"),
			CopySource: v.GetBool("export.copy_source"),
			Zstd:       v.GetBool("export.zstd"),
			Msgpack:    v.GetBool("export.msgpack"),
			Parquet:    v.GetBool("export.parquet"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that flags or files may have set.
func (c *Config) Validate() error {
	if c.Decode.Workers < 1 {
		return fmt.Errorf("decode.workers must be at least 1, got %d", c.Decode.Workers)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if strings.TrimSpace(c.Export.OutDir) == "" {
		return fmt.Errorf("export.out_dir is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Decode defaults
	v.SetDefault("decode.workers", defaultWorkers())
	v.SetDefault("decode.strict_crc", false)
	v.SetDefault("decode.profile_path", "")

	// Export defaults
	v.SetDefault("export.out_dir", "./fit_export")
	v.SetDefault("export.overwrite", false)
	v.SetDefault("export.copy_source", false)
	v.SetDefault("export.zstd", false)
	v.SetDefault("export.msgpack", false)
	v.SetDefault("export.parquet", true)
}

// defaultWorkers is one worker per CPU, capped at 8.
func defaultWorkers() int {
	return min(max(runtime.NumCPU(), 1), 8)
}
