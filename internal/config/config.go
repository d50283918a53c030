package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	"github.com/KaramelBytes/tablescope/internal/charts"
	"github.com/KaramelBytes/tablescope/internal/pipeline"
)

// Global configuration structure.
type Global struct {
	// Profiling
	DatetimeThreshold float64 `mapstructure:"datetime_threshold" yaml:"datetime_threshold"`
	SampleRows        int     `mapstructure:"sample_rows" yaml:"sample_rows"`
	OutlierThreshold  float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold"`

	// Chart planning
	TopCategories           int `mapstructure:"top_categories" yaml:"top_categories"`
	CorrelationMinColumns   int `mapstructure:"correlation_min_columns" yaml:"correlation_min_columns"`
	ScatterMatrixMinColumns int `mapstructure:"scatter_matrix_min_columns" yaml:"scatter_matrix_min_columns"`
	ScatterMatrixMaxColumns int `mapstructure:"scatter_matrix_max_columns" yaml:"scatter_matrix_max_columns"`
	PairplotMinColumns      int `mapstructure:"pairplot_min_columns" yaml:"pairplot_min_columns"`
	PairplotMaxRows         int `mapstructure:"pairplot_max_rows" yaml:"pairplot_max_rows"`
	PairplotColumns         int `mapstructure:"pairplot_columns" yaml:"pairplot_columns"`

	// Server
	ListenAddr   string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB  int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	CacheEntries int    `mapstructure:"cache_entries" yaml:"cache_entries"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists every configuration key, in file order.
var Keys = []string{
	"datetime_threshold", "sample_rows", "outlier_threshold",
	"top_categories", "correlation_min_columns", "scatter_matrix_min_columns",
	"scatter_matrix_max_columns", "pairplot_min_columns", "pairplot_max_rows", "pairplot_columns",
	"listen_addr", "max_upload_mb", "cache_entries", "log_level",
}

func setDefaults(v *viper.Viper) {
	lim := charts.DefaultLimits()
	v.SetDefault("datetime_threshold", analysis.DefaultDatetimeThreshold)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("outlier_threshold", 3.5)
	v.SetDefault("top_categories", lim.TopCategories)
	v.SetDefault("correlation_min_columns", lim.CorrelationMinColumns)
	v.SetDefault("scatter_matrix_min_columns", lim.ScatterMatrixMinColumns)
	v.SetDefault("scatter_matrix_max_columns", lim.ScatterMatrixMaxColumns)
	v.SetDefault("pairplot_min_columns", lim.PairplotMinColumns)
	v.SetDefault("pairplot_max_rows", lim.PairplotMaxRows)
	v.SetDefault("pairplot_columns", lim.PairplotColumns)
	v.SetDefault("listen_addr", "127.0.0.1:8501")
	v.SetDefault("max_upload_mb", 200)
	v.SetDefault("cache_entries", 16)
	v.SetDefault("log_level", "info")
}

// Defaults returns the built-in configuration without reading files or env.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// DefaultPath returns ~/.tablescope/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tablescope", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tablescope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
// A .env file in the working directory is read first so its variables take
// part in the env layer.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("TABLESCOPE")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(cfgFile != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Global) Validate() error {
	switch {
	case c.DatetimeThreshold <= 0 || c.DatetimeThreshold > 1:
		return fmt.Errorf("datetime_threshold must be in (0, 1], got %v", c.DatetimeThreshold)
	case c.SampleRows < 0:
		return fmt.Errorf("sample_rows must not be negative, got %d", c.SampleRows)
	case c.TopCategories <= 0:
		return fmt.Errorf("top_categories must be positive, got %d", c.TopCategories)
	case c.CorrelationMinColumns <= 0:
		return fmt.Errorf("correlation_min_columns must be positive, got %d", c.CorrelationMinColumns)
	case c.ScatterMatrixMinColumns <= 0 || c.ScatterMatrixMinColumns > c.ScatterMatrixMaxColumns:
		return fmt.Errorf("scatter matrix column range [%d, %d] is invalid", c.ScatterMatrixMinColumns, c.ScatterMatrixMaxColumns)
	case c.PairplotMinColumns <= 0:
		return fmt.Errorf("pairplot_min_columns must be positive, got %d", c.PairplotMinColumns)
	case c.PairplotMaxRows <= 0:
		return fmt.Errorf("pairplot_max_rows must be positive, got %d", c.PairplotMaxRows)
	case c.PairplotColumns <= 0:
		return fmt.Errorf("pairplot_columns must be positive, got %d", c.PairplotColumns)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	case c.CacheEntries < 0:
		return fmt.Errorf("cache_entries must not be negative, got %d", c.CacheEntries)
	}
	return nil
}

// Limits returns the chart planner thresholds.
func (c *Global) Limits() charts.Limits {
	return charts.Limits{
		CorrelationMinColumns:   c.CorrelationMinColumns,
		ScatterMatrixMinColumns: c.ScatterMatrixMinColumns,
		ScatterMatrixMaxColumns: c.ScatterMatrixMaxColumns,
		PairplotMinColumns:      c.PairplotMinColumns,
		PairplotMaxRows:         c.PairplotMaxRows,
		PairplotColumns:         c.PairplotColumns,
		TopCategories:           c.TopCategories,
	}
}

// PipelineOptions maps the configuration onto pipeline settings.
func (c *Global) PipelineOptions() pipeline.Options {
	opt := pipeline.DefaultOptions()
	opt.Analysis.DatetimeThreshold = c.DatetimeThreshold
	opt.Analysis.SampleRows = c.SampleRows
	opt.Analysis.OutlierThreshold = c.OutlierThreshold
	opt.Limits = c.Limits()
	return opt
}

// Set assigns one key from its string form, as used by `config set`.
func (c *Global) Set(key, value string) error {
	v := viper.New()
	v.Set(key, value)
	var known bool
	for _, k := range Keys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown config key %q", key)
	}
	// Unmarshal into a copy so a bad value leaves c untouched.
	next := *c
	if err := v.Unmarshal(&next); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
