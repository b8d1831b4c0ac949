package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"bar-dataset/internal/labels"
	"bar-dataset/internal/saver"
)

const dateLayout = "2006-01-02"

// Config holds application configuration from config.yaml and env.
type Config struct {
	DataDir     string         `mapstructure:"data_dir" validate:"required"`
	Profile     string         `mapstructure:"profile"`
	Symbols     []string       `mapstructure:"symbols"`
	SymbolsFile string         `mapstructure:"symbols_file"`
	Timeframe   string         `mapstructure:"timeframe" validate:"oneof=1m 3m 5m 15m 30m 1h"`
	Start       string         `mapstructure:"start" validate:"required,datetime=2006-01-02"`
	End         string         `mapstructure:"end" validate:"omitempty,datetime=2006-01-02"`
	SaveFormat  string         `mapstructure:"save_format" validate:"oneof=csv parquet json"`
	LogLevel    string         `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	Workers     int            `mapstructure:"workers" validate:"min=1,max=64"`
	Label       LabelConfig    `mapstructure:"label"`
	Binance     BinanceConfig  `mapstructure:"binance"`
	Schedule    ScheduleConfig `mapstructure:"schedule"`
}

// LabelConfig holds the fixed-horizon labeling parameters.
type LabelConfig struct {
	HorizonMinutes int     `mapstructure:"horizon_minutes" validate:"min=0"`
	ThresholdBps   float64 `mapstructure:"threshold_bps" validate:"min=0"`
}

// BinanceConfig holds exchange client settings.
type BinanceConfig struct {
	BaseURL         string        `mapstructure:"base_url" validate:"required,url"`
	MaxRetries      int           `mapstructure:"max_retries" validate:"min=0"`
	RequestInterval time.Duration `mapstructure:"request_interval" validate:"min=0"`
}

// ScheduleConfig is the UTC time of day of the follow-mode rerun.
type ScheduleConfig struct {
	RunHour   int `mapstructure:"run_hour" validate:"min=0,max=23"`
	RunMinute int `mapstructure:"run_minute" validate:"min=0,max=59"`
}

// LoadConfig reads path (optional; skipped when missing) then applies env overrides.
// Nested keys map to env with '_' (label.horizon_minutes → LABEL_HORIZON_MINUTES).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.SaveFormat == "" {
		cfg.SaveFormat = saveFormatForProfile(cfg.Profile)
	}
	cfg.SaveFormat = strings.ToLower(strings.TrimSpace(cfg.SaveFormat))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("profile", "")
	v.SetDefault("symbols", []string{"BTCUSDT"})
	v.SetDefault("symbols_file", "")
	v.SetDefault("timeframe", "1m")
	v.SetDefault("start", time.Now().UTC().AddDate(0, 0, -30).Format(dateLayout))
	v.SetDefault("end", "")
	v.SetDefault("save_format", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("workers", 4)

	v.SetDefault("label.horizon_minutes", 5)
	v.SetDefault("label.threshold_bps", 5.0)

	v.SetDefault("binance.base_url", "https://api.binance.com")
	v.SetDefault("binance.max_retries", 5)
	v.SetDefault("binance.request_interval", "50ms")

	v.SetDefault("schedule.run_hour", 0)
	v.SetDefault("schedule.run_minute", 30)
}

func saveFormatForProfile(profile string) string {
	switch profile {
	case "dev", "development":
		return "csv"
	default:
		return "parquet"
	}
}

// Validate checks field rules and the date range.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.End != "" && c.EndDate().Before(c.StartDate()) {
		return fmt.Errorf("invalid config: end %s before start %s", c.End, c.Start)
	}
	return nil
}

// StartDate returns Start as a UTC day.
func (c *Config) StartDate() time.Time {
	t, _ := time.ParseInLocation(dateLayout, c.Start, time.UTC)
	return t
}

// EndDate returns End as a UTC day, zero when unset.
func (c *Config) EndDate() time.Time {
	if c.End == "" {
		return time.Time{}
	}
	t, _ := time.ParseInLocation(dateLayout, c.End, time.UTC)
	return t
}

// LabelParams returns the labeler parameters.
func (c *Config) LabelParams() labels.Params {
	return labels.Params{Horizon: c.Label.HorizonMinutes, ThresholdBps: c.Label.ThresholdBps}
}

// RawDir returns data/raw/crypto/{timeframe}
func (c *Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw", "crypto", c.Timeframe)
}

// ProgressPath returns path to .lastday.json
func (c *Config) ProgressPath() string {
	return filepath.Join(c.RawDir(), ".lastday.json")
}

// LabeledPath returns the labeled table of symbol.
func (c *Config) LabeledPath(symbol string) string {
	return saver.LabeledPath(c.DataDir, symbol, c.Timeframe, c.SaveFormat)
}

// TrainPath returns the training table of symbol.
func (c *Config) TrainPath(symbol string) string {
	return saver.TrainPath(c.DataDir, symbol, c.Timeframe, c.SaveFormat)
}
