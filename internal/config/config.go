package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/juankaspain/vuelosrobot-sub000/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig        `mapstructure:"app"`
	Logging   logging.Config   `mapstructure:"logging"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Scheduler SchedulerConfig  `mapstructure:"scheduler"`
	Scan      ScanConfig       `mapstructure:"scan"`
	Providers []ProviderConfig `mapstructure:"providers"`
	Cache     CacheConfig      `mapstructure:"cache"`
	Estimator EstimatorConfig  `mapstructure:"estimator"`
	History   HistoryConfig    `mapstructure:"history"`
	Deals     DealsConfig      `mapstructure:"deals"`
	Alerting  AlertingConfig   `mapstructure:"alerting"`
	Export    ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SchedulerConfig governs the periodic scan cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
}

// ScanConfig lists watched routes and tunes scan parallelism.
type ScanConfig struct {
	Routes      []string `mapstructure:"routes"`
	Workers     int      `mapstructure:"workers"`
	HorizonDays int      `mapstructure:"horizon_days"`
}

// ProviderConfig describes one external price provider. List order is
// priority order for the acquisition chain.
type ProviderConfig struct {
	Name      string        `mapstructure:"name"`
	Kind      string        `mapstructure:"kind"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	Budget    BudgetConfig  `mapstructure:"budget"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

// BudgetConfig caps provider call volume.
type BudgetConfig struct {
	PeriodQuota int           `mapstructure:"period_quota"`
	Period      time.Duration `mapstructure:"period"`
	PerMinute   int           `mapstructure:"per_minute"`
}

// BreakerConfig tunes the per-provider circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// CacheConfig sizes the price cache.
type CacheConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	HeuristicTTL time.Duration `mapstructure:"heuristic_ttl"`
	MaxEntries   int           `mapstructure:"max_entries"`
}

// EstimatorConfig anchors the fallback estimator.
type EstimatorConfig struct {
	Seed       int64 `mapstructure:"seed"`
	PeakMonths []int `mapstructure:"peak_months"`
}

// HistoryConfig bounds the historical price store.
type HistoryConfig struct {
	Retention   time.Duration `mapstructure:"retention"`
	MaxEntries  int           `mapstructure:"max_entries"`
	StatsWindow time.Duration `mapstructure:"stats_window"`
}

// DealsConfig tunes deal detection.
type DealsConfig struct {
	ThresholdPct float64       `mapstructure:"threshold_pct"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	MinHistory   int           `mapstructure:"min_history"`
}

// AlertingConfig defines deal notification routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram delivery parameters.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VUELOSROBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "vuelosrobot")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "15m")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.advisory_lock_key", int64(0x76554c4f))

	v.SetDefault("scan.routes", []string{"MAD-BCN", "MAD-LHR", "BCN-CDG"})
	v.SetDefault("scan.workers", 24)
	v.SetDefault("scan.horizon_days", 30)

	v.SetDefault("cache.ttl", "300s")
	v.SetDefault("cache.heuristic_ttl", "60s")
	v.SetDefault("cache.max_entries", 1000)

	v.SetDefault("estimator.seed", int64(0))

	v.SetDefault("history.retention", "2160h") // 90 days
	v.SetDefault("history.max_entries", 500)
	v.SetDefault("history.stats_window", "720h") // 30 days

	v.SetDefault("deals.threshold_pct", 20.0)
	v.SetDefault("deals.cooldown", "30m")
	v.SetDefault("deals.min_history", 3)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be greater than zero")
	}
	if c.Scan.HorizonDays < 0 {
		return fmt.Errorf("scan.horizon_days cannot be negative")
	}
	if c.Deals.ThresholdPct <= 0 || c.Deals.ThresholdPct >= 100 {
		return fmt.Errorf("deals.threshold_pct must be within (0, 100)")
	}
	if c.Deals.Cooldown <= 0 {
		return fmt.Errorf("deals.cooldown must be greater than zero")
	}
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d].name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("providers[%d].name %q duplicated", i, p.Name)
		}
		seen[p.Name] = true
		switch p.Kind {
		case "aerodata", "farebeam":
		default:
			return fmt.Errorf("providers[%d].kind %q not supported", i, p.Kind)
		}
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

// ParsedPeakMonths converts configured month numbers to time.Month values,
// dropping out-of-range entries.
func (c *Config) ParsedPeakMonths() []time.Month {
	months := make([]time.Month, 0, len(c.Estimator.PeakMonths))
	for _, m := range c.Estimator.PeakMonths {
		if m >= 1 && m <= 12 {
			months = append(months, time.Month(m))
		}
	}
	return months
}
