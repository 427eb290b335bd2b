// Package config loads the farmworlds configuration: a YAML file with
// ${VAR} expansion, .env files and FARMWORLDS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/farmworlds/internal/account"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/retry"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "farmworlds.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FARMWORLDS_"

// Config is the root configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Tasks   TasksConfig   `yaml:"tasks" envPrefix:"TASKS_"`
	Farms   FarmsConfig   `yaml:"farms" envPrefix:"FARMS_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Events  EventsConfig  `yaml:"events" envPrefix:"EVENTS_"`
}

// StorageConfig selects and configures the table backend.
type StorageConfig struct {
	Driver   Driver         `yaml:"driver" env:"DRIVER"`
	SQLite   SQLiteConfig   `yaml:"sqlite" envPrefix:"SQLITE_"`
	Postgres PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
	S3       S3Config       `yaml:"s3" envPrefix:"S3_"`
	// Retry applies to transient save failures.
	Retry retry.Policy `yaml:"retry" envPrefix:"RETRY_"`
}

// SQLiteConfig places one <table>.db file per table in Dir.
type SQLiteConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

// PostgresConfig holds the connection string.
type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"DSN"`
}

// S3Config points at an S3-compatible bucket.
type S3Config struct {
	Bucket          string `yaml:"bucket" env:"BUCKET"`
	Region          string `yaml:"region" env:"REGION"`
	Endpoint        string `yaml:"endpoint,omitempty" env:"ENDPOINT"`
	Prefix          string `yaml:"prefix,omitempty" env:"PREFIX"`
	PathStyle       bool   `yaml:"path_style" env:"PATH_STYLE"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" env:"SECRET_ACCESS_KEY"`
}

// TasksConfig tunes the generator loops. Periods are expressed in ticks.
type TasksConfig struct {
	TickDuration      time.Duration `yaml:"tick_duration" env:"TICK_DURATION"`
	MinTicks          int           `yaml:"min_ticks" env:"MIN_TICKS"`
	MaxTicks          int           `yaml:"max_ticks" env:"MAX_TICKS"`
	MaxAmount         int           `yaml:"max_amount" env:"MAX_AMOUNT"`
	MaxCompositeSize  int           `yaml:"max_composite_size" env:"MAX_COMPOSITE_SIZE"`
	RewardMultiplier  float64       `yaml:"reward_multiplier" env:"REWARD_MULTIPLIER"`
	BaseReward        float64       `yaml:"base_reward" env:"BASE_REWARD"`
	MaxSingleTasks    int           `yaml:"max_single_tasks" env:"MAX_SINGLE_TASKS"`
	MaxCompositeTasks int           `yaml:"max_composite_tasks" env:"MAX_COMPOSITE_TASKS"`
	Catalog           task.Catalog  `yaml:"catalog,omitempty"`
}

// FarmsConfig names the template world and the farm world prefix.
type FarmsConfig struct {
	TemplateWorld string `yaml:"template_world" env:"TEMPLATE_WORLD"`
	WorldPrefix   string `yaml:"world_prefix" env:"WORLD_PREFIX"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level" env:"LEVEL"`
	Format LogFormat `yaml:"format" env:"FORMAT"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty" env:"LISTEN"`
}

// EventsConfig enables NATS publishing when URL is set.
type EventsConfig struct {
	URL           string `yaml:"url,omitempty" env:"URL"`
	SubjectPrefix string `yaml:"subject_prefix" env:"SUBJECT_PREFIX"`
}

// Default returns the stock configuration.
func Default() *Config {
	t := task.DefaultTuning()
	q := account.DefaultQuotas()
	return &Config{
		Storage: StorageConfig{
			Driver: DriverSQLite,
			SQLite: SQLiteConfig{Dir: "data"},
			S3:     S3Config{Region: "us-east-1"},
			Retry:  retry.DefaultPolicy(),
		},
		Tasks: TasksConfig{
			TickDuration:      50 * time.Millisecond,
			MinTicks:          60,
			MaxTicks:          120,
			MaxAmount:         t.MaxAmount,
			MaxCompositeSize:  t.MaxCompositeSize,
			RewardMultiplier:  t.RewardMultiplier,
			BaseReward:        t.BaseReward,
			MaxSingleTasks:    q.MaxSingle,
			MaxCompositeTasks: q.MaxComposite,
		},
		Farms: FarmsConfig{
			TemplateWorld: "template",
			WorldPrefix:   "farm_",
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Events:  EventsConfig{SubjectPrefix: "farmworlds"},
	}
}

// Tuning converts the task section for the generator.
func (t TasksConfig) Tuning() task.Tuning {
	return task.Tuning{
		MaxAmount:        t.MaxAmount,
		MaxCompositeSize: t.MaxCompositeSize,
		RewardMultiplier: t.RewardMultiplier,
		BaseReward:       t.BaseReward,
	}
}

// Quotas returns the quotas of newly created accounts.
func (t TasksConfig) Quotas() account.Quotas {
	return account.Quotas{MaxSingle: t.MaxSingleTasks, MaxComposite: t.MaxCompositeTasks}
}

// Period returns the shortest and longest generator period.
func (t TasksConfig) Period() (time.Duration, time.Duration) {
	return time.Duration(t.MinTicks) * t.TickDuration, time.Duration(t.MaxTicks) * t.TickDuration
}

// Load reads path over the defaults, then applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, ferrors.ConfigError("failed to unmarshal config").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default (plus environment
// overrides) when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Configuration file not found, using defaults", "path", path)
		loadEnvFiles()
		cfg := Default()
		if err := finish(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

func finish(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return ferrors.ConfigError("failed to parse environment overrides").WithCause(err).Build()
	}
	cfg.normalize()
	return cfg.Validate()
}

// loadEnvFiles reads .env and .env.local without overriding the process
// environment.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load env file", "file", name, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "file", name)
	}
}

func (c *Config) normalize() {
	c.Storage.Driver = NormalizeDriver(string(c.Storage.Driver))
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}

// Init writes the default configuration to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.NewError(ferrors.CategoryAlreadyExists, "configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			UserAction().
			Build()
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.IOError("failed to write config file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
