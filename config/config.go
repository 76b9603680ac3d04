package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Content  ContentConfig  `mapstructure:"content"`
	Fanout   FanoutConfig   `mapstructure:"fanout"`
	Views    ViewsConfig    `mapstructure:"views"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres | sqlite
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	TrendingTTL time.Duration `mapstructure:"trending_ttl"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// GraphConfig 关系链写入参数
type GraphConfig struct {
	StoreTimeout   time.Duration `mapstructure:"store_timeout"`
	MirrorRetries  int           `mapstructure:"mirror_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	ToggleAttempts int           `mapstructure:"toggle_attempts"`
	ListPageSize   int           `mapstructure:"list_page_size"`
}

// ContentConfig 内容校验与排行参数
type ContentConfig struct {
	MinWordCount  int `mapstructure:"min_word_count"`
	MaxTags       int `mapstructure:"max_tags"`
	TrendingLimit int `mapstructure:"trending_limit"`
	SearchLimit   int `mapstructure:"search_limit"`
}

type FanoutConfig struct {
	Workers      int           `mapstructure:"workers"`
	BatchSize    int           `mapstructure:"batch_size"`
	ClaimLimit   int           `mapstructure:"claim_limit"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ClaimTimeout time.Duration `mapstructure:"claim_timeout"`
}

type ViewsConfig struct {
	QueueSize int     `mapstructure:"queue_size"`
	Workers   int     `mapstructure:"workers"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// Load 读取 config.yaml（可选）并叠加 APP_ 前缀的环境变量
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=postgres port=5432 sslmode=disable")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.trending_ttl", 30*time.Second)

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.issuer", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("graph.store_timeout", 3*time.Second)
	v.SetDefault("graph.mirror_retries", 3)
	v.SetDefault("graph.retry_delay", 50*time.Millisecond)
	v.SetDefault("graph.toggle_attempts", 3)
	v.SetDefault("graph.list_page_size", 20)

	v.SetDefault("content.min_word_count", 1)
	v.SetDefault("content.max_tags", 10)
	v.SetDefault("content.trending_limit", 5)
	v.SetDefault("content.search_limit", 20)

	v.SetDefault("fanout.workers", 4)
	v.SetDefault("fanout.batch_size", 500)
	v.SetDefault("fanout.claim_limit", 128)
	v.SetDefault("fanout.poll_interval", 200*time.Millisecond)
	v.SetDefault("fanout.claim_timeout", 5*time.Minute)

	v.SetDefault("views.queue_size", 10000)
	v.SetDefault("views.workers", 4)
	v.SetDefault("views.rate_limit", 20.0)
	v.SetDefault("views.burst", 40)

	v.SetDefault("sentry.environment", "development")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "social-blog")
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Graph.StoreTimeout <= 0 {
		return errors.New("graph.store_timeout must be positive")
	}
	if c.Graph.MirrorRetries < 1 {
		return errors.New("graph.mirror_retries must be at least 1")
	}
	if c.Graph.ToggleAttempts < 1 {
		return errors.New("graph.toggle_attempts must be at least 1")
	}
	if c.Content.MinWordCount < 1 {
		return errors.New("content.min_word_count must be at least 1")
	}
	if c.Content.TrendingLimit < 1 || c.Content.SearchLimit < 1 {
		return errors.New("content limits must be positive")
	}
	if c.Views.Workers < 1 || c.Views.QueueSize < 1 {
		return errors.New("views.workers and views.queue_size must be positive")
	}
	return nil
}
