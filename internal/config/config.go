// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name      string `yaml:"name"`
	Env       string `yaml:"env"`
	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"` // 关闭时不持久化运行记录
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit   int           `yaml:"rate_limit"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxBodySize int64         `yaml:"max_body_size"`
	CORS        CORSConfig    `yaml:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// SchedulerConfig 排班引擎配置
type SchedulerConfig struct {
	DefaultTimeout       time.Duration `yaml:"default_timeout"`
	DefaultKmax          int           `yaml:"default_kmax"`
	DefaultMaxIterations int           `yaml:"default_max_iterations"`
	DefaultSeed          int64         `yaml:"default_seed"`
	Workers              int           `yaml:"workers"` // 并行独立运行的上限
	KmaxLimit            int           `yaml:"kmax_limit"`
	MaxIterationsLimit   int           `yaml:"max_iterations_limit"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:      getEnv("APP_NAME", "escala"),
			Env:       getEnv("APP_ENV", "development"),
			Port:      getEnvInt("APP_PORT", 7012),
			LogLevel:  getEnv("APP_LOG_LEVEL", "info"),
			LogFormat: getEnv("APP_LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvBool("DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "escala"),
			User:            getEnv("DB_USER", "escala"),
			Password:        getEnv("DB_PASSWORD", "escala123"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			RateLimit:   getEnvInt("API_RATE_LIMIT", 100),
			Timeout:     getEnvDuration("API_TIMEOUT", 60*time.Second),
			MaxBodySize: int64(getEnvInt("API_MAX_BODY_SIZE", 10<<20)),
			CORS: CORSConfig{
				Enabled: getEnvBool("API_CORS_ENABLED", true),
				Origins: getEnvList("API_CORS_ORIGINS", []string{"*"}),
			},
		},
		Scheduler: SchedulerConfig{
			DefaultTimeout:       getEnvDuration("SCHEDULER_TIMEOUT", 30*time.Second),
			DefaultKmax:          getEnvInt("SCHEDULER_DEFAULT_KMAX", 10),
			DefaultMaxIterations: getEnvInt("SCHEDULER_DEFAULT_MAX_ITERATIONS", 1),
			DefaultSeed:          int64(getEnvInt("SCHEDULER_DEFAULT_SEED", 0)),
			Workers:              getEnvInt("SCHEDULER_WORKERS", 4),
			KmaxLimit:            getEnvInt("SCHEDULER_KMAX_LIMIT", 200),
			MaxIterationsLimit:   getEnvInt("SCHEDULER_MAX_ITERATIONS_LIMIT", 1000),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if cfg.Scheduler.Workers <= 0 {
		return nil, fmt.Errorf("SCHEDULER_WORKERS 必须为正数: %d", cfg.Scheduler.Workers)
	}
	if cfg.IsProduction() && cfg.App.LogFormat == "console" {
		cfg.App.LogFormat = "json"
	}
	if cfg.Scheduler.DefaultKmax <= 0 || cfg.Scheduler.DefaultKmax > cfg.Scheduler.KmaxLimit {
		return nil, fmt.Errorf("SCHEDULER_DEFAULT_KMAX 超出范围: %d", cfg.Scheduler.DefaultKmax)
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList 读取逗号分隔的列表，忽略空项
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
