// config — загрузка конфигурации клиента и mock-бэкенда.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища токенов.
const (
	TokensMemory = "memory"
	TokensFile   = "file"
	TokensRedis  = "redis"
)

type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	API      APIConfig     `yaml:"api"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Tokens   TokensConfig  `yaml:"tokens"`
	Log      LogConfig     `yaml:"log"`
	Metrics  MetricsConfig `yaml:"metrics"`
	MockAPI  MockAPIConfig `yaml:"mockapi"`
}

// APIConfig — удалённый REST API.
type APIConfig struct {
	BaseURL      string `yaml:"base_url"       env:"API_URL"        env-default:"http://localhost:5212/api"`
	ImageBaseURL string `yaml:"image_base_url" env:"IMAGE_BASE_URL"`
	UserAgent    string `yaml:"user_agent"     env:"USER_AGENT"     env-default:"flashcards-cli"`
}

// TimeoutConfig — таймауты исходящих вызовов.
// Refresh применяется к обмену refresh-токена, который не зависит от отмены вызывающего.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"15s"`
	Refresh time.Duration `yaml:"refresh" env:"REFRESH_TIMEOUT" env-default:"10s"`
}

// TokensConfig — где хранится пара токенов между запусками.
type TokensConfig struct {
	Driver   string `yaml:"driver"    env:"TOKENS_DRIVER"    env-default:"file"`
	Path     string `yaml:"path"      env:"TOKENS_PATH"`
	RedisURL string `yaml:"redis_url" env:"TOKENS_REDIS_URL"`
	Prefix   string `yaml:"prefix"    env:"TOKENS_PREFIX"    env-default:"flashcards:session:"`
	// Profile отделяет сессии нескольких аккаунтов в одном Redis.
	Profile string `yaml:"profile" env:"TOKENS_PROFILE" env-default:"default"`
}

// LogConfig — необязательный файловый вывод с ротацией.
type LogConfig struct {
	File       string `yaml:"file"         env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb"  env:"LOG_MAX_SIZE_MB"  env-default:"10"`
	MaxBackups int    `yaml:"max_backups"  env:"LOG_MAX_BACKUPS"  env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"28"`
}

// MetricsConfig — отдельный HTTP для Prometheus (пустой host/port отключает).
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST"`
	Port string `yaml:"port" env:"METRICS_PORT"`
}

func (m MetricsConfig) Enabled() bool { return m.Port != "" }

func (m MetricsConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// MockAPIConfig — локальный mock-бэкенд для разработки.
type MockAPIConfig struct {
	Host       string        `yaml:"host"        env:"MOCKAPI_HOST"        env-default:"127.0.0.1"`
	Port       string        `yaml:"port"        env:"MOCKAPI_PORT"        env-default:"5212"`
	BasePath   string        `yaml:"base_path"   env:"MOCKAPI_BASE_PATH"   env-default:"/api"`
	JWTSecret  string        `yaml:"jwt_secret"  env:"MOCKAPI_JWT_SECRET"  env-default:"dev-secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"  env:"MOCKAPI_ACCESS_TTL"  env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"MOCKAPI_REFRESH_TTL" env-default:"720h"`
	Latency    time.Duration `yaml:"latency"     env:"MOCKAPI_LATENCY"`
}

func (m MockAPIConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		return finalize(&cfg)
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return finalize(&cfg)
}

// finalize накладывает ENV поверх файла и проверяет согласованность секций.
func finalize(cfg *Config) (*Config, error) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to overlay env: %w", err)
	}

	switch cfg.Tokens.Driver {
	case TokensMemory, TokensFile:
	case TokensRedis:
		if cfg.Tokens.RedisURL == "" {
			return nil, fmt.Errorf("tokens.redis_url is required for driver %q", TokensRedis)
		}
	default:
		return nil, fmt.Errorf("unknown tokens.driver %q", cfg.Tokens.Driver)
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is empty")
	}

	return cfg, nil
}
