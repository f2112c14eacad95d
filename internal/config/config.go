package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// 支持的存储驱动。
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string      `yaml:"listen_addr"`
	Port          string      `yaml:"port"`
	GinMode       string      `yaml:"gin_mode"`
	SessionSecret string      `yaml:"session_secret"`
	LogLevel      string      `yaml:"log_level"`
	Store         StoreConfig `yaml:"store"`
}

// StoreConfig 描述文档存储的连接方式。sqlite 使用 Path，mongo 使用 URL 与 Name。
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
	Name   string `yaml:"name"`
}

// Default 返回开发环境可直接使用的默认配置。
func Default() AppConfig {
	return AppConfig{
		Port:          "8000",
		GinMode:       "release",
		SessionSecret: "gestor-dev-secret",
		LogLevel:      "info",
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "gestor.db",
		},
	}
}

// Load 依次应用默认值、可选的 YAML 文件（支持 ${ENV} 展开）和环境变量，最后校验。
// path 为空或文件不存在时跳过文件。
func Load(path string) (AppConfig, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	applyEnv(&cfg)

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("config file not found, using defaults", slog.String("path", path))
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	setFromEnv(&cfg.Port, "PORT")
	setFromEnv(&cfg.ListenAddr, "LISTEN_ADDR")
	setFromEnv(&cfg.GinMode, "GIN_MODE")
	setFromEnv(&cfg.SessionSecret, "SESSION_SECRET")
	setFromEnv(&cfg.LogLevel, "LOG_LEVEL")
	setFromEnv(&cfg.Store.Driver, "STORE_DRIVER")
	setFromEnv(&cfg.Store.Path, "DATABASE_PATH")
	setFromEnv(&cfg.Store.URL, "DATABASE_URL")
	setFromEnv(&cfg.Store.Name, "DATABASE_NAME")

	// 兼容只设置了 DATABASE_URL 的部署：mongodb 连接串隐含 mongo 驱动。
	if strings.TrimSpace(os.Getenv("STORE_DRIVER")) == "" && isMongoURL(cfg.Store.URL) {
		cfg.Store.Driver = DriverMongo
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
}

func setFromEnv(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func isMongoURL(url string) bool {
	url = strings.TrimSpace(url)
	return strings.HasPrefix(url, "mongodb://") || strings.HasPrefix(url, "mongodb+srv://")
}

// Validate 校验配置。存储连接参数缺失不算错误，服务会以存储不可用的状态启动。
func (c *AppConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.GinMode, validation.In("debug", "release", "test")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	); err != nil {
		return err
	}
	return c.Store.Validate()
}

// Validate 校验存储驱动。
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(DriverSQLite, DriverMongo)),
	)
}

// SlogLevel 把配置中的日志级别转换为 slog.Level。
func (c AppConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
