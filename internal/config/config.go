// Package config собирает настройки приложения из значений по умолчанию,
// YAML-файла, флагов командной строки и переменных окружения.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config содержит настройки приложения
type Config struct {
	RunAddr           string        `koanf:"server_address"`
	GRPCAddr          string        `koanf:"grpc_address"`
	BaseURL           string        `koanf:"base_url"`
	FileStoragePath   string        `koanf:"file_storage_path"`
	DatabaseDSN       string        `koanf:"database_dsn"`
	JWTSecret         string        `koanf:"jwt_secret"`
	AdminPassword     string        `koanf:"admin_password"`
	AdminPasswordHash string        `koanf:"admin_password_hash"`
	TrustedSubnet     string        `koanf:"trusted_subnet"`
	LogLevel          string        `koanf:"log_level"`
	QueryTimeout      time.Duration `koanf:"query_timeout"`
	ConnectRetries    int           `koanf:"connect_retries"`
	ConnectRetryDelay time.Duration `koanf:"connect_retry_delay"`
	DBMaxOpenConns    int           `koanf:"db_max_open_conns"`
	DBMaxIdleConns    int           `koanf:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime"`
	CreateRateLimit   float64       `koanf:"create_rate_limit"`
	CreateRateBurst   int           `koanf:"create_rate_burst"`
	CookieTTL         time.Duration `koanf:"cookie_ttl"`
	AdminTokenTTL     time.Duration `koanf:"admin_token_ttl"`
}

// Тип хранилища, выбранный по настройкам
const (
	StoragePostgres = "postgres"
	StorageFile     = "file"
	StorageMemory   = "memory"
)

// envKeys переменные окружения, которые читает приложение
var envKeys = map[string]struct{}{
	"server_address": {}, "grpc_address": {}, "base_url": {}, "file_storage_path": {},
	"database_dsn": {}, "jwt_secret": {}, "admin_password": {}, "admin_password_hash": {},
	"trusted_subnet": {}, "log_level": {}, "query_timeout": {}, "connect_retries": {},
	"connect_retry_delay": {}, "db_max_open_conns": {}, "db_max_idle_conns": {},
	"db_conn_max_lifetime": {}, "create_rate_limit": {}, "create_rate_burst": {},
	"cookie_ttl": {}, "admin_token_ttl": {},
}

// flagKeys сопоставляет флаги ключам конфигурации
var flagKeys = map[string]string{
	"a": "server_address",
	"g": "grpc_address",
	"b": "base_url",
	"f": "file_storage_path",
	"d": "database_dsn",
	"j": "jwt_secret",
	"t": "trusted_subnet",
	"l": "log_level",
}

// Default возвращает настройки по умолчанию
func Default() *Config {
	return &Config{
		RunAddr:           ":8080",
		BaseURL:           "http://localhost:8080",
		FileStoragePath:   "storage/links.jsonl",
		JWTSecret:         "default_jwt_secret",
		LogLevel:          "info",
		QueryTimeout:      5 * time.Second,
		ConnectRetries:    3,
		ConnectRetryDelay: 2 * time.Second,
		DBMaxOpenConns:    10,
		DBMaxIdleConns:    5,
		DBConnMaxLifetime: 30 * time.Minute,
		CreateRateLimit:   5,
		CreateRateBurst:   20,
		CookieTTL:         24 * time.Hour,
		AdminTokenTTL:     time.Hour,
	}
}

// NewConfig создаёт Config. Приоритет источников по возрастанию: значения по умолчанию,
// YAML-файл (-c или CONFIG), флаги args, переменные окружения (включая .env).
func NewConfig(args []string) (*Config, error) {
	// .env не перекрывает уже заданные переменные окружения
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("c", os.Getenv("CONFIG"), "path to YAML config file")
	fs.String("a", "", "address and port to run HTTP server")
	fs.String("g", "", "address and port to run gRPC server")
	fs.String("b", "", "base URL for shortened links")
	fs.String("f", "", "path to the link journal file")
	fs.String("d", "", "database DSN for PostgreSQL")
	fs.String("j", "", "JWT secret key")
	fs.String("t", "", "trusted subnet in CIDR notation")
	fs.String("l", "", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if *configPath != "" {
		if err := k.Load(file.Provider(*configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", *configPath, err)
		}
	}

	// Учитываем только явно заданные флаги
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && flagErr == nil {
			flagErr = k.Set(key, f.Value.String())
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	err := k.Load(envprovider.Provider(".", envprovider.Opt{
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(key)
			if _, ok := envKeys[key]; !ok || value == "" {
				return "", nil // неизвестные и пустые переменные игнорируются
			}
			return key, value
		},
	}), nil)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.RunAddr = validateAddress(cfg.RunAddr)
	if cfg.GRPCAddr != "" {
		cfg.GRPCAddr = validateAddress(cfg.GRPCAddr)
	}
	cfg.BaseURL = validateBaseURL(cfg.BaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	var errs []error
	if c.QueryTimeout <= 0 {
		errs = append(errs, errors.New("query_timeout must be positive"))
	}
	if c.ConnectRetries < 0 {
		errs = append(errs, errors.New("connect_retries must not be negative"))
	}
	if c.CreateRateLimit <= 0 || c.CreateRateBurst <= 0 {
		errs = append(errs, errors.New("create rate limit and burst must be positive"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret must not be empty"))
	}
	return errors.Join(errs...)
}

// StorageType возвращает тип хранилища: PostgreSQL, если задан DSN, иначе файл, иначе память
func (c *Config) StorageType() string {
	switch {
	case c.DatabaseDSN != "":
		return StoragePostgres
	case c.FileStoragePath != "":
		return StorageFile
	default:
		return StorageMemory
	}
}

// validateAddress добавляет двоеточие к адресу, заданному одним портом
func validateAddress(addr string) string {
	if !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

// validateBaseURL добавляет схему и убирает завершающий слэш
func validateBaseURL(baseURL string) string {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return strings.TrimRight(baseURL, "/")
}
