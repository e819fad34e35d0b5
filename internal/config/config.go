// Package config loads runtime settings from the environment, after an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/lucasfdcampos/find-suppliers/pkg/freight"
)

// Config holds every setting shared by the CLI and the API server.
type Config struct {
	Addr      string
	LogLevel  string
	LogFormat string

	SerpAPIKey     string
	ORSAPIKey      string
	GeoapifyAPIKey string
	TomTomAPIKey   string
	NFeIOAPIKey    string
	NFeIOCompanyID string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DestinationUF     string
	FreightMode       freight.Mode
	HTTPTimeout       time.Duration
	DefaultQuoteValue decimal.Decimal
	LocalSearchCity   string
}

// Load reads files (default ".env") into the environment without
// overriding variables already set, then builds the Config. Missing files
// are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("config: erro ao ler %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:            getEnv("ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		SerpAPIKey:      os.Getenv("SERPAPI_KEY"),
		ORSAPIKey:       os.Getenv("ORS_API_KEY"),
		GeoapifyAPIKey:  os.Getenv("GEOAPIFY_API_KEY"),
		TomTomAPIKey:    os.Getenv("TOMTOM_API_KEY"),
		NFeIOAPIKey:     os.Getenv("NFEIO_API_KEY"),
		NFeIOCompanyID:  os.Getenv("NFEIO_COMPANY_ID"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		DestinationUF:   strings.ToUpper(lookupEnv("DESTINATION_UF", "RS")),
		LocalSearchCity: getEnv("LOCAL_SEARCH_CITY", "Porto Alegre"),
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return Config{}, fmt.Errorf("config: REDIS_DB inválido: %w", err)
	}
	if cfg.FreightMode, err = freight.ParseMode(os.Getenv("FREIGHT_MODE")); err != nil {
		return Config{}, fmt.Errorf("config: FREIGHT_MODE: %w", err)
	}
	if cfg.HTTPTimeout, err = time.ParseDuration(getEnv("HTTP_TIMEOUT", "10s")); err != nil {
		return Config{}, fmt.Errorf("config: HTTP_TIMEOUT inválido: %w", err)
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("config: HTTP_TIMEOUT deve ser positivo")
	}
	if cfg.DefaultQuoteValue, err = decimal.NewFromString(getEnv("DEFAULT_QUOTE_VALUE", "50000")); err != nil {
		return Config{}, fmt.Errorf("config: DEFAULT_QUOTE_VALUE inválido: %w", err)
	}
	return cfg, nil
}

// RoutingEnabled reports whether the road-routing distance tier can run.
func (c Config) RoutingEnabled() bool { return c.ORSAPIKey != "" }

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// lookupEnv only falls back when key is unset; an explicit empty value is kept.
func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}
