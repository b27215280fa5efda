package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Remote      RemoteConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Checkout    CheckoutConfig
	Catalog     CatalogConfig
	Widget      WidgetConfig
	CORSOrigins []string
}

type RemoteConfig struct {
	BaseURL          string
	AssistantBaseURL string
	Timeout          time.Duration
	UserID           int64
}

type StorageConfig struct {
	Driver string
	Path   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type CheckoutConfig struct {
	CourierSurcharge decimal.Decimal
	RedirectDelay    time.Duration
}

type CatalogConfig struct {
	PerPage int
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_DRIVER", "file")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	timeout, err := time.ParseDuration(getEnvOrViper("HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	redirectDelay, err := time.ParseDuration(getEnvOrViper("CHECKOUT_REDIRECT_DELAY", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECKOUT_REDIRECT_DELAY: %w", err)
	}
	surcharge, err := decimal.NewFromString(getEnvOrViper("COURIER_SURCHARGE", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid COURIER_SURCHARGE: %w", err)
	}
	userID, err := strconv.ParseInt(getEnvOrViper("USER_ID", "1"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid USER_ID: %w", err)
	}
	perPage, err := strconv.Atoi(getEnvOrViper("PRODUCTS_PER_PAGE", "8"))
	if err != nil || perPage <= 0 {
		return nil, fmt.Errorf("invalid PRODUCTS_PER_PAGE: %q", getEnvOrViper("PRODUCTS_PER_PAGE", "8"))
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Remote: RemoteConfig{
			BaseURL:          strings.TrimSuffix(getEnvOrViper("API_BASE_URL", "http://localhost:5001/api"), "/"),
			AssistantBaseURL: strings.TrimSuffix(getEnvOrViper("ASSISTANT_API_URL", "http://localhost:5000/api"), "/"),
			Timeout:          timeout,
			UserID:           userID,
		},
		Storage: StorageConfig{
			Driver: getEnvOrViper("STORAGE_DRIVER", "file"),
			Path:   getEnvOrViper("STORAGE_PATH", "data/storage.json"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "ecostore"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Checkout: CheckoutConfig{
			CourierSurcharge: surcharge,
			RedirectDelay:    redirectDelay,
		},
		Catalog: CatalogConfig{
			PerPage: perPage,
		},
		CORSOrigins: splitList(getEnvOrViper("CORS_ORIGINS", "*")),
	}

	widgetCfg, err := LoadWidget(getEnvOrViper("WIDGET_CONFIG", ""))
	if err != nil {
		return nil, err
	}
	if widgetCfg.APIURL == "" {
		widgetCfg.APIURL = cfg.Remote.AssistantBaseURL
	}
	if mode := getEnvOrViper("WIDGET_HOST_MODE", ""); mode != "" {
		widgetCfg.HostMode = mode
	}
	cfg.Widget = *widgetCfg

	switch cfg.Storage.Driver {
	case "file", "memory", "postgres":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
