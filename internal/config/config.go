package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendGorm          = "gorm"
	BackendCommercetools = "commercetools"
	BackendMemory        = "memory"
)

type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Novalnet    NovalnetConfig
	Commerce    CommerceConfig
	Checkout    CheckoutConfig
	Maintenance MaintenanceConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type StoreConfig struct {
	Backend string
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

// NovalnetConfig holds the gateway credentials. AccessKey never leaves the server.
type NovalnetConfig struct {
	AccessKey  string
	Signature  string
	Tariff     string
	PayportURL string
	Origin     string
	TestMode   bool
}

type CommerceConfig struct {
	ProjectKey   string
	ClientID     string
	ClientSecret string
	AuthURL      string
	APIURL       string
}

type CheckoutConfig struct {
	ProcessorBaseURL string
	ShopFrontendURL  string
	AttemptTimeout   time.Duration
	ReplayTTL        time.Duration
}

type MaintenanceConfig struct {
	PendingTTL     time.Duration
	ReaperSchedule string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("STORE_BACKEND", BackendGorm)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("NOVALNET_PAYPORT_URL", "https://payport.novalnet.de/v2")
	viper.SetDefault("NOVALNET_ORIGIN", "https://paygate.novalnet.de")
	viper.SetDefault("NOVALNET_TEST_MODE", true)
	viper.SetDefault("PROCESSOR_BASE_URL", "http://localhost:8080")
	viper.SetDefault("SHOP_FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("CT_AUTH_URL", "https://auth.europe-west1.gcp.commercetools.com")
	viper.SetDefault("CT_API_URL", "https://api.europe-west1.gcp.commercetools.com")
	viper.SetDefault("ATTEMPT_TIMEOUT", "5m")
	viper.SetDefault("REPLAY_TTL", "24h")
	viper.SetDefault("PENDING_TTL", "24h")
	viper.SetDefault("CRON_REAPER_SCHEDULE", "0 */15 * * * *")

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(viper.GetString("STORE_BACKEND")),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Novalnet: NovalnetConfig{
			AccessKey:  viper.GetString("NOVALNET_ACCESS_KEY"),
			Signature:  viper.GetString("NOVALNET_SIGNATURE"),
			Tariff:     viper.GetString("NOVALNET_TARIFF"),
			PayportURL: strings.TrimRight(viper.GetString("NOVALNET_PAYPORT_URL"), "/"),
			Origin:     viper.GetString("NOVALNET_ORIGIN"),
			TestMode:   viper.GetBool("NOVALNET_TEST_MODE"),
		},
		Commerce: CommerceConfig{
			ProjectKey:   viper.GetString("CT_PROJECT_KEY"),
			ClientID:     viper.GetString("CT_CLIENT_ID"),
			ClientSecret: viper.GetString("CT_CLIENT_SECRET"),
			AuthURL:      strings.TrimRight(viper.GetString("CT_AUTH_URL"), "/"),
			APIURL:       strings.TrimRight(viper.GetString("CT_API_URL"), "/"),
		},
		Checkout: CheckoutConfig{
			ProcessorBaseURL: strings.TrimRight(viper.GetString("PROCESSOR_BASE_URL"), "/"),
			ShopFrontendURL:  strings.TrimRight(viper.GetString("SHOP_FRONTEND_URL"), "/"),
			AttemptTimeout:   durationOr("ATTEMPT_TIMEOUT", 5*time.Minute),
			ReplayTTL:        durationOr("REPLAY_TTL", 24*time.Hour),
		},
		Maintenance: MaintenanceConfig{
			PendingTTL:     durationOr("PENDING_TTL", 24*time.Hour),
			ReaperSchedule: viper.GetString("CRON_REAPER_SCHEDULE"),
		},
	}

	if cfg.Novalnet.AccessKey == "" {
		log.Println("WARNING: NOVALNET_ACCESS_KEY is not set, every gateway callback will be rejected")
	}
	if cfg.Store.Backend == BackendGorm && cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Store.Backend == BackendCommercetools && cfg.Commerce.ProjectKey == "" {
		log.Println("WARNING: CT_PROJECT_KEY is not set")
	}

	return cfg, nil
}

// LoadDatabaseOnly reads just the database section, for the --bootstrap-db mode.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	return &cfg.Database, nil
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
