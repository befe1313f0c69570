package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment   string
	DatabaseURL   string
	RunMigrations bool

	// Login With Amazon credentials used to refresh SP-API access tokens
	ClientID     string
	ClientSecret string
	TokenURL     string

	Endpoint          string
	MarketplaceID     string
	RequestsPerSecond float64
	RequestBurst      int
	HTTPTimeout       time.Duration

	ReportDaysBack     int
	OrderDaysBack      int
	ReportMaxWait      time.Duration
	ReportPollInterval time.Duration
	DistributorView    string
	SellingProgram     string

	MemoryLimitMB int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	clientID := strings.TrimSpace(os.Getenv("SP_API_CLIENT_ID"))
	clientSecret := strings.TrimSpace(os.Getenv("SP_API_CLIENT_SECRET"))
	if clientID == "" || clientSecret == "" {
		fmt.Println("Warning: SP_API_CLIENT_ID or SP_API_CLIENT_SECRET not set, token refresh will not work")
	}

	cfg := &Config{
		Environment:   getEnv("APP_ENV", "production"),
		DatabaseURL:   dbURL,
		RunMigrations: getBool("RUN_MIGRATIONS", true),

		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     getEnv("LWA_TOKEN_URL", "https://api.amazon.com/auth/o2/token"),

		Endpoint:          strings.TrimRight(getEnv("SP_API_ENDPOINT", "https://sellingpartnerapi-na.amazon.com"), "/"),
		MarketplaceID:     getEnv("MARKETPLACE_ID", "ATVPDKIKX0DER"),
		RequestsPerSecond: getFloat("SP_API_RPS", 2),
		RequestBurst:      getInt("SP_API_BURST", 10),
		HTTPTimeout:       getDuration("HTTP_TIMEOUT", 60*time.Second),

		ReportDaysBack:     getInt("REPORT_DAYS_BACK", 7),
		OrderDaysBack:      getInt("PO_DAYS_BACK", 30),
		ReportMaxWait:      getDuration("REPORT_MAX_WAIT", 2*time.Minute),
		ReportPollInterval: getDuration("REPORT_POLL_INTERVAL", 3*time.Second),
		DistributorView:    getEnv("DISTRIBUTOR_VIEW", "MANUFACTURING"),
		SellingProgram:     getEnv("SELLING_PROGRAM", "RETAIL"),

		MemoryLimitMB: getInt("MEMORY_LIMIT_MB", 450),
	}

	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("SP_API_RPS must be positive")
	}
	if cfg.RequestBurst < 1 {
		cfg.RequestBurst = 1
	}

	return cfg, nil
}

// IsDevelopment reports whether verbose development logging should be used
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}
