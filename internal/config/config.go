package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppPort         = "3000"
	defaultPaystackBaseURL = "https://api.paystack.co"
	defaultCurrency        = "KES"
	defaultGatewayTimeout  = 30 * time.Second
	defaultRateLimitRPS    = 2.0
	defaultRateLimitBurst  = 5
)

type Config struct {
	AppPort            string
	AppEnv             string
	AppURL             string
	PaystackSecretKey  string
	PaystackBaseURL    string
	Currency           string
	GatewayTimeout     time.Duration
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}

	return cfg
}

// FromEnv reads the configuration from the process environment, applying
// defaults for optional values. It does not validate.
func FromEnv() *Config {
	return &Config{
		AppPort:            getEnv("APP_PORT", defaultAppPort),
		AppEnv:             os.Getenv("APP_ENV"),
		AppURL:             strings.TrimRight(os.Getenv("APP_URL"), "/"),
		PaystackSecretKey:  os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:    strings.TrimRight(getEnv("PAYSTACK_BASE_URL", defaultPaystackBaseURL), "/"),
		Currency:           strings.ToUpper(getEnv("PAYMENT_CURRENCY", defaultCurrency)),
		GatewayTimeout:     getDuration("GATEWAY_TIMEOUT", defaultGatewayTimeout),
		RateLimitRPS:       getFloat("RATE_LIMIT_RPS", defaultRateLimitRPS),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", defaultRateLimitBurst),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"https://*", "http://*"}),
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.AppURL == "" {
		errs = append(errs, errors.New("APP_URL is required"))
	}
	if c.PaystackSecretKey == "" {
		errs = append(errs, errors.New("PAYSTACK_SECRET_KEY is required"))
	}
	if c.GatewayTimeout <= 0 {
		errs = append(errs, errors.New("GATEWAY_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// CallbackURL is where the gateway sends the buyer after the hosted payment page.
func (c *Config) CallbackURL() string {
	return c.AppURL + "/payment/callback"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, defaulting to %s", key, v, fallback)
		return fallback
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, defaulting to %v", key, v, fallback)
		return fallback
	}
	return f
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func getList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
