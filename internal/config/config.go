package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session tokens issued by the frontend gateway
	SessionJWTSecret string

	// Identity provider
	IdentityAPIURL       string
	IdentityAPIKey       string
	IdentityWebhookToken string

	// Payment provider
	PaymentWebhookToken string

	// Ledger policy
	InitialCreditGrant int64

	// Admin
	AdminToken string

	// Server
	Port        string
	CORSOrigins string

	// Plan catalog
	PlansConfigPath string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "credits_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		SessionJWTSecret: getEnv("SESSION_JWT_SECRET", ""),

		IdentityAPIURL:       getEnv("IDENTITY_API_URL", "https://api.clerk.com/v1"),
		IdentityAPIKey:       getEnv("IDENTITY_API_KEY", ""),
		IdentityWebhookToken: getEnv("IDENTITY_WEBHOOK_TOKEN", ""),

		PaymentWebhookToken: getEnv("PAYMENT_WEBHOOK_TOKEN", ""),

		InitialCreditGrant: parseInt64(getEnv("INITIAL_CREDIT_GRANT", "10")),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		PlansConfigPath: getEnv("PLANS_CONFIG_PATH", "plans.json"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 10
	}
	return n
}
