package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Record store
	StoreBackend         string // redis, postgres, dynamodb, sqlite, memory
	StoreKeyScope        string // user or app
	RedisAddr            string
	RedisPassword        string
	RedisTLS             bool
	DatabaseURL          string
	SQLitePath           string
	DynamoDBRecordsTable string
	RecordRefreshAfter   time.Duration // reread a cached record older than this
	RecordIdleTTL        time.Duration // drop cached records unused this long

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Generative AI
	GeminiAPIKey         string
	GeminiBootstrapModel string
	GeminiChatModel      string
	BedrockModelID       string
	BootstrapValuePolicy string // zero or keep

	// Session gate
	SessionSecret  string
	SessionTTL     time.Duration
	GoogleClientID string
	// AllowUnverifiedLogin opens email-only login for local development.
	// Ignored in production.
	AllowUnverifiedLogin bool

	// HTTP
	CORSAllowedOrigins []string
	ChatRatePerSec     float64
	ChatRateBurst      int

	// Export and audit
	ExportBucket     string
	AuditDatabaseURL string

	// Contact form email
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	ContactRecipient  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:         strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", "redis"))),
		StoreKeyScope:        strings.ToLower(strings.TrimSpace(getEnv("STORE_KEY_SCOPE", "user"))),
		RedisAddr:            getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		SQLitePath:           getEnv("SQLITE_PATH", "medic_pro.db"),
		DynamoDBRecordsTable: getEnv("DYNAMODB_RECORDS_TABLE", "clinic_records"),
		RecordRefreshAfter:   getEnvAsDuration("RECORD_REFRESH_AFTER", 30*time.Second),
		RecordIdleTTL:        getEnvAsDuration("RECORD_IDLE_TTL", 30*time.Minute),

		AWSRegion:           getEnv("AWS_REGION", "eu-west-3"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		GeminiAPIKey:         getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		GeminiBootstrapModel: getEnv("GEMINI_BOOTSTRAP_MODEL", "gemini-2.5-flash"),
		GeminiChatModel:      getEnv("GEMINI_CHAT_MODEL", "gemini-2.5-pro"),
		BedrockModelID:       getEnv("BEDROCK_MODEL_ID", ""),
		BootstrapValuePolicy: strings.ToLower(strings.TrimSpace(getEnv("BOOTSTRAP_VALUE_POLICY", "zero"))),

		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		AllowUnverifiedLogin: getEnvAsBool("AUTH_ALLOW_UNVERIFIED_LOGIN", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		ChatRatePerSec:     getEnvAsFloat("CHAT_RATE_PER_SEC", 0.5),
		ChatRateBurst:      getEnvAsInt("CHAT_RATE_BURST", 5),

		ExportBucket:     getEnv("EXPORT_BUCKET", ""),
		AuditDatabaseURL: getEnv("AUDIT_DATABASE_URL", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "MedicPro"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		ContactRecipient:  getEnv("CONTACT_RECIPIENT", ""),
	}
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UnverifiedLoginEnabled reports whether email-only login may be served.
func (c *Config) UnverifiedLoginEnabled() bool {
	return c.AllowUnverifiedLogin && !c.IsProduction()
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
