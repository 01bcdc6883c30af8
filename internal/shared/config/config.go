package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string
	SessionSecret   string
	SessionTTL      time.Duration

	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string
	S3Endpoint         string
	TextractSNSTopic   string
	TextractRoleARN    string

	PresignTTL time.Duration
	Poll       PollConfig

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
}

// PollConfig controls how the reader view re-queries an in-progress job.
// MaxAttempts of zero means no cap. A Multiplier of 1 keeps the interval fixed.
type PollConfig struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	MaxAttempts int
	PageSize    int32
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		Env:             env,
		DatabaseURL:     dbURL,
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		SessionTTL:      getDuration("SESSION_TTL", 24*time.Hour),

		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("AWS_S3_BUCKET_NAME", ""),
		S3Endpoint:         getEnv("AWS_S3_ENDPOINT", ""),
		TextractSNSTopic:   getEnv("AWS_TEXTRACT_SNS_ARN", ""),
		TextractRoleARN:    getEnv("AWS_TEXTRACT_ROLE_ARN", ""),

		PresignTTL: getDuration("PRESIGN_TTL", 60*time.Second),
		Poll: PollConfig{
			Interval:    getDuration("POLL_INTERVAL", 2*time.Second),
			MaxInterval: getDuration("POLL_MAX_INTERVAL", 0),
			Multiplier:  getFloat("POLL_BACKOFF_MULTIPLIER", 1),
			MaxAttempts: getInt("POLL_MAX_ATTEMPTS", 0),
			PageSize:    int32(getInt("POLL_PAGE_SIZE", 1)),
		},

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
	}
}

// Validate reports every required AWS setting that is missing.
func (c Config) Validate() error {
	required := []struct {
		key string
		val string
	}{
		{"AWS_ACCESS_KEY_ID", c.AWSAccessKeyID},
		{"AWS_SECRET_ACCESS_KEY", c.AWSSecretAccessKey},
		{"AWS_REGION", c.AWSRegion},
		{"AWS_S3_BUCKET_NAME", c.S3Bucket},
		{"AWS_TEXTRACT_SNS_ARN", c.TextractSNSTopic},
		{"AWS_TEXTRACT_ROLE_ARN", c.TextractRoleARN},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Env == "production" && strings.TrimSpace(c.SessionSecret) == "" {
		return fmt.Errorf("missing required configuration: SESSION_SECRET")
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config env %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config env %s invalid float: %v", key, err)
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config env %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
