package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Environment string // ENV: production, development, etc.
	Port        string
	Host        string   // Raw HOST env (e.g. https://api.sentimentpulse.app)
	AllowedHost string   // Hostname only for strict host check (production only)
	LogLevel    string
	// CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	AllowedOrigins []string

	StoreDriver string // postgres or memory
	PostgresURI string
	RedisURI    string // empty runs sessions, cache and feed in-process
	MongoURI    string // empty disables the import archive

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	Classifier         string // lexicon or gemini
	GeminiAPIKey       string
	GeminiModel        string
	ClassifierTimeout  time.Duration
	ClassifierCacheTTL time.Duration

	ImportConcurrency int
	ImportMaxRows     int
	ImportMaxBytes    int64

	SessionTTL time.Duration
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	return &Config{
		Environment:    env,
		Port:           getEnv("PORT", "8080"),
		Host:           host,
		AllowedHost:    allowedHost,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: allowedOrigins,

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		PostgresURI: getEnv("POSTGRES_URI", "postgres://localhost:5432/sentimentpulse?sslmode=disable"),
		RedisURI:    os.Getenv("REDIS_URI"),
		MongoURI:    getEnv("MONGODB_URI", os.Getenv("MONGO_URI")),

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		Classifier:         strings.ToLower(getEnv("CLASSIFIER", "lexicon")),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", ""),
		ClassifierTimeout:  getDuration("CLASSIFIER_TIMEOUT", 10*time.Second),
		ClassifierCacheTTL: getDuration("CLASSIFIER_CACHE_TTL", 24*time.Hour),

		ImportConcurrency: getInt("IMPORT_CONCURRENCY", 8),
		ImportMaxRows:     getInt("IMPORT_MAX_ROWS", 10000),
		ImportMaxBytes:    int64(getInt("IMPORT_MAX_BYTES", 5<<20)),

		SessionTTL: getDuration("SESSION_TTL", 7*24*time.Hour),
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CloudinaryEnabled reports whether all Cloudinary credentials are set.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// hostname strips scheme, path and port from a HOST value.
func hostname(host string) string {
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.TrimSpace(host)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Int("default", defaultValue).Msg("⚠️ invalid integer, using default")
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Dur("default", defaultValue).Msg("⚠️ invalid duration, using default")
		return defaultValue
	}
	return d
}
