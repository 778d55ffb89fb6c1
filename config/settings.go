package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Cascade modes for clearing reservations after a route is deleted.
const (
	CascadeAtomic     = "atomic"
	CascadeBestEffort = "best_effort"
)

// Settings is the runtime configuration, read from the environment.
type Settings struct {
	Port string

	DBDriver    string // mysql | postgres | sqlite
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	SQLitePath  string
	DBLogLevel  string

	CORSOrigins []string
	CascadeMode string

	AMQPURL        string
	EventsExchange string

	RateLimit RateLimitConfig
}

// Load reads Settings from the environment. Call godotenv.Load first to pick
// up a .env file.
func Load() Settings {
	driver := strings.ToLower(envOrDefault("DB_DRIVER", "mysql"))

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		dbURL = strings.TrimSpace(os.Getenv("MYSQL_URL"))
	}

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	amqpURL := strings.TrimSpace(os.Getenv("AMQP_URL"))
	if amqpURL == "" {
		amqpURL = strings.TrimSpace(os.Getenv("RABBITMQ_URL"))
	}

	return Settings{
		Port:           envOrDefault("PORT", "8080"),
		DBDriver:       driver,
		DatabaseURL:    dbURL,
		DBUser:         envOrDefault("DB_USER", "root"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         envOrDefault("DB_HOST", "127.0.0.1"),
		DBPort:         envOrDefault("DB_PORT", defaultPort),
		DBName:         envOrDefault("DB_NAME", "kayak_db"),
		SQLitePath:     envOrDefault("SQLITE_PATH", "kayak.db"),
		DBLogLevel:     envOrDefault("DB_LOG_LEVEL", "warn"),
		CORSOrigins:    ParseCorsOrigins(os.Getenv("CORS_ORIGINS")),
		CascadeMode:    parseCascadeMode(os.Getenv("CASCADE_MODE")),
		AMQPURL:        amqpURL,
		EventsExchange: envOrDefault("EVENTS_EXCHANGE", "kayak.events"),
		RateLimit:      LoadRateLimitConfig(),
	}
}

// ParseCorsOrigins splits a comma separated origin list. Empty means "*".
func ParseCorsOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func parseCascadeMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case CascadeBestEffort, "best-effort", "besteffort":
		return CascadeBestEffort
	default:
		return CascadeAtomic
	}
}

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
