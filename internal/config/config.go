package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	AuthModeDatabase = "database"
	AuthModeRemote   = "remote"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	// session verification
	AuthMode            string // "database" or "remote"
	AuthServiceURL      string
	AuthTimeoutSeconds  int
	SessionCacheTTLSecs int
	SessionCachePepper  string

	// identity cache backend (in-process fallback when empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSOrigins []string

	RateLimit         int
	RateWindowSeconds int

	MaxBodyBytes int64

	OTELEndpoint string
}

func Load() Config {
	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	return Config{
		Env:   env,
		Port:  port,
		DBURL: dbURL,

		AuthMode:            getEnv("AUTH_MODE", AuthModeDatabase),
		AuthServiceURL:      getEnv("AUTH_SERVICE_URL", ""),
		AuthTimeoutSeconds:  getEnvInt("AUTH_TIMEOUT_SECONDS", 10),
		SessionCacheTTLSecs: getEnvInt("SESSION_CACHE_TTL_SECONDS", 30),
		SessionCachePepper:  getEnv("SESSION_CACHE_PEPPER", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		RateLimit:         getEnvInt("RATE_LIMIT", 120),
		RateWindowSeconds: getEnvInt("RATE_WINDOW_SECONDS", 60),

		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	// a fully formed DATABASE_URL wins over the assembled parts
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "taskdeck")
	pass := getEnv("DB_PASSWORD", "taskdeck")
	name := getEnv("DB_NAME", "taskdeck")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
		}

		return num
	}
	return fallback
}
