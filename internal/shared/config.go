package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	// Ingestion. Empty CSVPath disables the scheduler.
	CSVPath        string
	IngestInterval time.Duration
	UpsertWorkers  int

	// External tools. Empty keys disable the respective client.
	GeminiKey      string
	TavilyKey      string
	OpenWeatherKey string

	CacheTTL time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/agent?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CSVPath:        env("INGEST_CSV_PATH", ""),
		IngestInterval: time.Duration(atoi("INGEST_INTERVAL_SECONDS", 900)) * time.Second,
		UpsertWorkers:  atoi("UPSERT_WORKERS", 8),
		GeminiKey:      env("GEMINI_API_KEY", ""),
		TavilyKey:      env("TAVILY_API_KEY", ""),
		OpenWeatherKey: env("OPENWEATHER_API_KEY", ""),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.CSVPath == "" {
		log.Info().Msg("INGEST_CSV_PATH is empty; ingestion disabled")
	}
	if c.GeminiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is empty; chat will use fallback replies")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
