package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	LogLevel      string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration
	AMQPURL       string
	AMQPExchange  string
	AdmissionMode string
	CatalogBase   string
	CatalogKey    string
	CatalogRPS    int
	HotelIDs      []int64
	SyncWorkers   int
}

// Load reads the environment, after merging an optional .env file.
// Variables already set in the process win over the file.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ""),
		MySQLDSN:      env("MYSQL_DSN", ""),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		AMQPURL:       env("AMQP_URL", ""),
		AMQPExchange:  env("AMQP_EXCHANGE", "bookings"),
		AdmissionMode: strings.ToLower(env("ADMISSION_MODE", "atomic")),
		CatalogBase:   env("CATALOG_BASE_URL", ""),
		CatalogKey:    env("CATALOG_API_KEY", ""),
		CatalogRPS:    atoi("CATALOG_RPS", 5),
		HotelIDs:      ParseIDs(os.Getenv("CATALOG_HOTEL_IDS")),
		SyncWorkers:   atoi("SYNC_WORKERS", 8),
	}
	if c.AdmissionMode == "legacy" {
		log.Warn().Msg("ADMISSION_MODE=legacy: concurrent bookings can oversell")
	}
	return c
}

// ParseIDs reads a comma or whitespace separated id list; bad entries are skipped.
func ParseIDs(s string) []int64 {
	var out []int64
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\t' }) {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil || id <= 0 {
			log.Warn().Str("value", f).Msg("skipping invalid hotel id")
			continue
		}
		out = append(out, id)
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
