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

	OverpassBase  string
	DirectoryBase string
	DirectoryKey  string

	ImagesBase string

	// Default catalog geography when a request doesn't pin its own.
	CenterLat float64
	CenterLon float64
	RadiusM   int

	CacheTTL      time.Duration
	ImageCacheTTL time.Duration

	SnapshotPath    string
	SourcesDisabled bool
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
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ":9100"),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/localspot?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		OverpassBase:    env("OVERPASS_BASE_URL", "https://overpass-api.de"),
		DirectoryBase:   env("DIRECTORY_BASE_URL", "https://api.yelp.com"),
		DirectoryKey:    env("DIRECTORY_API_KEY", ""),
		ImagesBase:      env("IMAGES_BASE_URL", ""),
		CenterLat:       atof("CENTER_LAT", 45.5231),
		CenterLon:       atof("CENTER_LON", -122.6765),
		RadiusM:         atoi("RADIUS_METERS", 2000),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 3600)) * time.Second,
		ImageCacheTTL:   time.Duration(atoi("IMAGE_CACHE_TTL_SECONDS", 86400)) * time.Second,
		SnapshotPath:    env("SNAPSHOT_PATH", ""),
		SourcesDisabled: env("SOURCES_DISABLED", "") == "true",
	}
	if c.DirectoryKey == "" {
		log.Warn().Msg("DIRECTORY_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
