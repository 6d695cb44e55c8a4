package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL      string
	RequestTimeout  time.Duration
	ListStaleTime   time.Duration
	RecordStaleTime time.Duration
	StatsStaleTime  time.Duration
	GeoWait         time.Duration // upper bound on the geolocation attempt
	GeoLatitude     string        // fixed installation coordinates, empty = unavailable
	GeoLongitude    string
	StatsRefresh    string // cron expression for the background stats refresh
	Environment     string
	AppId           string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8080"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		ListStaleTime:   getEnvDuration("LIST_STALE_TIME", 30*time.Second),
		RecordStaleTime: getEnvDuration("RECORD_STALE_TIME", 60*time.Second),
		StatsStaleTime:  getEnvDuration("STATS_STALE_TIME", 60*time.Second),
		GeoWait:         getEnvDuration("GEO_WAIT", 3*time.Second),
		GeoLatitude:     getEnv("GEO_LATITUDE", ""),
		GeoLongitude:    getEnv("GEO_LONGITUDE", ""),
		StatsRefresh:    getEnv("STATS_REFRESH", "@every 1m"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		AppId:           getEnv("APP_ID", "stationwatch"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback %s", key, fallback)
	}
	return fallback
}
