// README: Config loader with env defaults for HTTP, DB, Redis, maps, matching, and fares.
package config

import (
	"os"
	"strconv"
	"time"
)

// MatchingConfig holds the offer negotiation knobs. The defaults encode the
// production protocol: 15s offers polled once a second, five candidate rounds.
type MatchingConfig struct {
	OfferTTL     time.Duration
	PollInterval time.Duration
	MaxRounds    int
}

// FareConfig holds the pricing constants and the estimation assumptions.
type FareConfig struct {
	BaseFare      float64
	PerKm         float64
	PerMinute     float64
	AvgSpeedKmh   float64
	MinETAMinutes int
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Maps struct {
		APIKey string
		// FallbackLat/Lng are used when geocoding fails; estimation degrades
		// instead of erroring.
		FallbackLat float64
		FallbackLng float64
	}
	Matching MatchingConfig
	Fare     FareConfig
	LogLevel string
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("SAFAR_HTTP_ADDR", ":8080")
	cfg.DB.DSN = os.Getenv("SAFAR_DB_DSN")
	cfg.Redis.Addr = os.Getenv("SAFAR_REDIS_ADDR")
	cfg.Maps.APIKey = os.Getenv("SAFAR_MAPS_API_KEY")
	cfg.Maps.FallbackLat = envOrDefaultFloat("SAFAR_MAPS_FALLBACK_LAT", 33.5731)
	cfg.Maps.FallbackLng = envOrDefaultFloat("SAFAR_MAPS_FALLBACK_LNG", -7.5898)
	cfg.Matching.OfferTTL = envOrDefaultDuration("SAFAR_OFFER_TTL", 15*time.Second)
	cfg.Matching.PollInterval = envOrDefaultDuration("SAFAR_OFFER_POLL_INTERVAL", time.Second)
	cfg.Matching.MaxRounds = envOrDefaultInt("SAFAR_MATCH_MAX_ROUNDS", 5)
	cfg.Fare.BaseFare = envOrDefaultFloat("SAFAR_FARE_BASE", 5)
	cfg.Fare.PerKm = envOrDefaultFloat("SAFAR_FARE_PER_KM", 2)
	cfg.Fare.PerMinute = envOrDefaultFloat("SAFAR_FARE_PER_MIN", 0.5)
	cfg.Fare.AvgSpeedKmh = envOrDefaultFloat("SAFAR_FARE_AVG_SPEED_KMH", 30)
	cfg.Fare.MinETAMinutes = envOrDefaultInt("SAFAR_FARE_MIN_ETA_MIN", 5)
	cfg.LogLevel = envOrDefault("SAFAR_LOG_LEVEL", "info")
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
