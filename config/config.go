package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBUrl       string
	FrontendURL string
	// Redis Configuration (optional, used as a match-result cache)
	RedisURL      string
	RedisPassword string
	// Matching Engine Configuration
	MatchPreviewK       int // default result count for live/preview matching
	MatchMaxK           int // upper bound on caller-supplied k
	ScoringWorkers      int // 0 = runtime.NumCPU()
	ScoringTimeoutMs    int // hard wall-clock budget per scoring pass
	MatchCacheTTLSecs   int // TTL for cached ranked results
	SnapshotRefreshSecs int // candidate snapshot refresh cadence
	// Match Session Configuration
	SessionPollSeconds  int // idle recompute interval
	SessionMaxIdlePolls int // idle polls before a session pauses
	SessionIdleTTLSecs  int // seconds without client contact before eviction
}

func LoadConfig() (*Config, error) {
	// Only effective locally; ignored in production when the file is absent
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DBUrl:       getEnv("DATABASE_URL", ""),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		// Matching Engine Configuration (with sensible defaults)
		MatchPreviewK:       getEnvInt("MATCH_PREVIEW_K", 3),
		MatchMaxK:           getEnvInt("MATCH_MAX_K", 25),
		ScoringWorkers:      getEnvInt("SCORING_WORKERS", 0),
		ScoringTimeoutMs:    getEnvInt("SCORING_TIMEOUT_MS", 500),
		MatchCacheTTLSecs:   getEnvInt("MATCH_CACHE_TTL_SECONDS", 30),
		SnapshotRefreshSecs: getEnvInt("SNAPSHOT_REFRESH_SECONDS", 30),
		// Match Session Configuration
		SessionPollSeconds:  getEnvInt("SESSION_POLL_SECONDS", 2),
		SessionMaxIdlePolls: getEnvInt("SESSION_MAX_IDLE_POLLS", 15),
		SessionIdleTTLSecs:  getEnvInt("SESSION_IDLE_TTL_SECONDS", 300),
	}

	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}

	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Match results will not be cached.")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
