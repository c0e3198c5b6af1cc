package config

import (
	"os"
	"strconv"
	"strings"

	"filmorate_social/logging"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	StorageDriver string // postgres | memory
	RedisURL      string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	AdminUserIDs  []uuid.UUID

	LogLevel  string
	LogFormat string

	StrictLikes            bool
	RecommendMinOverlap    int
	RecommendNeighborLimit int
	PopularDefaultLimit    int
	PopularCacheTTLSeconds int
	BreakerTimeoutSeconds  int
}

func Load() *Config {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg("no .env file found, using system environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	strictLikes, _ := strconv.ParseBool(getEnv("STRICT_LIKES", "false"))

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "postgres")),
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminUserIDs:  parseUUIDList(os.Getenv("ADMIN_USER_IDS")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StrictLikes:            strictLikes,
		RecommendMinOverlap:    getEnvInt("RECOMMEND_MIN_OVERLAP", 1),
		RecommendNeighborLimit: getEnvInt("RECOMMEND_NEIGHBOR_LIMIT", 10),
		PopularDefaultLimit:    getEnvInt("POPULAR_DEFAULT_LIMIT", 10),
		PopularCacheTTLSeconds: getEnvInt("POPULAR_CACHE_TTL_SECONDS", 60),
		BreakerTimeoutSeconds:  getEnvInt("BREAKER_TIMEOUT_SECONDS", 30),
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		logging.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer in environment, using default")
		return defaultValue
	}
	return value
}

// parseUUIDList 解析逗号分隔的 UUID，非法项跳过
func parseUUIDList(raw string) []uuid.UUID {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			logging.Warn().Str("value", part).Msg("ignoring invalid admin user id")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
