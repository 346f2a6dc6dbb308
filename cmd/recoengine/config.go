package main

import (
	"os"
	"strings"
)

// Config holds all environment-derived configuration for the demo host.
type Config struct {
	DBDriver           string
	DBPath             string
	DBURL              string
	Port               string
	AllowedOrigins     string
	StreamingCountry   string
	EmbeddingModelPath string
	JWTSecret          string
	WorkerSecret       string
}

// defaultSecrets lists the baked-in placeholder values that MUST be changed
// before running in production.
var defaultSecrets = map[string]string{
	"JWT_SECRET": "supersecretkey",
}

func loadConfig() Config {
	return Config{
		DBDriver:           getEnv("DB_DRIVER", "sqlite"),
		DBPath:             getEnv("DB_PATH", "/data/recoengine.db"),
		DBURL:              getEnv("DB_URL", ""),
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
		StreamingCountry:   getEnv("STREAMING_COUNTRY", "FR"),
		EmbeddingModelPath: getEnv("EMBEDDING_MODEL_PATH", ""),
		JWTSecret:          getEnv("JWT_SECRET", "supersecretkey"),
		WorkerSecret:       getEnv("WORKER_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func isInsecureDefaultsAllowed() bool {
	v := strings.ToLower(os.Getenv("ALLOW_INSECURE_DEFAULTS"))
	return v == "true" || v == "1" || v == "yes"
}
