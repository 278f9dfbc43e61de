package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config is loaded once at startup and injected into the components that need
// it. Nothing reads the environment after Load returns.
type Config struct {
	Port       string
	DBURL      string
	JWTSecret  string
	CORSOrigin string

	// Asset store (Cloudinary-style image CDN). Leaving these empty disables
	// uploads and turns remote deletes into no-ops.
	CloudName      string
	CloudAPIKey    string
	CloudAPISecret string
	CloudFolder    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	return &Config{
		Port:       getEnv("PORT", "8080"),
		DBURL:      mustEnv("DB_URL"),
		JWTSecret:  mustEnv("JWT_SECRET"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		CloudName:      getEnv("CLOUD_NAME", ""),
		CloudAPIKey:    getEnv("CLOUD_API_KEY", ""),
		CloudAPISecret: getEnv("CLOUD_API_SECRET", ""),
		CloudFolder:    getEnv("CLOUD_FOLDER", ""),
	}
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
