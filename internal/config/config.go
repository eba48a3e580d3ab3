// config.go
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	MongoDBName string
	RabbitURL   string
	Port        string
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmail  string
	BaseURL     string
	UploadDir   string
}

func Load() *Config {
	// Si no hay .env no pasa nada, se usan las variables del entorno.
	_ = godotenv.Load()

	return &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://host.docker.internal:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "sourcing_marketplace_db"),
		RabbitURL:   getEnv("RABBIT_URL", "amqp://host.docker.internal"),
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:    getDuration("TOKEN_TTL", 72*time.Hour),
		AdminEmail:  getEnv("ADMIN_EMAIL", "mahir@gmail.com"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
