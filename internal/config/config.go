package config

import (
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Port              string
	DatabaseURL       string
	DedupeProfilePath string
	SyncCronSpec      string
}

// Load reads service settings from the environment. godotenv runs in main
// before this, so a local .env is already applied.
func Load() Config {
	return Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=quillswitch port=5432 sslmode=disable"),
		DedupeProfilePath: getEnv("DEDUPE_PROFILE_PATH", "dedupe.yaml"),
		SyncCronSpec:      os.Getenv("SYNC_CRON_SPEC"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	return db
}
