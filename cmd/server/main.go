package main

import (
	"log"
	"time"

	"github.com/paullyd2112/quillswitch-sub006/internal/config"
	"github.com/paullyd2112/quillswitch-sub006/internal/models"
	"github.com/paullyd2112/quillswitch-sub006/internal/routes"
	"github.com/paullyd2112/quillswitch-sub006/internal/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg := config.Load()
	db := config.InitDB(cfg.DatabaseURL)

	db.AutoMigrate(
		&models.CRMConnection{},
		&models.MigrationProject{},
		&models.FieldMapping{},
		&models.StagedRecord{},
		&models.MigrationRun{},
		&models.ReviewAuditLog{},
	)

	profiles, err := config.LoadProfiles(cfg.DedupeProfilePath)
	if err != nil {
		log.Fatal("loading dedupe profiles: ", err)
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Reviewed-By"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	migrationService := routes.RegisterRoutes(r, db, profiles)

	if cfg.SyncCronSpec != "" {
		sched, err := scheduler.New(cfg.SyncCronSpec, migrationService)
		if err != nil {
			log.Fatal(err)
		}
		sched.Start()
		defer sched.Stop()
		log.Println("delta sync scheduled:", cfg.SyncCronSpec)
	}

	r.Run(":" + cfg.Port)
}
