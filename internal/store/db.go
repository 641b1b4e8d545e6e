// internal/store/db.go
package store

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"stagesync-service/internal/config"
	"stagesync-service/pkg/models"
)

var db *gorm.DB

func InitDB(cfg *config.Config) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName, cfg.DBSSLMode,
	)

	var err error
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ Failed to connect to DB: %v", err)
	}

	// Auto-migrate (safe in dev; use migrations in prod)
	err = db.AutoMigrate(
		&models.User{},
		&models.Audition{},
		&models.AuditionSlot{},
		&models.AuditionSignup{},
		&models.CallbackInvitation{},
		&models.CastMember{},
		&models.RehearsalEvent{},
		&models.AgendaItem{},
		&models.GoogleCredential{},
		&models.SyncSetting{},
		&models.SyncedEvent{},
		&models.SyncRun{},
		&models.DeviceToken{},
		&models.SyncState{},
	)
	if err != nil {
		log.Fatalf("❌ Failed to migrate: %v", err)
	}

	log.Println("✅ StageSync DB connected & migrated")
}

func GetDB() *gorm.DB {
	return db
}
