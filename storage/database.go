package storage

import (
	"log"
	"os"
	"tenantdesk-server/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func connectToDB() *gorm.DB {
	// Only load .env in development (when RENDER env var is not set)
	if os.Getenv("RENDER") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Could not load .env file (this is normal in production)")
		}
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Panic("DB_CONNECTION_STRING environment variable is required")
	}

	db, dbError := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if dbError != nil {
		log.Panic("error connection to db: " + dbError.Error())
	}

	DB = db
	return db
}

func performMigrations(db *gorm.DB) {
	db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Property{},
		&models.Inquiry{}, // create table containing many side first
		&models.InquiryMessage{},
		&models.InquiryAttachment{},
		&models.MaintenanceRequest{},
		&models.Announcement{},
		&models.Document{},
		&models.Notification{},
		&models.AuditLog{},
		&models.Feedback{},
	)

	// Thread reads fetch an inquiry's messages ordered by creation time
	db.Exec("CREATE INDEX IF NOT EXISTS idx_inquiry_messages_inquiry_created ON inquiry_messages (inquiry_id, created_at);")
}

func InitializeDB() *gorm.DB {
	db := connectToDB()
	performMigrations(db)
	return db
}
