package database

import (
	"fmt"
	"log"

	"atelier-backend/internal/domain/catalog"
	"atelier-backend/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
	return db
}

// Migrate is split out so tests can run the same schema against sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},

		&catalog.Product{},
		&catalog.Tag{},
		&catalog.Work{},
		&catalog.Series{},
	)
}
