package campaigns

import (
	"log"

	"github.com/FieldScope/FS-Backend/internal/db"
)

func Init() {
	// Ensure the campaigns schema exists first
	if err := db.EnsureSchema(db.DB, "campaigns"); err != nil {
		log.Fatal("Failed to create campaigns schema: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("Failed to enable uuid-ossp extension:", err)
	}

	if err := db.DB.AutoMigrate(
		&Campaign{},
		&Area{},
		&PointOfInterest{},
		&Task{},
		&UserTaskResponse{},
		&Membership{},
	); err != nil {
		log.Fatal("Failed to auto-migrate campaigns tables: ", err)
	}

	log.Println("Campaigns module initialized")
}
