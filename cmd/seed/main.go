package main

import (
	"flag"
	"log"

	"github.com/FieldScope/FS-Backend/internal/campaigns"
	"github.com/FieldScope/FS-Backend/internal/db"
	"github.com/FieldScope/FS-Backend/internal/seeds"
	"github.com/joho/godotenv"
)

var seedPath = flag.String("file", "seeds/demo.yaml", "Path to the YAML seed file")

func main() {
	flag.Parse()
	_ = godotenv.Load(".env.local")

	db.Connect()
	campaigns.Init()

	if err := seeds.SeedFromFile(*seedPath); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
