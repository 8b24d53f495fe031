package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"hypotest/adapters/db/migrations"
	"hypotest/adapters/postgres"
	"hypotest/internal/config"
)

func main() {
	if len(os.Args) < 2 || (os.Args[1] != "up" && os.Args[1] != "status") {
		log.Fatal("Usage: migrate up|status")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db)

	if os.Args[1] == "up" {
		if err := migrator.Up(ctx); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Fatalf("Failed to read migration status: %v", err)
	}
	for _, s := range status {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		log.Printf("%s %-40s %s", s.Version, s.Name, state)
	}
}
