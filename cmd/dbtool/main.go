package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"warehouse-route-service/internal/adapters/repositories"
	"warehouse-route-service/internal/config"
	"warehouse-route-service/internal/platform/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	dbPath := config.Get("DB_PATH", "data/app.db")
	seedPath := config.Get("SEED_PATH", "data/seeds/warehouse.json")

	conn, dialect, err := db.Connect(databaseURL, dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()

	log.Printf("Initializing database schema (dialect=%s)...", dialect)
	if err := repositories.InitSchema(ctx, conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	log.Println("Seeding database...")
	repo := repositories.NewSQLWarehouseRepository(conn, dialect)
	if err := repositories.SeedFromFile(ctx, repo, seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")
}
