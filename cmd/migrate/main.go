package main

import (
	"context"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.DBProvider, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	logger.Printf("migrations applied provider=%s", store.Provider)
}
