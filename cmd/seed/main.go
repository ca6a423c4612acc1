package main

import (
	"context"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/seed"
	"storefront/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.DBProvider, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer store.Close()

	n, err := seed.Apply(ctx, store.Products)
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied products=%d", n)
}
