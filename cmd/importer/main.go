package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/importer"
	"storefront/internal/storage"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to product CSV (id,name,nameZh,description,price,image,category,isAvailable)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.DBProvider, cfg.DBConnString, nil)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer store.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, store.Products)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d products into %s in %s\n", count, store.Provider, time.Since(start).Truncate(time.Millisecond))
}
