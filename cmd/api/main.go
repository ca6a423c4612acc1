package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	"storefront/internal/storage"
)

func main() {
	// Amounts travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.DBProvider, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer store.Close()

	var publisher ordersvc.Publisher
	if cfg.AMQPURL != "" {
		p, err := events.Dial(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatalf("connect to amqp: %v", err)
		}
		defer p.Close()
		publisher = p
	}

	orderService := ordersvc.New(store.Orders, publisher, logger)
	productService := productsvc.New(store.Products)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.PingFunc(store.Ping), httpserver.Deps{
		OrderSvc:     orderService,
		ProductSvc:   productService,
		AllowOrigins: cfg.CORSAllowOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s provider=%s", cfg.HTTPAddr, store.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
