package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type orderService interface {
	Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	History(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
}

type productService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// Deps groups the services the router dispatches to.
type Deps struct {
	OrderSvc     orderService
	ProductSvc   productService
	AllowOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db Pinger, deps Deps) (*gin.Engine, error) {
	if deps.OrderSvc == nil {
		return nil, errors.New("order service required")
	}
	if deps.ProductSvc == nil {
		return nil, errors.New("product service required")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.LoggerWithWriter(logger.Writer()),
		gin.Recovery(),
		correlationID(),
		cors.New(corsConfig(deps.AllowOrigins)),
	)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	orders := &orderHandlers{svc: deps.OrderSvc, logger: logger}
	router.POST("/orders", orders.create)
	router.GET("/orders/history", orders.history)
	router.GET("/orders/:id", orders.get)

	products := &productHandlers{svc: deps.ProductSvc, logger: logger}
	router.GET("/products", products.list)
	router.GET("/products/:id", products.get)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", headerCorrelationID},
		ExposeHeaders: []string{headerCorrelationID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
