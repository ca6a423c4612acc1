package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"storefront/internal/domain"
)

const (
	// DefaultEstimatedTime is the preparation estimate, in minutes, given to new orders.
	DefaultEstimatedTime = 15
	maxNumberAttempts    = 5
	publishTimeout       = 5 * time.Second
	historyReadTimeout   = 30 * time.Second
)

type orderRepo interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
}

// Publisher announces created orders to downstream consumers.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order domain.Order) error
}

type Service struct {
	repo      orderRepo
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
	randIntn  func(n int) int
	history   singleflight.Group
}

// New builds the order service. publisher may be nil.
func New(repo orderRepo, publisher Publisher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		randIntn:  rand.IntN,
	}
}

// Create validates the request, prices every line at cent precision, and
// persists the order with its items in a single transaction.
func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, len(req.Items))
	computed := decimal.Zero
	for i, in := range req.Items {
		price := in.Price.Round(domain.MoneyPlaces)
		subtotal := domain.LineSubtotal(price, in.Quantity)
		computed = computed.Add(subtotal)
		items[i] = domain.OrderItem{
			ProductID:   strings.TrimSpace(in.ProductID),
			ProductName: in.ProductName,
			Quantity:    in.Quantity,
			Price:       price,
			Subtotal:    subtotal,
			Notes:       in.Notes,
		}
	}

	subtotal, total := req.Subtotal.Round(domain.MoneyPlaces), req.Total.Round(domain.MoneyPlaces)
	if subtotal.IsZero() && total.IsZero() {
		subtotal, total = computed, computed
	} else if !subtotal.Equal(computed) || !total.Equal(computed) {
		s.logger.Printf("order service: amount mismatch subtotal=%s total=%s computed=%s", subtotal, total, computed)
	}

	order := &domain.Order{
		Subtotal:      subtotal,
		Total:         total,
		Status:        domain.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		EstimatedTime: DefaultEstimatedTime,
		Items:         items,
	}

	var (
		created *domain.Order
		err     error
	)
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		order.OrderNumber = s.orderNumber(attempt)
		created, err = s.repo.Create(ctx, order)
		if !errors.Is(err, domain.ErrAlreadyExists) {
			break
		}
		s.logger.Printf("order service: order_number=%s taken attempt=%d", order.OrderNumber, attempt+1)
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publish(ctx, *created)
	return created, nil
}

// History returns every order, newest first. Concurrent calls share one
// database read. The shared read outlives any single caller; each caller
// still returns early when its own context ends.
func (s *Service) History(ctx context.Context) ([]domain.Order, error) {
	ch := s.history.DoChan("history", func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyReadTimeout)
		defer cancel()
		return s.repo.List(readCtx)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list orders: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("list orders: %w", res.Err)
		}
		return res.Val.([]domain.Order), nil
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// orderNumber renders "#" plus six digits. The first attempt uses the
// clock's last six millisecond digits; retries draw from 100000-999999.
func (s *Service) orderNumber(attempt int) string {
	if attempt == 0 {
		n := s.now().UnixMilli() % 1_000_000
		if n < 0 {
			n += 1_000_000
		}
		return fmt.Sprintf("#%06d", n)
	}
	return fmt.Sprintf("#%06d", 100000+s.randIntn(900000))
}

func (s *Service) publish(ctx context.Context, order domain.Order) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderCreated(pubCtx, order); err != nil {
		s.logger.Printf("order service: publish order_id=%s error=%v", order.ID, err)
	}
}

func validate(req domain.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return domain.NewValidationError("order must contain at least one item")
	}
	for i, item := range req.Items {
		switch {
		case strings.TrimSpace(item.ProductID) == "":
			return domain.NewValidationError(fmt.Sprintf("item %d: productId required", i))
		case item.Quantity < 1:
			return domain.NewValidationError(fmt.Sprintf("item %d: quantity must be at least 1", i))
		case item.Price.IsNegative():
			return domain.NewValidationError(fmt.Sprintf("item %d: price must not be negative", i))
		}
	}
	if req.Subtotal.IsNegative() || req.Total.IsNegative() {
		return domain.NewValidationError("amounts must not be negative")
	}
	if !req.PaymentMethod.Valid() {
		return domain.NewValidationError(fmt.Sprintf("invalid payment method %q", req.PaymentMethod))
	}
	return nil
}
