package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"storefront/internal/cartstore"
	"storefront/internal/domain"
)

// PaymentOption is the shopper-facing payment choice.
type PaymentOption string

const (
	OptionCreditCard PaymentOption = "credit-card"
	OptionApplePay   PaymentOption = "apple-pay"
	OptionCash       PaymentOption = "cash"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrSubmitInProgress = errors.New("an order is already being submitted")
	// ErrCheckoutFailed is the retryable failure shown to shoppers; the
	// underlying cause is logged.
	ErrCheckoutFailed = errors.New("order could not be placed, please try again")
)

// PaymentMethod maps a shopper option onto the order payment method.
// Unrecognized options fall back to cash.
func (o PaymentOption) PaymentMethod() domain.PaymentMethod {
	switch o {
	case OptionCreditCard:
		return domain.PaymentCreditCard
	case OptionApplePay:
		return domain.PaymentApplePay
	default:
		return domain.PaymentCash
	}
}

// BuildRequest turns cart lines into an order creation request. Subtotal
// and total both carry the cart total.
func BuildRequest(items []cartstore.LineItem, option PaymentOption) domain.CreateOrderRequest {
	req := domain.CreateOrderRequest{
		Items:         make([]domain.OrderItemRequest, 0, len(items)),
		PaymentMethod: option.PaymentMethod(),
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
		req.Items = append(req.Items, domain.OrderItemRequest{
			ProductID:   item.ID,
			ProductName: item.DisplayName(),
			Quantity:    item.Quantity,
			Price:       item.Price,
			Notes:       item.Notes,
		})
	}
	req.Subtotal = total
	req.Total = total
	return req
}

type orderCreator interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
}

type cart interface {
	Items() []cartstore.LineItem
	Clear()
}

// Checkout submits the cart as an order, at most one submission at a time.
type Checkout struct {
	cart     cart
	client   orderCreator
	logger   *log.Logger
	inFlight atomic.Bool
}

func New(cart cart, client orderCreator, logger *log.Logger) *Checkout {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Checkout{cart: cart, client: client, logger: logger}
}

// Submit places an order for the current cart. The cart is cleared only when
// the order service confirms creation; on any failure it is left untouched
// and ErrCheckoutFailed is returned. No retry is attempted.
func (c *Checkout) Submit(ctx context.Context, option PaymentOption) (*domain.Order, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	defer c.inFlight.Store(false)

	items := c.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order, err := c.client.CreateOrder(ctx, BuildRequest(items, option))
	if err != nil {
		c.logger.Printf("checkout: submit lines=%d error=%v", len(items), err)
		return nil, ErrCheckoutFailed
	}
	c.cart.Clear()
	c.logger.Printf("checkout: placed order id=%s order_number=%s", order.ID, order.OrderNumber)
	return order, nil
}

// Submitting reports whether a submission is in flight.
func (c *Checkout) Submitting() bool {
	return c.inFlight.Load()
}
