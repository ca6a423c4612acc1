package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/cartstore"
	"storefront/internal/domain"
)

type stubClient struct {
	order   *domain.Order
	err     error
	calls   int
	lastReq domain.CreateOrderRequest
	block   chan struct{}
	entered chan struct{}
}

func (s *stubClient) CreateOrder(_ context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	s.calls++
	s.lastReq = req
	if s.entered != nil {
		close(s.entered)
	}
	if s.block != nil {
		<-s.block
	}
	return s.order, s.err
}

func filledCart() *cartstore.Store {
	s := cartstore.Open(context.Background(), nil, nil)
	s.AddItem(cartstore.ProductInput{ID: "p1", Name: "Toast", Price: decimal.RequireFromString("3.50"), Quantity: 2})
	s.AddItem(cartstore.ProductInput{ID: "p2", Name: "Congee", NameZh: "粥", Price: decimal.RequireFromString("6"), Notes: "hot"})
	return s
}

func TestPaymentOptionMapping(t *testing.T) {
	cases := map[PaymentOption]domain.PaymentMethod{
		OptionCreditCard: domain.PaymentCreditCard,
		OptionApplePay:   domain.PaymentApplePay,
		OptionCash:       domain.PaymentCash,
		"wechat":         domain.PaymentCash,
		"":               domain.PaymentCash,
	}
	for option, want := range cases {
		if got := option.PaymentMethod(); got != want {
			t.Fatalf("option %q: expected %s, got %s", option, want, got)
		}
	}
}

func TestBuildRequest(t *testing.T) {
	req := BuildRequest(filledCart().Items(), OptionApplePay)

	if len(req.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(req.Items))
	}
	if req.Items[1].ProductName != "粥" || req.Items[0].ProductName != "Toast" {
		t.Fatalf("unexpected names %q %q", req.Items[0].ProductName, req.Items[1].ProductName)
	}
	if req.Items[0].Notes != "" || req.Items[1].Notes != "hot" {
		t.Fatalf("unexpected notes %+v", req.Items)
	}
	if !req.Subtotal.Equal(decimal.NewFromInt(13)) || !req.Total.Equal(req.Subtotal) {
		t.Fatalf("unexpected totals %s/%s", req.Subtotal, req.Total)
	}
	if req.PaymentMethod != domain.PaymentApplePay {
		t.Fatalf("unexpected payment %s", req.PaymentMethod)
	}
}

func TestSubmitSuccessClearsCart(t *testing.T) {
	cart := filledCart()
	client := &stubClient{order: &domain.Order{ID: "o1", OrderNumber: "#123456"}}

	order, err := New(cart, client, nil).Submit(context.Background(), OptionCash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "o1" {
		t.Fatalf("unexpected order %+v", order)
	}
	if len(cart.Items()) != 0 {
		t.Fatalf("expected cart cleared")
	}
	if client.lastReq.PaymentMethod != domain.PaymentCash {
		t.Fatalf("unexpected payment %s", client.lastReq.PaymentMethod)
	}
}

func TestSubmitFailureKeepsCart(t *testing.T) {
	cart := filledCart()
	client := &stubClient{err: errors.New("503 service unavailable")}

	_, err := New(cart, client, nil).Submit(context.Background(), OptionCreditCard)
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got %v", err)
	}
	if len(cart.Items()) != 2 {
		t.Fatalf("expected cart intact, got %+v", cart.Items())
	}
	if client.calls != 1 {
		t.Fatalf("expected no retry, got %d calls", client.calls)
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	client := &stubClient{}
	_, err := New(cartstore.Open(context.Background(), nil, nil), client, nil).Submit(context.Background(), OptionCash)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("expected no request for empty cart")
	}
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	cart := filledCart()
	client := &stubClient{
		order:   &domain.Order{ID: "o1"},
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	co := New(cart, client, nil)

	done := make(chan error, 1)
	go func() {
		_, err := co.Submit(context.Background(), OptionCash)
		done <- err
	}()
	<-client.entered

	if !co.Submitting() {
		t.Fatalf("expected submission in flight")
	}
	if _, err := co.Submit(context.Background(), OptionCash); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("expected ErrSubmitInProgress, got %v", err)
	}

	close(client.block)
	if err := <-done; err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly one request, got %d", client.calls)
	}
	if co.Submitting() {
		t.Fatalf("expected guard released")
	}
}
