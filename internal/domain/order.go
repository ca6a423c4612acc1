package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places amounts are stored with.
const MoneyPlaces = 2

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentApplePay   PaymentMethod = "APPLE_PAY"
	PaymentCash       PaymentMethod = "CASH"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentApplePay, PaymentCash:
		return true
	}
	return false
}

// Order is a persisted purchase. Items are owned by the order and are
// created and deleted with it.
type Order struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	EstimatedTime int             `json:"estimatedTime"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []OrderItem     `json:"items"`
}

// OrderItem snapshots the product name and price at order time.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Notes       string          `json:"notes"`
}

// LineSubtotal returns price × quantity. Callers round price to MoneyPlaces
// first so the product is exact at that scale.
func LineSubtotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod PaymentMethod      `json:"paymentMethod"`
}

// OrderItemRequest is one requested line. Any client-computed subtotal is
// ignored; the server derives it from price and quantity.
type OrderItemRequest struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Notes       string          `json:"notes"`
}
