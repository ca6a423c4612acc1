// Package cartstore keeps the shopper's cart in process and mirrors every
// change to a durable snapshot.
package cartstore

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// ErrNoSnapshot is returned by a Snapshotter when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no cart snapshot")

const saveTimeout = 2 * time.Second

// Snapshotter persists whole-cart snapshots.
type Snapshotter interface {
	Load(ctx context.Context) ([]LineItem, error)
	Save(ctx context.Context, items []LineItem) error
}

// LineItem is one cart line. Lines are identified by product id plus notes.
type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	NameZh   string          `json:"nameZh,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Quantity int             `json:"quantity"`
	Notes    string          `json:"notes"`
}

// DisplayName prefers the localized name.
func (l LineItem) DisplayName() string {
	if l.NameZh != "" {
		return l.NameZh
	}
	return l.Name
}

func (l LineItem) Subtotal() decimal.Decimal {
	return domain.LineSubtotal(l.Price, l.Quantity)
}

// ProductInput describes a product being added to the cart. Quantity below
// one is treated as one.
type ProductInput struct {
	ID       string
	Name     string
	NameZh   string
	Price    decimal.Decimal
	Image    string
	Quantity int
	Notes    string
}

// FromProduct builds a single-unit input from a catalog product.
func FromProduct(p domain.Product) ProductInput {
	return ProductInput{
		ID:       p.ID,
		Name:     p.Name,
		NameZh:   p.NameZh,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
	}
}

// Store is the cart. All methods are safe for concurrent use; none of them
// surface persistence errors, which are logged instead.
type Store struct {
	mu     sync.Mutex
	items  []LineItem
	snap   Snapshotter
	logger *log.Logger
	ready  bool
}

// Open restores the cart from snap and returns a store that persists every
// later change. A missing or unreadable snapshot yields an empty cart.
// snap may be nil for a memory-only cart.
func Open(ctx context.Context, snap Snapshotter, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Store{snap: snap, logger: logger, items: []LineItem{}}
	s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.ready = true }()

	if s.snap == nil {
		return
	}
	items, err := s.snap.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			s.logger.Printf("cart: restore failed, starting empty error=%v", err)
		}
		return
	}
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 || item.Price.IsNegative() {
			s.logger.Printf("cart: dropping invalid snapshot line id=%q quantity=%d", item.ID, item.Quantity)
			continue
		}
		s.items = append(s.items, item)
	}
	s.logger.Printf("cart: restored lines=%d", len(s.items))
}

// AddItem merges in onto an existing line with the same product id and
// notes, or appends a new line.
func (s *Store) AddItem(in ProductInput) {
	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == in.ID && s.items[i].Notes == in.Notes {
			s.items[i].Quantity += qty
			s.persistLocked()
			return
		}
	}
	s.items = append(s.items, LineItem{
		ID:       in.ID,
		Name:     in.Name,
		NameZh:   in.NameZh,
		Price:    in.Price,
		Image:    in.Image,
		Quantity: qty,
		Notes:    in.Notes,
	})
	s.persistLocked()
}

// RemoveItem drops every line for productID, whatever its notes.
func (s *Store) RemoveItem(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(productID)
	s.persistLocked()
}

// UpdateQuantity sets the quantity of every line for productID. A quantity
// of zero or less removes those lines.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(productID)
	} else {
		for i := range s.items {
			if s.items[i].ID == productID {
				s.items[i].Quantity = quantity
			}
		}
	}
	s.persistLocked()
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []LineItem{}
	s.persistLocked()
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total is the sum of price × quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

func (s *Store) removeLocked(productID string) {
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
}

func (s *Store) persistLocked() {
	if !s.ready || s.snap == nil {
		return
	}
	snapshot := make([]LineItem, len(s.items))
	copy(snapshot, s.items)

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.snap.Save(ctx, snapshot); err != nil {
		s.logger.Printf("cart: save snapshot lines=%d error=%v", len(snapshot), err)
	}
}
