package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	NameZh      string          `json:"nameZh,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	IsAvailable bool            `json:"isAvailable"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// DisplayName prefers the localized name.
func (p Product) DisplayName() string {
	if p.NameZh != "" {
		return p.NameZh
	}
	return p.Name
}
