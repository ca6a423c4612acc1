package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// ProductWriter stores catalog products.
type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type productSeed struct {
	ID          string
	Name        string
	NameZh      string
	Description string
	Price       string
	Category    string
}

var menu = []productSeed{
	{ID: "soy-milk", Name: "Soy Milk", NameZh: "豆浆", Description: "Fresh warm soy milk", Price: "2.50", Category: "drinks"},
	{ID: "youtiao", Name: "Fried Dough Stick", NameZh: "油条", Description: "Crispy golden dough stick", Price: "1.80", Category: "snacks"},
	{ID: "xiaolongbao", Name: "Soup Dumplings", NameZh: "小笼包", Description: "Six pork soup dumplings", Price: "6.80", Category: "dumplings"},
	{ID: "jianbing", Name: "Jianbing", NameZh: "煎饼果子", Description: "Savory crepe with egg and crisp", Price: "5.50", Category: "mains"},
	{ID: "congee", Name: "Century Egg Congee", NameZh: "皮蛋瘦肉粥", Description: "Rice porridge with pork and century egg", Price: "4.20", Category: "mains"},
	{ID: "tea-egg", Name: "Tea Egg", NameZh: "茶叶蛋", Description: "Egg simmered in spiced tea", Price: "1.20", Category: "snacks"},
}

// Apply upserts the demo breakfast menu. It is idempotent; menu order is
// kept by staggering creation times so the first entry lists first.
func Apply(ctx context.Context, repo ProductWriter) (int, error) {
	base := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	for i, s := range menu {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			return i, fmt.Errorf("parse price for %s: %w", s.ID, err)
		}
		p := domain.Product{
			ID:          s.ID,
			Name:        s.Name,
			NameZh:      s.NameZh,
			Description: s.Description,
			Price:       price,
			Category:    s.Category,
			IsAvailable: true,
			CreatedAt:   base.Add(time.Duration(len(menu)-i) * time.Minute),
		}
		if _, err := repo.Upsert(ctx, p); err != nil {
			return i, fmt.Errorf("upsert product %s: %w", s.ID, err)
		}
	}
	return len(menu), nil
}
