package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type stubProductRepo struct {
	items []domain.Product
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := "id,name,nameZh,description,price,image,category,isAvailable\n" +
		"soy-milk,Soy Milk,豆浆,Warm soy milk,2.50,/img/soy.jpg,drinks,true\n" +
		",,,,,,,\n" +
		",Tea Egg,茶叶蛋,,1.2,,snacks,\n" +
		"old-bun,Old Bun,,,3,,bakery,false\n"

	repo := &stubProductRepo{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 || len(repo.items) != 3 {
		t.Fatalf("expected 3 products imported, got %d/%d", count, len(repo.items))
	}

	first := repo.items[0]
	if first.ID != "soy-milk" || first.NameZh != "豆浆" || first.Image != "/img/soy.jpg" || !first.Price.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if repo.items[1].ID != "" || !repo.items[1].IsAvailable {
		t.Fatalf("expected blank id and default availability, got %+v", repo.items[1])
	}
	if repo.items[2].IsAvailable {
		t.Fatalf("expected old-bun unavailable")
	}
}

func TestCSVImporter_ColumnOrderIndependent(t *testing.T) {
	csvData := "price,name\n4.5,Jianbing\n"
	repo := &stubProductRepo{}
	if _, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background()); err != nil {
		t.Fatalf("import run: %v", err)
	}
	if repo.items[0].Name != "Jianbing" || !repo.items[0].Price.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("unexpected product %+v", repo.items[0])
	}
}

func TestCSVImporter_Errors(t *testing.T) {
	cases := map[string]string{
		"missing column": "id,name\np1,Toast\n",
		"bad price":      "name,price\nToast,abc\n",
		"negative price": "name,price\nToast,-1\n",
		"bad flag":       "name,price,isAvailable\nToast,1,maybe\n",
		"missing name":   "id,name,price\np1,,1\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &stubProductRepo{}
			if _, err := NewCSVImporter(strings.NewReader(data), repo).Run(context.Background()); err == nil {
				t.Fatalf("expected error")
			}
			if len(repo.items) != 0 {
				t.Fatalf("expected nothing saved, got %+v", repo.items)
			}
		})
	}
}

func TestCSVImporter_RoundsPriceToCents(t *testing.T) {
	csvData := "name,price\nTea Egg,1.255\n"
	repo := &stubProductRepo{}
	if _, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background()); err != nil {
		t.Fatalf("import run: %v", err)
	}
	if got := repo.items[0].Price; !got.Equal(decimal.RequireFromString("1.26")) {
		t.Fatalf("expected 1.26, got %s", got)
	}
}
