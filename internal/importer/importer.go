package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV files and inserts/updates products.
// Expected headers: id,name,nameZh,description,price,image,category,isAvailable.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
	}
}

// Run parses CSV rows and upserts one product per row. Blank rows are skipped.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"name", "price"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing required column %q", required)
		}
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		p, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if p == nil {
			continue
		}
		if _, err := i.productRepo.Upsert(ctx, *p); err != nil {
			return imported, fmt.Errorf("upsert product %q: %w", p.Name, err)
		}
		imported++
	}

	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	name := pick(record, index, "name")
	priceStr := pick(record, index, "price")
	if name == "" && priceStr == "" && pick(record, index, "id") == "" {
		return nil, nil
	}
	if name == "" {
		return nil, errors.New("name required")
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q for %q", priceStr, name)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("negative price for %q", name)
	}

	available := true
	if v := pick(record, index, "isAvailable"); v != "" {
		if available, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid isAvailable %q for %q", v, name)
		}
	}

	return &domain.Product{
		ID:          pick(record, index, "id"),
		Name:        name,
		NameZh:      pick(record, index, "nameZh"),
		Description: pick(record, index, "description"),
		Price:       price.Round(domain.MoneyPlaces),
		Image:       pick(record, index, "image"),
		Category:    pick(record, index, "category"),
		IsAvailable: available,
	}, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
