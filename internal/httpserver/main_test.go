package httpserver

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}
