package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
		want   string
	}{
		{"US dollars", "1234.56", "USD", "$1,234.56"},
		{"negative euros", "-20", "EUR", "-€20.00"},
		{"zero-decimal yen", "1234.6", "JPY", "¥1,235"},
		{"rounds half up", "0.005", "USD", "$0.01"},
		{"unknown code falls back", "12.5", "ZZZ", "12.50 ZZZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(decimal.RequireFromString(tt.amount), tt.code)
			assert.Equal(t, tt.want, got)
		})
	}
}
