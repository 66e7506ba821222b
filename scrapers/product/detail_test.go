package product

import (
	"testing"

	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawDetail
		want models.ProductDetail
	}{
		{
			name: "discounted product",
			raw: models.RawDetail{
				Price:    "89,99\u00a0₽",
				OldPrice: "119,99\u00a0₽",
				Rating:   "4.8",
				Reviews:  "1\u00a0234 отзыва",
			},
			want: models.ProductDetail{Price: "89.99", PriceOld: "119.99", Rating: "4.8", ReviewCount: "1234"},
		},
		{
			name: "grouped thousands keep the first group",
			raw:  models.RawDetail{Price: "1 299 ₽", Rating: "4,5", Reviews: "нет отзывов"},
			want: models.ProductDetail{Price: "1", Rating: "4.5"},
		},
		{
			name: "empty page",
			raw:  models.RawDetail{},
			want: models.ProductDetail{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestFormatDetail(t *testing.T) {
	got := FormatDetail(models.ProductDetail{Price: "89.99", Rating: "4.8", ReviewCount: "12"})
	assert.Equal(t, "price=89.99\npriceOld=\nrating=4.8\nreviewCount=12\n", got)
}
