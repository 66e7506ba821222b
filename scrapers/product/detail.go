package product

import (
	"fmt"

	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/parser"
)

// Normalize turns raw page strings into plain numbers.
func Normalize(raw models.RawDetail) models.ProductDetail {
	return models.ProductDetail{
		Price:       parser.ExtractNumber(raw.Price),
		PriceOld:    parser.ExtractNumber(raw.OldPrice),
		Rating:      parser.ExtractNumber(raw.Rating),
		ReviewCount: parser.Digits(raw.Reviews),
	}
}

// FormatDetail renders product.txt.
func FormatDetail(d models.ProductDetail) string {
	return fmt.Sprintf("price=%s\npriceOld=%s\nrating=%s\nreviewCount=%s\n",
		d.Price, d.PriceOld, d.Rating, d.ReviewCount)
}
