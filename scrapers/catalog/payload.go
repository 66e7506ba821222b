package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/scrapers/base"
)

var productPaths = [][]string{
	{"props", "pageProps", "initialStore", "catalogPage", "products"},
	{"props", "pageProps", "catalogPage", "products"},
}

// CheckComplete trims raw and verifies it at least looks like a JSON object.
func CheckComplete(raw string) (string, error) {
	txt := strings.TrimSpace(raw)
	if !strings.HasPrefix(txt, "{") || !strings.HasSuffix(txt, "}") {
		return "", base.Structuref("__NEXT_DATA__ looks incomplete (len=%d)", len(utf16.Encode([]rune(txt))))
	}
	return txt, nil
}

// ParsePayload decodes the embedded page data.
func ParsePayload(txt string) (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(txt), &data); err != nil {
		return nil, err
	}
	return data, nil
}

// FindProducts returns the products array from the first path holding a
// truthy value. A truthy non-array stops the search.
func FindProducts(data map[string]interface{}) ([]interface{}, error) {
	for _, p := range productPaths {
		v := lookup(data, p)
		if !truthy(v) {
			continue
		}
		if products, ok := v.([]interface{}); ok {
			return products, nil
		}
		break
	}
	return nil, base.Structuref("Products not found at catalogPage.products")
}

// Summarize renders one raw product record. The product URL is resolved
// against listingURL.
func Summarize(item interface{}, listingURL string) (models.ProductSummary, error) {
	p, _ := item.(map[string]interface{})

	link, err := absoluteURL(listingURL, p["url"])
	if err != nil {
		return models.ProductSummary{}, err
	}

	price := positive(p["price"])
	old := positive(p["oldPrice"])
	promo := ""
	if old != "" {
		promo = price
	}
	discount := positive(p["discountPercent"])
	if discount == "" {
		discount = positive(p["discount"])
	}

	return models.ProductSummary{
		Name:       jsString(p["name"]),
		URL:        link,
		Rating:     jsString(p["rating"]),
		Reviews:    jsString(p["reviews"]),
		Price:      price,
		PromoPrice: promo,
		OldPrice:   old,
		Discount:   discount,
	}, nil
}

// FormatSummaries renders products-api.txt.
func FormatSummaries(products []models.ProductSummary) string {
	blocks := make([]string, len(products))
	for i, p := range products {
		blocks[i] = strings.Join([]string{
			"Название товара: " + p.Name,
			"Ссылка на страницу товара: " + p.URL,
			"Рейтинг: " + p.Rating,
			"Количество отзывов: " + p.Reviews,
			"Цена: " + p.Price,
			"Акционная цена: " + p.PromoPrice,
			"Цена до акции: " + p.OldPrice,
			"Размер скидки: " + p.Discount,
		}, "\n")
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func lookup(data map[string]interface{}, path []string) interface{} {
	var cur interface{} = data
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

// positive renders v when it is a number greater than zero. Numeric strings
// count and are returned as written.
func positive(v interface{}) string {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return formatNumber(t)
		}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err == nil && f > 0 {
			return t
		}
	}
	return ""
}

// jsString renders a nullable field the way template interpolation does.
func jsString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatNumber(t)
	case bool:
		return strconv.FormatBool(t)
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = jsString(e)
		}
		return strings.Join(parts, ",")
	case map[string]interface{}:
		return "[object Object]"
	default:
		return fmt.Sprint(t)
	}
}

// formatNumber renders f like Number.prototype.toString: plain decimals in
// [1e-6, 1e21), exponent form outside that range.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}

func absoluteURL(listingURL string, v interface{}) (string, error) {
	if !truthy(v) {
		return "", nil
	}
	listing, err := url.Parse(listingURL)
	if err != nil {
		return "", fmt.Errorf("parse listing url: %w", err)
	}
	ref, err := url.Parse(jsString(v))
	if err != nil {
		return "", fmt.Errorf("parse product url %q: %w", jsString(v), err)
	}
	resolved := listing.ResolveReference(ref)
	if resolved.Host != "" && resolved.Path == "" && resolved.Opaque == "" {
		resolved.Path = "/"
	}
	return resolved.String(), nil
}
