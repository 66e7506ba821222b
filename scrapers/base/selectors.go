package base

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/parser"
)

const (
	NextDataSelector     = `#__NEXT_DATA__`
	RegionButtonSelector = `button[class*="Region_region__"]`
	RegionTextSelector   = `span[class*="Region_text__"]`
	RegionOptionSelector = `ul[role="list"] button`
	StarsSelector        = `a[class*="ActionsRow_stars__"]`
	ReviewsSelector      = `a[class*="ActionsRow_reviews__"]`
)

// Price selectors in priority order. The first non-empty text wins.
var priceSelectors = []string{
	`span[class*="Price_price__"][class*="Price_role_discount__"]`,
	`span[class*="Price_price__"][class*="Price_role_regular__"]`,
	`span[class*="Price_price__"]`,
}

var oldPriceSelectors = []string{
	`span[class*="Price_role_old__"]`,
	`del`,
}

// EmbeddedPayload returns the raw text of the embedded page-data script and
// whether the element exists.
func EmbeddedPayload(doc *goquery.Document) (string, bool) {
	sel := doc.Find(NextDataSelector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Text(), true
}

// RegionOptions returns the raw text of every region option in document order.
func RegionOptions(doc *goquery.Document) []string {
	var options []string
	doc.Find(RegionOptionSelector).Each(func(_ int, s *goquery.Selection) {
		options = append(options, s.Text())
	})
	return options
}

// RegionLabel returns the text of the currently applied region.
func RegionLabel(doc *goquery.Document) string {
	return doc.Find(RegionTextSelector).First().Text()
}

// MatchRegion picks the option to click for want. An exact match on the
// normalized text beats a substring match; ties go to the earliest option.
func MatchRegion(candidates []string, want string) (int, bool) {
	want = parser.NormalizeText(want)
	normalized := make([]string, len(candidates))
	for i, c := range candidates {
		normalized[i] = parser.NormalizeText(c)
		if normalized[i] == want {
			return i, true
		}
	}
	for i, c := range normalized {
		if strings.Contains(c, want) {
			return i, true
		}
	}
	return -1, false
}

// RegionApplied reports whether the region label shows want.
func RegionApplied(label, want string) bool {
	return strings.Contains(parser.NormalizeText(label), parser.NormalizeText(want))
}

// DetailFields reads the raw rating, review, and price strings from a
// rendered product page.
func DetailFields(doc *goquery.Document) models.RawDetail {
	stars := doc.Find(StarsSelector).First()
	rating := stars.AttrOr("title", "")
	if rating == "" {
		rating = strings.TrimSpace(stars.Text())
	}

	return models.RawDetail{
		Price:    firstText(doc, priceSelectors),
		OldPrice: firstText(doc, oldPriceSelectors),
		Rating:   rating,
		Reviews:  text(doc, ReviewsSelector),
	}
}

func text(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if v := text(doc, selector); v != "" {
			return v
		}
	}
	return ""
}
