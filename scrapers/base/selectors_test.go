package base

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func TestDetailFields(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		want    models.RawDetail
	}{
		{
			name:    "discounted product",
			fixture: "product.html",
			want: models.RawDetail{
				Price:    "89,99\u00a0₽",
				OldPrice: "119,99\u00a0₽",
				Rating:   "4.8",
				Reviews:  "1\u00a0234 отзыва",
			},
		},
		{
			// The first Price_price__ span is empty, so the last fallback
			// yields nothing even though a later span has text.
			name:    "regular price with del fallback",
			fixture: "product_regular.html",
			want: models.RawDetail{
				Price:    "",
				OldPrice: "59 ₽",
				Rating:   "4,5",
				Reviews:  "нет отзывов",
			},
		},
		{
			name:    "no product markup",
			fixture: "catalog.html",
			want:    models.RawDetail{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetailFields(loadFixture(t, tt.fixture))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegionOptions(t *testing.T) {
	doc := loadFixture(t, "product.html")

	options := RegionOptions(doc)
	require.Len(t, options, 3)
	assert.Equal(t, "Санкт-Петербург и область", options[0])
	assert.Equal(t, "Москва и область", RegionLabel(doc))
}

func TestMatchRegion(t *testing.T) {
	candidates := []string{
		"Санкт-Петербург и область",
		"  Москва   и\u00a0область ",
		"Москва",
	}

	tests := []struct {
		name      string
		want      string
		wantIndex int
		wantFound bool
	}{
		{name: "exact match wins over earlier substring", want: "москва", wantIndex: 2, wantFound: true},
		{name: "normalizes both sides", want: "МОСКВА\u00a0И  ОБЛАСТЬ", wantIndex: 1, wantFound: true},
		{name: "substring match", want: "петербург", wantIndex: 0, wantFound: true},
		{name: "missing region", want: "Казань", wantIndex: -1, wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, found := MatchRegion(candidates, tt.want)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantIndex, idx)
		})
	}
}

func TestMatchRegionEmptyCandidates(t *testing.T) {
	_, found := MatchRegion(nil, "Москва")
	assert.False(t, found)
}

func TestRegionApplied(t *testing.T) {
	assert.True(t, RegionApplied(" Москва и\u00a0область", "москва"))
	assert.False(t, RegionApplied("Санкт-Петербург", "Москва"))
	assert.False(t, RegionApplied("", "Москва"))
}

func TestEmbeddedPayload(t *testing.T) {
	payload, ok := EmbeddedPayload(loadFixture(t, "catalog.html"))
	require.True(t, ok)
	assert.Contains(t, payload, `"catalogPage"`)
	assert.Equal(t, byte('{'), payload[0])

	_, ok = EmbeddedPayload(loadFixture(t, "product.html"))
	assert.False(t, ok)
}
