// Package catalog extracts product listings from the page data embedded in
// catalog pages.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/scrapers"
	"github.com/raushankrgupta/catalog-scraper/scrapers/base"
	"github.com/raushankrgupta/catalog-scraper/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	OutputFile        = "products-api.txt"
	BrokenPayloadFile = "next-data-broken.json"
)

// Extractor turns one catalog page into products-api.txt.
type Extractor struct {
	Reader    scrapers.PageReader
	OutputDir string
	Metrics   *scrapers.Metrics
	Publisher *scrapers.Publisher
	// RunID, when set, becomes the ID of the recorded run.
	RunID primitive.ObjectID
}

// Run extracts every product listed on listingURL.
func (e *Extractor) Run(ctx context.Context, listingURL string) (*models.CatalogRun, error) {
	start := time.Now()
	run, err := e.run(ctx, listingURL, start)

	errorType := ""
	if err != nil {
		errorType = base.ErrorKind(err)
	}
	e.Metrics.ObserveRun("catalog", time.Since(start), errorType)
	if err != nil {
		return nil, err
	}

	e.Metrics.AddProducts(len(run.Products))
	e.Publisher.PublishCatalogRun(ctx, run)
	return run, nil
}

func (e *Extractor) run(ctx context.Context, listingURL string, start time.Time) (*models.CatalogRun, error) {
	if strings.TrimSpace(listingURL) == "" {
		return nil, base.ErrUsage{Err: errors.New("catalog url is required")}
	}
	log := zap.L().With(zap.String("url", listingURL))

	if err := e.Reader.Open(ctx, listingURL, base.WaitNetworkIdle); err != nil {
		return nil, err
	}
	raw, err := e.Reader.ReadEmbeddedPayload(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("embedded payload read", zap.Int("bytes", len(raw)))

	txt, err := CheckComplete(raw)
	if err != nil {
		return nil, err
	}
	data, err := ParsePayload(txt)
	if err != nil {
		dump, werr := utils.WriteOutputFile(e.OutputDir, BrokenPayloadFile, []byte(txt))
		if werr != nil {
			return nil, base.ErrStructure{Err: fmt.Errorf("broken __NEXT_DATA__ JSON (%v); could not save it: %w", err, werr)}
		}
		return nil, base.ErrStructure{Err: fmt.Errorf("broken __NEXT_DATA__ JSON, saved as %s: %w", dump, err)}
	}

	items, err := FindProducts(data)
	if err != nil {
		return nil, err
	}

	products := make([]models.ProductSummary, 0, len(items))
	for i, item := range items {
		summary, err := Summarize(item, listingURL)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		products = append(products, summary)
	}

	out, err := utils.WriteOutputFile(e.OutputDir, OutputFile, []byte(FormatSummaries(products)))
	if err != nil {
		return nil, err
	}
	log.Info("catalog saved", zap.String("path", out), zap.Int("products", len(products)))

	return &models.CatalogRun{
		ID:         e.RunID,
		URL:        listingURL,
		Products:   products,
		OutputPath: out,
		StartedAt:  start,
		FinishedAt: time.Now(),
	}, nil
}
