// Package product extracts price, rating and review data from a product page
// after switching the store region.
package product

import (
	"context"
	"errors"
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
	OutputFile     = "product.txt"
	ScreenshotFile = "screenshot.jpg"
)

// Extractor writes product.txt and screenshot.jpg for one product page.
type Extractor struct {
	Reader    scrapers.PageReader
	OutputDir string
	Metrics   *scrapers.Metrics
	Publisher *scrapers.Publisher
	// RunID, when set, becomes the ID of the recorded run.
	RunID primitive.ObjectID
}

// Run opens productURL, selects region and saves the normalized fields and
// a full-page screenshot.
func (e *Extractor) Run(ctx context.Context, productURL, region string) (*models.ProductRun, error) {
	start := time.Now()
	run, err := e.run(ctx, productURL, region, start)

	errorType := ""
	if err != nil {
		errorType = base.ErrorKind(err)
	}
	e.Metrics.ObserveRun("product", time.Since(start), errorType)
	if err != nil {
		return nil, err
	}

	e.Publisher.PublishProductRun(ctx, run)
	return run, nil
}

func (e *Extractor) run(ctx context.Context, productURL, region string, start time.Time) (*models.ProductRun, error) {
	if strings.TrimSpace(productURL) == "" {
		return nil, base.ErrUsage{Err: errors.New("product url is required")}
	}
	if strings.TrimSpace(region) == "" {
		return nil, base.ErrUsage{Err: errors.New("region is required")}
	}
	log := zap.L().With(zap.String("url", productURL), zap.String("region", region))

	if err := e.Reader.Open(ctx, productURL, base.WaitDOMContentLoaded); err != nil {
		return nil, err
	}
	if err := e.Reader.SelectRegion(ctx, region); err != nil {
		return nil, err
	}
	log.Debug("region selected")

	raw, err := e.Reader.ReadDetailFields(ctx)
	if err != nil {
		return nil, err
	}
	detail := Normalize(raw)
	log.Debug("product fields read", zap.Any("raw", raw), zap.Any("detail", detail))

	out, err := utils.WriteOutputFile(e.OutputDir, OutputFile, []byte(FormatDetail(detail)))
	if err != nil {
		return nil, err
	}

	shot, err := e.Reader.CaptureScreenshot(ctx)
	if err != nil {
		return nil, err
	}
	shotPath, err := utils.WriteOutputFile(e.OutputDir, ScreenshotFile, shot)
	if err != nil {
		return nil, err
	}
	log.Info("product saved", zap.String("path", out), zap.String("screenshot", shotPath))

	return &models.ProductRun{
		ID:             e.RunID,
		URL:            productURL,
		Region:         region,
		Raw:            raw,
		Detail:         detail,
		OutputPath:     out,
		ScreenshotPath: shotPath,
		StartedAt:      start,
		FinishedAt:     time.Now(),
	}, nil
}
