package scrapers

import (
	"context"

	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/scrapers/base"
)

// PageReader is the browser-facing side of an extraction. Implementations
// hold one page; callers Open it first and Close it when done.
type PageReader interface {
	// Open navigates to url and waits for the given milestone.
	Open(ctx context.Context, url string, wait base.WaitUntil) error
	// ReadEmbeddedPayload returns the raw text of the #__NEXT_DATA__ script.
	ReadEmbeddedPayload(ctx context.Context) (string, error)
	// SelectRegion switches the store region to the option matching region.
	SelectRegion(ctx context.Context, region string) error
	// ReadDetailFields reads the unnormalized price, rating and review strings.
	ReadDetailFields(ctx context.Context) (models.RawDetail, error)
	// CaptureScreenshot returns a full-page JPEG.
	CaptureScreenshot(ctx context.Context) ([]byte, error)
	Close() error
}

var (
	_ PageReader = (*base.ChromeReader)(nil)
	_ PageReader = (*base.SeleniumReader)(nil)
	_ PageReader = (*base.HTTPReader)(nil)
)
