package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/scrapers"
	"github.com/raushankrgupta/catalog-scraper/scrapers/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	payload string
	openErr error
	readErr error

	openedURL  string
	openedWait base.WaitUntil
}

func (f *fakeReader) Open(_ context.Context, url string, wait base.WaitUntil) error {
	f.openedURL = url
	f.openedWait = wait
	return f.openErr
}

func (f *fakeReader) ReadEmbeddedPayload(context.Context) (string, error) {
	return f.payload, f.readErr
}

func (f *fakeReader) SelectRegion(context.Context, string) error {
	return errors.New("unexpected call")
}

func (f *fakeReader) ReadDetailFields(context.Context) (models.RawDetail, error) {
	return models.RawDetail{}, errors.New("unexpected call")
}

func (f *fakeReader) CaptureScreenshot(context.Context) ([]byte, error) {
	return nil, errors.New("unexpected call")
}

func (f *fakeReader) Close() error { return nil }

type recorder struct {
	catalogRuns []*models.CatalogRun
}

func (r *recorder) SaveCatalogRun(_ context.Context, run *models.CatalogRun) error {
	r.catalogRuns = append(r.catalogRuns, run)
	return nil
}

func (r *recorder) SaveProductRun(context.Context, *models.ProductRun) error {
	return errors.New("unexpected call")
}

const samplePayload = `
{"props":{"pageProps":{"initialStore":{"catalogPage":{"products":[
  {"name":"Молоко","url":"/product/moloko","rating":4.8,"reviews":12,"price":89.99,"oldPrice":119.99,"discountPercent":25},
  {"name":"Хлеб","url":"/product/hleb","price":45}
]}}}}}
`

func TestExtractorRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	reader := &fakeReader{payload: samplePayload}
	metrics := scrapers.NewMetrics()
	rec := &recorder{}

	e := &Extractor{
		Reader:    reader,
		OutputDir: dir,
		Metrics:   metrics,
		Publisher: &scrapers.Publisher{Recorder: rec},
	}

	run, err := e.Run(context.Background(), "https://shop.example/catalog/dairy")
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example/catalog/dairy", reader.openedURL)
	assert.Equal(t, base.WaitNetworkIdle, reader.openedWait)
	require.Len(t, run.Products, 2)
	assert.Equal(t, filepath.Join(dir, OutputFile), run.OutputPath)

	out, err := os.ReadFile(run.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, FormatSummaries(run.Products), string(out))
	assert.Contains(t, string(out), "Ссылка на страницу товара: https://shop.example/product/hleb\n")
	assert.Contains(t, string(out), "Акционная цена: 89.99\n")

	require.Len(t, rec.catalogRuns, 1)
	assert.False(t, rec.catalogRuns[0].ID.IsZero())

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ProductsExtracted))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("catalog", "success")))
}

func TestExtractorRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		reader   *fakeReader
		wantKind string
		wantMsg  string
	}{
		{
			name:     "missing url",
			url:      "  ",
			reader:   &fakeReader{},
			wantKind: "usage",
		},
		{
			name:     "navigation timeout",
			url:      "https://shop.example/c",
			reader:   &fakeReader{openErr: base.ErrTimeout{Step: "open", Err: context.DeadlineExceeded}},
			wantKind: "timeout",
		},
		{
			name:     "payload element missing",
			url:      "https://shop.example/c",
			reader:   &fakeReader{readErr: base.ErrTimeout{Step: "wait for #__NEXT_DATA__", Err: context.DeadlineExceeded}},
			wantKind: "timeout",
		},
		{
			name:     "truncated payload",
			url:      "https://shop.example/c",
			reader:   &fakeReader{payload: `{"props":`},
			wantKind: "structure",
			wantMsg:  "looks incomplete (len=9)",
		},
		{
			name:     "no products",
			url:      "https://shop.example/c",
			reader:   &fakeReader{payload: `{"props":{}}`},
			wantKind: "structure",
			wantMsg:  "Products not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			metrics := scrapers.NewMetrics()
			e := &Extractor{Reader: tt.reader, OutputDir: dir, Metrics: metrics}

			_, err := e.Run(context.Background(), tt.url)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, base.ErrorKind(err))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}

			_, statErr := os.Stat(filepath.Join(dir, OutputFile))
			assert.True(t, os.IsNotExist(statErr))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("catalog", tt.wantKind)))
		})
	}
}

func TestExtractorRunBrokenJSON(t *testing.T) {
	dir := t.TempDir()
	broken := `{"props": {"pageProps": nope}}`
	e := &Extractor{Reader: &fakeReader{payload: "  " + broken + "\n"}, OutputDir: dir}

	_, err := e.Run(context.Background(), "https://shop.example/c")
	require.Error(t, err)
	assert.Equal(t, "structure", base.ErrorKind(err))
	assert.Contains(t, err.Error(), BrokenPayloadFile)

	dump, err := os.ReadFile(filepath.Join(dir, BrokenPayloadFile))
	require.NoError(t, err)
	assert.Equal(t, broken, string(dump))
}
