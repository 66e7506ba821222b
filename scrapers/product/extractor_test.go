package product

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/scrapers"
	"github.com/raushankrgupta/catalog-scraper/scrapers/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	raw       models.RawDetail
	shot      []byte
	regionErr error
	shotErr   error

	calls []string
	wait  base.WaitUntil
}

func (f *fakeReader) Open(_ context.Context, _ string, wait base.WaitUntil) error {
	f.calls = append(f.calls, "open")
	f.wait = wait
	return nil
}

func (f *fakeReader) ReadEmbeddedPayload(context.Context) (string, error) {
	return "", errors.New("unexpected call")
}

func (f *fakeReader) SelectRegion(_ context.Context, region string) error {
	f.calls = append(f.calls, "region:"+region)
	return f.regionErr
}

func (f *fakeReader) ReadDetailFields(context.Context) (models.RawDetail, error) {
	f.calls = append(f.calls, "fields")
	return f.raw, nil
}

func (f *fakeReader) CaptureScreenshot(context.Context) ([]byte, error) {
	f.calls = append(f.calls, "screenshot")
	return f.shot, f.shotErr
}

func (f *fakeReader) Close() error { return nil }

type fakeArchiver struct {
	prefix string
	paths  []string
}

func (a *fakeArchiver) ArchiveFiles(_ context.Context, paths []string, prefix string) (map[string]string, error) {
	a.prefix = prefix
	a.paths = paths
	keys := map[string]string{}
	for _, p := range paths {
		keys[p] = prefix + "/" + filepath.Base(p)
	}
	return keys, nil
}

func TestExtractorRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	reader := &fakeReader{
		raw: models.RawDetail{
			Price:    "89,99 ₽",
			OldPrice: "119,99 ₽",
			Rating:   "4.8",
			Reviews:  "12 отзывов",
		},
		shot: []byte{0xff, 0xd8, 0xff, 0xd9},
	}
	archiver := &fakeArchiver{}

	e := &Extractor{
		Reader:    reader,
		OutputDir: dir,
		Metrics:   scrapers.NewMetrics(),
		Publisher: &scrapers.Publisher{Archiver: archiver, Prefix: "runs"},
	}

	run, err := e.Run(context.Background(), "https://shop.example/product/moloko", "Москва и область")
	require.NoError(t, err)

	assert.Equal(t, []string{"open", "region:Москва и область", "fields", "screenshot"}, reader.calls)
	assert.Equal(t, base.WaitDOMContentLoaded, reader.wait)

	out, err := os.ReadFile(filepath.Join(dir, OutputFile))
	require.NoError(t, err)
	assert.Equal(t, "price=89.99\npriceOld=119.99\nrating=4.8\nreviewCount=12\n", string(out))

	shot, err := os.ReadFile(filepath.Join(dir, ScreenshotFile))
	require.NoError(t, err)
	assert.Equal(t, reader.shot, shot)

	assert.Equal(t, "runs/product/"+run.ID.Hex(), archiver.prefix)
	assert.ElementsMatch(t, []string{run.OutputPath, run.ScreenshotPath}, archiver.paths)
	assert.Len(t, run.Archived, 2)
}

func TestExtractorRunUsage(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		region string
	}{
		{name: "missing url", url: "", region: "Москва"},
		{name: "missing region", url: "https://shop.example/p", region: ""},
		{name: "blank region", url: "https://shop.example/p", region: " \t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{}
			e := &Extractor{Reader: reader, OutputDir: t.TempDir()}

			_, err := e.Run(context.Background(), tt.url, tt.region)
			assert.Equal(t, "usage", base.ErrorKind(err))
			assert.Empty(t, reader.calls)
		})
	}
}

func TestExtractorRunRegionNotFound(t *testing.T) {
	dir := t.TempDir()
	reader := &fakeReader{regionErr: base.Structuref("Region not found: казань")}
	e := &Extractor{Reader: reader, OutputDir: dir}

	_, err := e.Run(context.Background(), "https://shop.example/p", "Казань")
	require.Error(t, err)
	assert.Equal(t, "structure", base.ErrorKind(err))
	assert.Equal(t, []string{"open", "region:Казань"}, reader.calls)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractorRunScreenshotFailure(t *testing.T) {
	dir := t.TempDir()
	reader := &fakeReader{
		raw:     models.RawDetail{Price: "10"},
		shotErr: base.ErrTimeout{Step: "screenshot", Err: context.DeadlineExceeded},
	}
	e := &Extractor{Reader: reader, OutputDir: dir}

	_, err := e.Run(context.Background(), "https://shop.example/p", "Москва")
	assert.Equal(t, "timeout", base.ErrorKind(err))

	_, statErr := os.Stat(filepath.Join(dir, ScreenshotFile))
	assert.True(t, os.IsNotExist(statErr))
}
