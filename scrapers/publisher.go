package scrapers

import (
	"context"
	"fmt"
	"path"

	"github.com/raushankrgupta/catalog-scraper/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RunRecorder persists finished runs.
type RunRecorder interface {
	SaveCatalogRun(ctx context.Context, run *models.CatalogRun) error
	SaveProductRun(ctx context.Context, run *models.ProductRun) error
}

// FileArchiver copies output files to durable storage and returns a map of
// local path -> object key for the files that were stored.
type FileArchiver interface {
	ArchiveFiles(ctx context.Context, paths []string, prefix string) (map[string]string, error)
}

// URLSigner hands out temporary download links for archived objects.
type URLSigner interface {
	PresignURL(ctx context.Context, objectKey string) (string, error)
}

// Publisher archives run outputs and records the run. Both steps are
// optional and best effort: a nil Publisher, Recorder or Archiver is a no-op
// and failures are only logged.
type Publisher struct {
	Recorder RunRecorder
	Archiver FileArchiver
	Prefix   string
	Metrics  *Metrics
}

// PublishCatalogRun archives the listing output and records run.
func (p *Publisher) PublishCatalogRun(ctx context.Context, run *models.CatalogRun) {
	if p == nil {
		return
	}
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	run.Archived = p.archive(ctx, "catalog", run.ID, []string{run.OutputPath})

	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.SaveCatalogRun(ctx, run); err != nil {
		zap.L().Warn("recording catalog run failed", zap.String("url", run.URL), zap.Error(err))
	}
}

// PublishProductRun archives the product outputs and records run.
func (p *Publisher) PublishProductRun(ctx context.Context, run *models.ProductRun) {
	if p == nil {
		return
	}
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	run.Archived = p.archive(ctx, "product", run.ID, []string{run.OutputPath, run.ScreenshotPath})

	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.SaveProductRun(ctx, run); err != nil {
		zap.L().Warn("recording product run failed", zap.String("url", run.URL), zap.Error(err))
	}
}

// PresignURL signs objectKey when the archiver supports it.
func (p *Publisher) PresignURL(ctx context.Context, objectKey string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("archiving is disabled")
	}
	signer, ok := p.Archiver.(URLSigner)
	if !ok {
		return "", fmt.Errorf("archiver cannot sign URLs")
	}
	return signer.PresignURL(ctx, objectKey)
}

func (p *Publisher) archive(ctx context.Context, kind string, id primitive.ObjectID, paths []string) map[string]string {
	if p.Archiver == nil {
		return nil
	}
	prefix := path.Join(p.Prefix, kind, id.Hex())
	keys, err := p.Archiver.ArchiveFiles(ctx, paths, prefix)
	if err != nil {
		zap.L().Warn("archiving run outputs failed", zap.String("prefix", prefix), zap.Error(err))
	}
	p.Metrics.AddArchived(len(keys))
	if len(keys) == 0 {
		return nil
	}
	return keys
}
