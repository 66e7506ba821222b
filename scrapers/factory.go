package scrapers

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/catalog-scraper/config"
	"github.com/raushankrgupta/catalog-scraper/scrapers/base"
	"github.com/raushankrgupta/catalog-scraper/utils"
	"go.uber.org/zap"
)

// Factory builds page readers and publishers from a Config.
type Factory struct {
	cfg   *config.Config
	ports *base.PortManager
}

// NewFactory creates a Factory. The selenium port pool is shared by every
// reader the factory creates.
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		cfg:   cfg,
		ports: base.NewPortManager(cfg.DriverBasePort, cfg.DriverPorts),
	}
}

// Options returns the backend options derived from the config.
func (f *Factory) Options() base.Options {
	return base.Options{
		AcceptLanguage: f.cfg.AcceptLanguage,
		UserAgent:      f.cfg.UserAgent,
		Headless:       f.cfg.Headless,
		ChromePath:     f.cfg.ChromePath,
		DriverPath:     f.cfg.DriverPath,
		JPEGQuality:    f.cfg.JPEGQuality,
		Timeouts:       base.DefaultTimeouts(),
		Ports:          f.ports,
	}
}

// NewPageReader starts the configured backend.
func (f *Factory) NewPageReader(ctx context.Context) (PageReader, error) {
	opts := f.Options()
	switch f.cfg.Backend {
	case config.BackendChromeDP:
		return base.NewChromeReader(ctx, opts)
	case config.BackendSelenium:
		return base.NewSeleniumReader(ctx, opts)
	case config.BackendHTTP:
		return base.NewHTTPReader(opts), nil
	default:
		return nil, fmt.Errorf("no page reader for backend %q", f.cfg.Backend)
	}
}

// NewPublisher connects the configured stores. Stores that fail to connect
// are left out. The returned func releases the connections.
func (f *Factory) NewPublisher(ctx context.Context, metrics *Metrics) (*Publisher, func()) {
	p := &Publisher{Prefix: f.cfg.S3Prefix, Metrics: metrics}
	cleanup := func() {}

	if f.cfg.MongoURI != "" {
		store, err := utils.ConnectMongo(ctx, f.cfg.MongoURI, f.cfg.MongoDatabase)
		if err != nil {
			zap.L().Warn("run recording disabled", zap.Error(err))
		} else {
			p.Recorder = store
			cleanup = func() {
				if err := store.Close(context.Background()); err != nil {
					zap.L().Warn("mongo disconnect failed", zap.Error(err))
				}
			}
		}
	}

	if f.cfg.AWSBucketName != "" {
		store, err := utils.NewS3Store(ctx, f.cfg.AWSRegion, f.cfg.AWSBucketName)
		if err != nil {
			zap.L().Warn("output archiving disabled", zap.Error(err))
		} else {
			p.Archiver = store
		}
	}

	return p, cleanup
}
