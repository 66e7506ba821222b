// Command category saves every product listed in a catalog page's embedded
// data to products-api.txt.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raushankrgupta/catalog-scraper/config"
	"github.com/raushankrgupta/catalog-scraper/scrapers"
	"github.com/raushankrgupta/catalog-scraper/scrapers/base"
	"github.com/raushankrgupta/catalog-scraper/scrapers/catalog"
	"github.com/raushankrgupta/catalog-scraper/utils"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	dataDir := flag.String("data-dir", cfg.DataDir, "Directory for products-api.txt")
	backend := flag.String("backend", cfg.Backend, "Page reader backend: chromedp, selenium, or http")
	headless := flag.Bool("headless", cfg.Headless, "Run the browser headless")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, or prod")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <categoryUrl>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg.DataDir = *dataDir
	cfg.Backend = *backend
	cfg.Headless = *headless
	cfg.LogLevel = *logLevel

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		return 1
	}
	zap.ReplaceGlobals(logger)
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return 1
	}
	if flag.NArg() != 1 {
		flag.Usage()
		return fail(base.ErrUsage{Err: errors.New("expected exactly one argument: <categoryUrl>")})
	}
	listingURL := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := scrapers.NewFactory(cfg)
	publisher, cleanup := factory.NewPublisher(ctx, nil)
	defer cleanup()

	reader, err := factory.NewPageReader(ctx)
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Warn("closing page reader", zap.Error(err))
		}
	}()

	e := &catalog.Extractor{
		Reader:    reader,
		OutputDir: cfg.DataDir,
		Publisher: publisher,
	}
	result, err := e.Run(ctx, listingURL)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Saved %s (%d products)\n", catalog.OutputFile, len(result.Products))
	return 0
}

func fail(err error) int {
	zap.L().Error("FAILED:", zap.String("kind", base.ErrorKind(err)), zap.Error(err))
	return 1
}
