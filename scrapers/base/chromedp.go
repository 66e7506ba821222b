package base

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/parser"
	"go.uber.org/zap"
)

// ChromeReader drives a single Chrome tab over the DevTools protocol.
type ChromeReader struct {
	opts        Options
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
}

// NewChromeReader launches Chrome and prepares a tab that sends the
// configured Accept-Language header and reports lifecycle events.
func NewChromeReader(ctx context.Context, opts Options) (*ChromeReader, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(zap.S().Debugf))

	r := &ChromeReader{
		opts:        opts,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	// The first Run starts the browser and binds it to tabCtx.
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": opts.AcceptLanguage}),
		page.SetLifecycleEventsEnabled(true),
	)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("chromedp start error: %w", err)
	}

	zap.L().Debug("chrome started", zap.Bool("headless", opts.Headless))
	return r, nil
}

// run executes actions on the tab, bounded by d and by the caller's ctx.
func (r *ChromeReader) run(ctx context.Context, step string, d time.Duration, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(r.ctx, d)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return StepError(step, chromedp.Run(stepCtx, actions...))
}

// Open navigates the tab to url and blocks until the requested lifecycle
// milestone of the main frame.
func (r *ChromeReader) Open(ctx context.Context, url string, wait WaitUntil) error {
	milestone := "networkAlmostIdle"
	if wait == WaitDOMContentLoaded {
		milestone = "DOMContentLoaded"
	}

	stepCtx, cancel := context.WithTimeout(r.ctx, r.opts.Timeouts.Navigation)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var mainFrame cdp.FrameID
	err := chromedp.Run(stepCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		mainFrame = tree.Frame.ID
		return nil
	}))
	if err != nil {
		return StepError("open "+url, err)
	}

	reached := make(chan struct{})
	var (
		mu      sync.Mutex
		started bool
		done    bool
	)
	chromedp.ListenTarget(stepCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || e.FrameID != mainFrame {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch {
		case e.Name == "init":
			started = true
		case started && !done && e.Name == milestone:
			done = true
			close(reached)
		}
	})

	var res page.NavigateReturns
	err = chromedp.Run(stepCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res)
	}))
	if err != nil {
		return StepError("open "+url, err)
	}
	if res.ErrorText != "" {
		return fmt.Errorf("open %s: %s", url, res.ErrorText)
	}

	select {
	case <-reached:
		zap.L().Debug("page opened", zap.String("url", url), zap.String("wait", wait.String()))
		return nil
	case <-stepCtx.Done():
		return StepError("open "+url, stepCtx.Err())
	}
}

// ReadEmbeddedPayload waits for the page-data script and returns its text.
func (r *ChromeReader) ReadEmbeddedPayload(ctx context.Context) (string, error) {
	var payload string
	err := r.run(ctx, "wait for "+NextDataSelector, r.opts.Timeouts.Payload,
		chromedp.WaitReady(NextDataSelector, chromedp.ByQuery),
		chromedp.Evaluate(textScript(NextDataSelector), &payload),
	)
	if err != nil {
		return "", err
	}
	return payload, nil
}

// SelectRegion opens the region picker, clicks the option matching region
// and waits until the header shows it.
func (r *ChromeReader) SelectRegion(ctx context.Context, region string) error {
	t := r.opts.Timeouts
	var ok bool

	err := r.run(ctx, "wait for region button", t.RegionButton,
		chromedp.WaitReady(RegionButtonSelector, chromedp.ByQuery),
	)
	if err != nil {
		return err
	}
	err = r.run(ctx, "open region list", t.RegionButton,
		chromedp.Evaluate(clickScript(RegionButtonSelector, 0, "Region button not found"), &ok),
	)
	if err != nil {
		return err
	}

	err = r.run(ctx, "wait for region list", t.RegionList,
		chromedp.WaitReady(RegionOptionSelector, chromedp.ByQuery),
	)
	if err != nil {
		return err
	}
	doc, err := r.snapshot(ctx, t.RegionList)
	if err != nil {
		return err
	}
	options := RegionOptions(doc)
	idx, found := MatchRegion(options, region)
	if !found {
		return Structuref("Region not found: %s", strings.TrimSpace(region))
	}
	choice := parser.NormalizeText(options[idx])
	err = r.run(ctx, "pick region", t.RegionList,
		chromedp.Evaluate(optionClickScript(RegionOptionSelector, choice, "Region option disappeared"), &ok),
	)
	if err != nil {
		return err
	}

	return r.pollUntil(ctx, "wait for region "+region, t.RegionApplied, func(stepCtx context.Context) (bool, error) {
		var label string
		if err := chromedp.Run(stepCtx, chromedp.Evaluate(textScript(RegionTextSelector), &label)); err != nil {
			return false, err
		}
		return RegionApplied(label, region), nil
	})
}

// ReadDetailFields waits for the rating link and reads the raw fields.
func (r *ChromeReader) ReadDetailFields(ctx context.Context) (models.RawDetail, error) {
	t := r.opts.Timeouts
	err := r.run(ctx, "wait for "+StarsSelector, t.DetailReady,
		chromedp.WaitReady(StarsSelector, chromedp.ByQuery),
	)
	if err != nil {
		return models.RawDetail{}, err
	}
	doc, err := r.snapshot(ctx, t.DetailReady)
	if err != nil {
		return models.RawDetail{}, err
	}
	return DetailFields(doc), nil
}

// CaptureScreenshot returns a full-page JPEG of the tab.
func (r *ChromeReader) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := r.run(ctx, "screenshot", r.opts.Timeouts.Screenshot,
		chromedp.FullScreenshot(&buf, r.opts.JPEGQuality),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (r *ChromeReader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if cerr := chromedp.Cancel(r.ctx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = fmt.Errorf("chromedp close error: %w", cerr)
		}
		r.cancelTab()
		r.cancelAlloc()
	})
	return err
}

func (r *ChromeReader) snapshot(ctx context.Context, d time.Duration) (*goquery.Document, error) {
	var html string
	if err := r.run(ctx, "read page html", d, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// pollUntil calls check every PollInterval until it reports true or d
// elapses. Errors from check are retried; the last one is reported on timeout.
func (r *ChromeReader) pollUntil(ctx context.Context, step string, d time.Duration, check func(context.Context) (bool, error)) error {
	stepCtx, cancel := context.WithTimeout(r.ctx, d)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	ticker := time.NewTicker(r.opts.Timeouts.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := check(stepCtx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		select {
		case <-stepCtx.Done():
			if lastErr != nil && !errors.Is(lastErr, context.DeadlineExceeded) {
				zap.L().Debug("poll error", zap.String("step", step), zap.Error(lastErr))
			}
			return StepError(step, stepCtx.Err())
		case <-ticker.C:
		}
	}
}
