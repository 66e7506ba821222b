package base

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/parser"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"go.uber.org/zap"
)

// SeleniumReader drives Chrome through a ChromeDriver service bound to a
// pooled local port.
type SeleniumReader struct {
	opts      Options
	port      int
	service   *selenium.Service
	driver    selenium.WebDriver
	closeOnce sync.Once
}

// NewSeleniumReader starts ChromeDriver on a free port and opens a session.
func NewSeleniumReader(ctx context.Context, opts Options) (*SeleniumReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ports := opts.Ports
	if ports == nil {
		InitPortManager(4444, 16)
		ports = GlobalPortManager
	}

	port, err := ports.GetPort()
	if err != nil {
		return nil, fmt.Errorf("port error: %w", err)
	}

	service, err := selenium.NewChromeDriverService(opts.DriverPath, port)
	if err != nil {
		ports.ReleasePort(port)
		return nil, fmt.Errorf("error starting Chrome driver service: %w", err)
	}

	// eager returns from Get once the DOM is parsed, like DOMContentLoaded.
	caps := selenium.Capabilities{
		"browserName":      "chrome",
		"pageLoadStrategy": "eager",
	}
	args := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-blink-features=AutomationControlled",
		"--window-size=1920,1080",
		"--lang=" + primaryLanguage(opts.AcceptLanguage),
	}
	if opts.Headless {
		args = append(args, "--headless=new")
	}
	if opts.UserAgent != "" {
		args = append(args, fmt.Sprintf("--user-agent=%s", opts.UserAgent))
	}
	chromeCaps := chrome.Capabilities{
		Path:            opts.ChromePath,
		Args:            args,
		ExcludeSwitches: []string{"enable-automation"},
		Prefs: map[string]interface{}{
			"intl.accept_languages": acceptLanguagesPref(opts.AcceptLanguage),
		},
	}
	caps.AddChrome(chromeCaps)

	driver, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", port))
	if err != nil {
		service.Stop()
		ports.ReleasePort(port)
		return nil, fmt.Errorf("error creating WebDriver: %w", err)
	}

	opts.Ports = ports
	zap.L().Debug("chromedriver started", zap.Int("port", port))
	return &SeleniumReader{opts: opts, port: port, service: service, driver: driver}, nil
}

// Open loads url. With WaitNetworkIdle it additionally waits for the load
// event, which is the closest milestone WebDriver exposes.
func (r *SeleniumReader) Open(ctx context.Context, url string, wait WaitUntil) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := r.opts.Timeouts
	if err := r.driver.SetPageLoadTimeout(t.Navigation); err != nil {
		return fmt.Errorf("set page load timeout: %w", err)
	}

	start := time.Now()
	if err := r.driver.Get(url); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			return ErrTimeout{Step: "open " + url, Err: err}
		}
		return fmt.Errorf("navigation error: %w", err)
	}
	if wait != WaitNetworkIdle {
		return nil
	}

	remaining := t.Navigation - time.Since(start)
	if remaining <= 0 {
		return ErrTimeout{Step: "open " + url, Err: fmt.Errorf("navigation took %s", time.Since(start))}
	}
	return r.waitFor(ctx, "open "+url, remaining, func(wd selenium.WebDriver) (bool, error) {
		state, err := wd.ExecuteScript("return "+readyStateScript, nil)
		if err != nil {
			return false, nil
		}
		return state == "complete", nil
	})
}

func (r *SeleniumReader) ReadEmbeddedPayload(ctx context.Context) (string, error) {
	if err := r.waitForElement(ctx, NextDataSelector, r.opts.Timeouts.Payload); err != nil {
		return "", err
	}
	return r.evalString("return " + textScript(NextDataSelector))
}

func (r *SeleniumReader) SelectRegion(ctx context.Context, region string) error {
	t := r.opts.Timeouts
	if err := r.waitForElement(ctx, RegionButtonSelector, t.RegionButton); err != nil {
		return err
	}
	if _, err := r.driver.ExecuteScript("return "+clickScript(RegionButtonSelector, 0, "Region button not found"), nil); err != nil {
		return fmt.Errorf("open region list: %w", err)
	}

	if err := r.waitForElement(ctx, RegionOptionSelector, t.RegionList); err != nil {
		return err
	}
	doc, err := r.snapshot()
	if err != nil {
		return err
	}
	options := RegionOptions(doc)
	idx, found := MatchRegion(options, region)
	if !found {
		return Structuref("Region not found: %s", strings.TrimSpace(region))
	}
	choice := parser.NormalizeText(options[idx])
	if _, err := r.driver.ExecuteScript("return "+optionClickScript(RegionOptionSelector, choice, "Region option disappeared"), nil); err != nil {
		return fmt.Errorf("pick region: %w", err)
	}

	return r.waitFor(ctx, "wait for region "+region, t.RegionApplied, func(wd selenium.WebDriver) (bool, error) {
		label, err := wd.ExecuteScript("return "+textScript(RegionTextSelector), nil)
		if err != nil {
			return false, nil
		}
		s, _ := label.(string)
		return RegionApplied(s, region), nil
	})
}

func (r *SeleniumReader) ReadDetailFields(ctx context.Context) (models.RawDetail, error) {
	if err := r.waitForElement(ctx, StarsSelector, r.opts.Timeouts.DetailReady); err != nil {
		return models.RawDetail{}, err
	}
	doc, err := r.snapshot()
	if err != nil {
		return models.RawDetail{}, err
	}
	return DetailFields(doc), nil
}

// CaptureScreenshot grows the window to the document size, takes a PNG
// screenshot and re-encodes it as JPEG.
func (r *SeleniumReader) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width, _ := r.evalInt("return " + scrollWidthScript)
	height, _ := r.evalInt("return " + scrollHeightScript)
	if width > 0 && height > 0 {
		if err := r.driver.ResizeWindow("", width, height); err != nil {
			zap.L().Warn("resize window failed", zap.Error(err))
		}
	}

	raw, err := r.driver.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("screenshot error: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.opts.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Close quits the session, stops ChromeDriver and returns the port to the pool.
func (r *SeleniumReader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if qerr := r.driver.Quit(); qerr != nil {
			err = fmt.Errorf("quit webdriver: %w", qerr)
		}
		if serr := r.service.Stop(); serr != nil && err == nil {
			err = fmt.Errorf("stop chromedriver: %w", serr)
		}
		r.opts.Ports.ReleasePort(r.port)
	})
	return err
}

func (r *SeleniumReader) waitForElement(ctx context.Context, selector string, d time.Duration) error {
	return r.waitFor(ctx, "wait for "+selector, d, func(wd selenium.WebDriver) (bool, error) {
		elems, err := wd.FindElements(selenium.ByCSSSelector, selector)
		if err != nil {
			return false, nil
		}
		return len(elems) > 0, nil
	})
}

// waitFor polls cond until it holds, d elapses or ctx is done.
func (r *SeleniumReader) waitFor(ctx context.Context, step string, d time.Duration, cond selenium.Condition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	guarded := func(wd selenium.WebDriver) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		return cond(wd)
	}
	if err := r.driver.WaitWithTimeoutAndInterval(guarded, d, r.opts.Timeouts.PollInterval); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrTimeout{Step: step, Err: err}
	}
	return nil
}

func (r *SeleniumReader) snapshot() (*goquery.Document, error) {
	html, err := r.driver.PageSource()
	if err != nil {
		return nil, fmt.Errorf("page source error: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (r *SeleniumReader) evalString(script string) (string, error) {
	v, err := r.driver.ExecuteScript(script, nil)
	if err != nil {
		return "", fmt.Errorf("execute script: %w", err)
	}
	s, _ := v.(string)
	return s, nil
}

func (r *SeleniumReader) evalInt(script string) (int, error) {
	v, err := r.driver.ExecuteScript(script, nil)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result %T", v)
	}
	return int(f), nil
}

// primaryLanguage returns the first tag of an Accept-Language value.
func primaryLanguage(acceptLanguage string) string {
	first, _, _ := strings.Cut(acceptLanguage, ",")
	first, _, _ = strings.Cut(first, ";")
	return strings.TrimSpace(first)
}

// acceptLanguagesPref turns "ru-RU,ru;q=0.9" into Chrome's "ru-RU,ru".
func acceptLanguagesPref(acceptLanguage string) string {
	var tags []string
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(part, ";")
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return strings.Join(tags, ",")
}
