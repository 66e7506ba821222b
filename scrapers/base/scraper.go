package base

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/catalog-scraper/models"
	"go.uber.org/zap"
)

// HTTPReader fetches server-rendered HTML without a browser. It can read the
// embedded page data but cannot interact with the page.
type HTTPReader struct {
	Client *http.Client
	opts   Options

	mu  sync.Mutex
	doc *goquery.Document
}

// NewHTTPReader creates a reader. Requests are bounded by the navigation
// timeout in Open.
func NewHTTPReader(opts Options) *HTTPReader {
	return &HTTPReader{
		Client: &http.Client{
			Transport: &http.Transport{
				ForceAttemptHTTP2:     false,
				TLSNextProto:          make(map[string]func(string, *tls.Conn) http.RoundTripper),
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		opts: opts,
	}
}

// Open downloads url and keeps the parsed document. wait is ignored since
// nothing runs scripts.
func (h *HTTPReader) Open(ctx context.Context, url string, _ WaitUntil) error {
	ctx, cancel := context.WithTimeout(ctx, h.opts.Timeouts.Navigation)
	defer cancel()

	doc, err := h.fetch(ctx, url)
	if err != nil {
		return StepError("open "+url, err)
	}
	if looksBlocked(doc) {
		return Structuref("open %s: page looks like a bot check", url)
	}

	h.mu.Lock()
	h.doc = doc
	h.mu.Unlock()
	zap.L().Debug("page fetched", zap.String("url", url))
	return nil
}

func (h *HTTPReader) ReadEmbeddedPayload(_ context.Context) (string, error) {
	h.mu.Lock()
	doc := h.doc
	h.mu.Unlock()
	if doc == nil {
		return "", fmt.Errorf("no page opened")
	}

	payload, ok := EmbeddedPayload(doc)
	if !ok {
		return "", ErrTimeout{Step: "wait for " + NextDataSelector, Err: fmt.Errorf("element not present in server response")}
	}
	return payload, nil
}

func (h *HTTPReader) SelectRegion(context.Context, string) error {
	return ErrUnsupported{Backend: "http", Op: "select a region"}
}

func (h *HTTPReader) ReadDetailFields(context.Context) (models.RawDetail, error) {
	return models.RawDetail{}, ErrUnsupported{Backend: "http", Op: "read client-rendered product fields"}
}

func (h *HTTPReader) CaptureScreenshot(context.Context) ([]byte, error) {
	return nil, ErrUnsupported{Backend: "http", Op: "capture screenshots"}
}

func (h *HTTPReader) Close() error {
	h.Client.CloseIdleConnections()
	return nil
}

func (h *HTTPReader) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	if h.opts.UserAgent != "" {
		req.Header.Set("User-Agent", h.opts.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", h.opts.AcceptLanguage)
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")

	res, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}
	return goquery.NewDocumentFromReader(res.Body)
}

// looksBlocked spots captcha and access-denied interstitials.
func looksBlocked(doc *goquery.Document) bool {
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").Text()))
	return strings.Contains(title, "robot check") ||
		strings.Contains(title, "captcha") ||
		strings.Contains(title, "access denied")
}
