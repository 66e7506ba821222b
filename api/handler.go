package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/scrapers"
	"github.com/raushankrgupta/catalog-scraper/scrapers/base"
	"github.com/raushankrgupta/catalog-scraper/scrapers/catalog"
	"github.com/raushankrgupta/catalog-scraper/scrapers/product"
	"github.com/raushankrgupta/catalog-scraper/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves extraction requests. Every run gets its own output
// directory under DataDir/runs and at most cap(slots) runs execute at once.
type Handler struct {
	DataDir   string
	Metrics   *scrapers.Metrics
	Publisher *scrapers.Publisher
	NewReader func(ctx context.Context) (scrapers.PageReader, error)
	// Runs is nil when run recording is disabled.
	Runs RunLister

	slots chan struct{}
}

// NewHandler creates a Handler that opens readers with newReader.
func NewHandler(dataDir string, maxRuns int, newReader func(context.Context) (scrapers.PageReader, error), metrics *scrapers.Metrics, publisher *scrapers.Publisher) *Handler {
	return &Handler{
		DataDir:   dataDir,
		Metrics:   metrics,
		Publisher: publisher,
		NewReader: newReader,
		slots:     make(chan struct{}, maxRuns),
	}
}

type scrapeRequest struct {
	URL    string `json:"url"`
	Region string `json:"region"`
}

type categoryResponse struct {
	ID         string                  `json:"id"`
	URL        string                  `json:"url"`
	Count      int                     `json:"count"`
	Products   []models.ProductSummary `json:"products"`
	OutputPath string                  `json:"output_path"`
	Archived   map[string]string       `json:"archived,omitempty"`
}

type productResponse struct {
	ID             string               `json:"id"`
	URL            string               `json:"url"`
	Region         string               `json:"region"`
	Detail         models.ProductDetail `json:"detail"`
	OutputPath     string               `json:"output_path"`
	ScreenshotPath string               `json:"screenshot_path"`
	ScreenshotURL  string               `json:"screenshot_url,omitempty"`
}

// CategoryHandler runs the listing extractor for ?url= or {"url": ...}.
func (h *Handler) CategoryHandler(w http.ResponseWriter, r *http.Request) {
	req := parseRequest(r)
	if req.URL == "" {
		utils.RespondError(w, "Please provide a 'url' query parameter or JSON body", http.StatusBadRequest)
		return
	}

	id := primitive.NewObjectID()
	var run *models.CatalogRun
	err := h.withReader(r.Context(), func(reader scrapers.PageReader) error {
		e := &catalog.Extractor{
			Reader:    reader,
			OutputDir: h.runDir(id),
			Metrics:   h.Metrics,
			Publisher: h.Publisher,
			RunID:     id,
		}
		var err error
		run, err = e.Run(r.Context(), req.URL)
		return err
	})
	if err != nil {
		respondRunError(w, err, zap.String("url", req.URL))
		return
	}

	utils.RespondJSON(w, http.StatusOK, categoryResponse{
		ID:         run.ID.Hex(),
		URL:        run.URL,
		Count:      len(run.Products),
		Products:   run.Products,
		OutputPath: run.OutputPath,
		Archived:   run.Archived,
	})
}

// ProductHandler runs the product extractor for ?url=&region= or the same
// fields in a JSON body.
func (h *Handler) ProductHandler(w http.ResponseWriter, r *http.Request) {
	req := parseRequest(r)
	if req.URL == "" || strings.TrimSpace(req.Region) == "" {
		utils.RespondError(w, "Please provide 'url' and 'region' as query parameters or JSON body", http.StatusBadRequest)
		return
	}

	id := primitive.NewObjectID()
	var run *models.ProductRun
	err := h.withReader(r.Context(), func(reader scrapers.PageReader) error {
		e := &product.Extractor{
			Reader:    reader,
			OutputDir: h.runDir(id),
			Metrics:   h.Metrics,
			Publisher: h.Publisher,
			RunID:     id,
		}
		var err error
		run, err = e.Run(r.Context(), req.URL, req.Region)
		return err
	})
	if err != nil {
		respondRunError(w, err, zap.String("url", req.URL), zap.String("region", req.Region))
		return
	}

	resp := productResponse{
		ID:             run.ID.Hex(),
		URL:            run.URL,
		Region:         run.Region,
		Detail:         run.Detail,
		OutputPath:     run.OutputPath,
		ScreenshotPath: run.ScreenshotPath,
	}
	if key, ok := run.Archived[run.ScreenshotPath]; ok {
		if url, err := h.Publisher.PresignURL(r.Context(), key); err == nil {
			resp.ScreenshotURL = url
		} else {
			zap.L().Warn("presigning screenshot failed", zap.String("key", key), zap.Error(err))
		}
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withReader waits for a free slot, opens a reader, runs fn and closes the
// reader again.
func (h *Handler) withReader(ctx context.Context, fn func(scrapers.PageReader) error) error {
	select {
	case h.slots <- struct{}{}:
		defer func() { <-h.slots }()
	case <-ctx.Done():
		return ctx.Err()
	}

	reader, err := h.NewReader(ctx)
	if err != nil {
		return fmt.Errorf("start page reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			zap.L().Warn("closing page reader", zap.Error(err))
		}
	}()

	return fn(reader)
}

func (h *Handler) runDir(id primitive.ObjectID) string {
	return filepath.Join(h.DataDir, "runs", id.Hex())
}

// parseRequest reads query parameters, falling back to a JSON body.
func parseRequest(r *http.Request) scrapeRequest {
	q := r.URL.Query()
	req := scrapeRequest{URL: q.Get("url"), Region: q.Get("region")}
	if req.URL != "" {
		return req
	}

	var body scrapeRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			return body
		}
	}
	return req
}

func respondRunError(w http.ResponseWriter, err error, fields ...zap.Field) {
	kind := base.ErrorKind(err)
	fields = append(fields, zap.String("error_kind", kind), zap.Error(err))
	utils.RespondError(w, err.Error(), statusFor(kind), fields...)
}

func statusFor(kind string) int {
	switch kind {
	case "usage":
		return http.StatusBadRequest
	case "structure":
		return http.StatusUnprocessableEntity
	case "timeout":
		return http.StatusGatewayTimeout
	case "unsupported":
		return http.StatusNotImplemented
	case "canceled":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
