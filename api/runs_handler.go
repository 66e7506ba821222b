package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/raushankrgupta/catalog-scraper/utils"
	"go.uber.org/zap"
)

// RunLister reads recorded runs, newest first.
type RunLister interface {
	ListCatalogRuns(ctx context.Context, skip, limit int64) ([]models.CatalogRun, int64, error)
	ListProductRuns(ctx context.Context, skip, limit int64) ([]models.ProductRun, int64, error)
}

// RunsResponse is one page of recorded runs.
type RunsResponse struct {
	Runs        interface{} `json:"runs"`
	Total       int64       `json:"total"`
	CurrentPage int         `json:"current_page"`
	TotalPages  int         `json:"total_pages"`
}

// CatalogRunsHandler pages through recorded catalog runs.
func (h *Handler) CatalogRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.canList(w, r) {
		return
	}
	page, limit := pagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	runs, total, err := h.Runs.ListCatalogRuns(ctx, int64((page-1)*limit), int64(limit))
	if err != nil {
		utils.RespondError(w, "Failed to fetch data", http.StatusInternalServerError, zap.Error(err))
		return
	}
	if runs == nil {
		runs = []models.CatalogRun{}
	}

	utils.RespondJSON(w, http.StatusOK, RunsResponse{
		Runs:        runs,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
	})
}

// ProductRunsHandler pages through recorded product runs. Archived
// screenshots are returned as presigned URLs.
func (h *Handler) ProductRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.canList(w, r) {
		return
	}
	page, limit := pagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	runs, total, err := h.Runs.ListProductRuns(ctx, int64((page-1)*limit), int64(limit))
	if err != nil {
		utils.RespondError(w, "Failed to fetch data", http.StatusInternalServerError, zap.Error(err))
		return
	}
	if runs == nil {
		runs = []models.ProductRun{}
	}

	for i := range runs {
		key, ok := runs[i].Archived[runs[i].ScreenshotPath]
		if !ok {
			continue
		}
		if url, err := h.Publisher.PresignURL(ctx, key); err == nil {
			runs[i].Archived[runs[i].ScreenshotPath] = url
		}
	}

	utils.RespondJSON(w, http.StatusOK, RunsResponse{
		Runs:        runs,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
	})
}

func (h *Handler) canList(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		utils.RespondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if h.Runs == nil {
		utils.RespondError(w, "Run recording is disabled", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = min(l, 100)
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
