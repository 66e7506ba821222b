package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raushankrgupta/catalog-scraper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	skip, limit int64
	products    []models.ProductRun
	total       int64
	err         error
}

func (f *fakeLister) ListCatalogRuns(_ context.Context, skip, limit int64) ([]models.CatalogRun, int64, error) {
	f.skip, f.limit = skip, limit
	return nil, f.total, f.err
}

func (f *fakeLister) ListProductRuns(_ context.Context, skip, limit int64) ([]models.ProductRun, int64, error) {
	f.skip, f.limit = skip, limit
	return f.products, f.total, f.err
}

func TestProductRunsHandlerPagination(t *testing.T) {
	lister := &fakeLister{
		products: []models.ProductRun{{URL: "https://shop.example/p", Region: "Москва"}},
		total:    21,
	}
	h := &Handler{Runs: lister}

	rec := httptest.NewRecorder()
	h.ProductRunsHandler(rec, httptest.NewRequest(http.MethodGet, "/runs/product?page=3&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, int64(20), lister.skip)
	assert.Equal(t, int64(10), lister.limit)

	var resp struct {
		Runs        []models.ProductRun `json:"runs"`
		Total       int64               `json:"total"`
		CurrentPage int                 `json:"current_page"`
		TotalPages  int                 `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Runs, 1)
	assert.Equal(t, int64(21), resp.Total)
	assert.Equal(t, 3, resp.CurrentPage)
	assert.Equal(t, 3, resp.TotalPages)
}

func TestCatalogRunsHandlerEmpty(t *testing.T) {
	h := &Handler{Runs: &fakeLister{}}

	rec := httptest.NewRecorder()
	h.CatalogRunsHandler(rec, httptest.NewRequest(http.MethodGet, "/runs/catalog?page=-1&limit=abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"runs":[],"total":0,"current_page":1,"total_pages":0}`, rec.Body.String())
}

func TestRunsHandlerUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		handler    *Handler
		method     string
		wantStatus int
	}{
		{name: "recording disabled", handler: &Handler{}, method: http.MethodGet, wantStatus: http.StatusServiceUnavailable},
		{name: "wrong method", handler: &Handler{Runs: &fakeLister{}}, method: http.MethodPost, wantStatus: http.StatusMethodNotAllowed},
		{name: "database error", handler: &Handler{Runs: &fakeLister{err: errors.New("timeout")}}, method: http.MethodGet, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler.CatalogRunsHandler(rec, httptest.NewRequest(tt.method, "/runs/catalog", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPaginationCapsLimit(t *testing.T) {
	page, limit := pagination(httptest.NewRequest(http.MethodGet, "/runs/catalog?page=2&limit=1000", nil))
	assert.Equal(t, 2, page)
	assert.Equal(t, 100, limit)
}
