package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/config"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	gotCategory string
	gotQuery    string
	products    []models.Entity
	detail      models.Entity
	detailErr   error
	upstream    bool
}

func (f *fakeCatalog) ListProducts(_ context.Context, categoryID string) []models.Entity {
	f.gotCategory = categoryID
	return f.products
}

func (f *fakeCatalog) ListCategories(context.Context) []models.Entity {
	return []models.Entity{{"id": float64(1), "name": "Electronics"}}
}

func (f *fakeCatalog) ListSubcategories(_ context.Context, parentID string) []models.Entity {
	if parentID == "1" {
		return []models.Entity{{"id": float64(11)}}
	}
	return []models.Entity{}
}

func (f *fakeCatalog) SearchProducts(_ context.Context, query string) []models.Entity {
	f.gotQuery = query
	return []models.Entity{}
}

func (f *fakeCatalog) SearchSuggestions(query string) []models.Suggestion {
	return []models.Suggestion{{Text: query, Icon: "fa-solid fa-magnifying-glass"}}
}

func (f *fakeCatalog) GetProductDetail(_ context.Context, id string) (models.Entity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.ErrProductIDRequired
	}
	return f.detail, f.detailErr
}

func (f *fakeCatalog) ResolveImages(sources []string, fallback string) []models.ResolvedImage {
	out := make([]models.ResolvedImage, len(sources))
	for i, s := range sources {
		out[i] = models.ResolvedImage{Source: s, URL: fallback}
	}
	return out
}

func (f *fakeCatalog) CheckImage(_ context.Context, url string) models.ImageCheck {
	return models.ImageCheck{URL: url, Valid: true}
}

func (f *fakeCatalog) Availability(context.Context) models.Availability {
	return models.Availability{Upstream: f.upstream}
}

func newTestServer(t *testing.T, catalog *fakeCatalog) *echo.Echo {
	t.Helper()
	conf, err := config.Load()
	require.NoError(t, err)
	e, err := NewEcho(conf, NewHandler(catalog, conf))
	require.NoError(t, err)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, &fakeCatalog{upstream: true})

	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"storefront-gateway","upstream":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("x-request-id"))
}

func TestListProducts(t *testing.T) {
	catalog := &fakeCatalog{products: []models.Entity{{"id": "p1"}}}
	e := newTestServer(t, catalog)

	rec := do(e, http.MethodGet, "/api/v1/products?category_id=7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[{"id":"p1"}]}`, rec.Body.String())
	assert.Equal(t, "7", catalog.gotCategory)

	rec = do(e, http.MethodGet, "/api/v1/products", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", catalog.gotCategory)

	rec = do(e, http.MethodGet, "/api/v1/products?category_id=null", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProductsEmpty(t *testing.T) {
	e := newTestServer(t, &fakeCatalog{products: []models.Entity{}})

	rec := do(e, http.MethodGet, "/api/v1/products", "")
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())
}

func TestGetProduct(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		e := newTestServer(t, &fakeCatalog{detail: models.Entity{"id": "p1", "name": "Laptop"}})
		rec := do(e, http.MethodGet, "/api/v1/products/p1", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"data":{"id":"p1","name":"Laptop"}}`, rec.Body.String())
	})

	t.Run("blank id", func(t *testing.T) {
		e := newTestServer(t, &fakeCatalog{})
		rec := do(e, http.MethodGet, "/api/v1/products/%20", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{
			"success": false,
			"error_code": "PRODUCT_ID_REQUIRED",
			"error_message": "product id is required",
			"error_data": {"retryable": true}
		}`, rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		e := newTestServer(t, &fakeCatalog{detailErr: fmt.Errorf("lookup: %w", models.ErrProductNotFound)})
		rec := do(e, http.MethodGet, "/api/v1/products/p404", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{
			"success": false,
			"error_code": "PRODUCT_NOT_FOUND",
			"error_message": "product not found in any upstream",
			"error_data": {"retryable": true}
		}`, rec.Body.String())
	})

	t.Run("upstream failure", func(t *testing.T) {
		e := newTestServer(t, &fakeCatalog{detailErr: context.DeadlineExceeded})
		rec := do(e, http.MethodGet, "/api/v1/products/p1", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestCategories(t *testing.T) {
	e := newTestServer(t, &fakeCatalog{})

	rec := do(e, http.MethodGet, "/api/v1/categories", "")
	assert.JSONEq(t, `{"success":true,"data":[{"id":1,"name":"Electronics"}]}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/v1/categories/1/children", "")
	assert.JSONEq(t, `{"success":true,"data":[{"id":11}]}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/v1/categories/undefined/children", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	catalog := &fakeCatalog{}
	e := newTestServer(t, catalog)

	rec := do(e, http.MethodGet, "/api/v1/search?q=laptop", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())
	assert.Equal(t, "laptop", catalog.gotQuery)

	rec = do(e, http.MethodGet, "/api/v1/search?q=%20%20", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/search/suggestions?q=lap", "")
	assert.JSONEq(t, `{"success":true,"data":[{"text":"lap","icon":"fa-solid fa-magnifying-glass"}]}`, rec.Body.String())
}

func TestImages(t *testing.T) {
	e := newTestServer(t, &fakeCatalog{})

	rec := do(e, http.MethodPost, "/api/v1/images/resolve", `{"sources":["a","b"],"fallback":"/x.png"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[{"source":"a","url":"/x.png"},{"source":"b","url":"/x.png"}]}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/v1/images/resolve", `{"fallback":"/x.png"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/images/check?url=https%3A%2F%2Fcdn.example.com%2Fa.png", "")
	assert.JSONEq(t, `{"success":true,"data":{"url":"https://cdn.example.com/a.png","valid":true}}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/v1/images/check", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	e := newTestServer(t, &fakeCatalog{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestServer(t, &fakeCatalog{})
	do(e, http.MethodGet, "/api/v1/categories", "")

	rec := do(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "request_duration_seconds")
}

func TestValidationErrorCode(t *testing.T) {
	e := newTestServer(t, &fakeCatalog{})

	for _, target := range []string{
		"/api/v1/search?q=%20%20",
		"/api/v1/products?category_id=null",
		"/api/v1/categories/undefined/children",
		"/api/v1/images/check",
	} {
		t.Run(target, func(t *testing.T) {
			rec := do(e, http.MethodGet, target, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "INVALID_REQUEST", body["error_code"])
			assert.NotEmpty(t, body["error_message"])
		})
	}
}
