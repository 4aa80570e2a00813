package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestTimingKey(t *testing.T) {
	tests := []struct {
		method, route string
		status        int
		want          string
	}{
		{"GET", "/api/v1/products/:id", 200, "response.shop.get.api.v1.products.id.200"},
		{"POST", "/api/v1/images/resolve", 400, "response.shop.post.api.v1.images.resolve.400"},
		{"GET", "/", 404, "response.shop.get.root.404"},
		{"GET", "", 404, "response.shop.get.root.404"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timingKey("shop", tt.method, tt.route, tt.status))
	}
}

func TestProfilerUnreachableStatsd(t *testing.T) {
	e := echo.New()
	// an unresolvable address mutes the client instead of failing the request
	e.Use(ProfilerWithConfig(ProfilerConfig{Address: "invalid host:-1", Service: "shop"}))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}
