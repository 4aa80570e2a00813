package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/storefront-gateway/internal/config"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/ctxval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, product, category, backup string) Client {
	t.Helper()
	conf, err := config.Load()
	require.NoError(t, err)
	conf.Upstream.ProductBaseURL = product
	conf.Upstream.CategoryBaseURL = category
	conf.Upstream.BackupBaseURL = backup
	conf.Upstream.RetryBackoff = time.Millisecond
	conf.Upstream.Timeout = time.Second
	conf.Upstream.ProbeTimeout = 200 * time.Millisecond

	c, err := NewClient(conf)
	require.NoError(t, err)
	return c
}

func TestGetProducts(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"data":[{"id":"p1"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)
	ctx := context.Background()

	body, err := c.GetProducts(ctx, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"id":"p1"}]}`, string(body))

	_, err = c.GetProducts(ctx, "c 7")
	require.NoError(t, err)

	assert.Equal(t, []string{"/products", "/product/products/category/c%207"}, paths)
}

func TestGetCategoryTreeAndSearch(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.RequestURI())
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)
	_, err := c.GetCategoryTree(context.Background())
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "red shoes&more")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/product/categories/tree",
		"/product/search?q=red+shoes%26more",
	}, got)
}

func TestGetRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)
	_, err := c.GetProducts(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetProductDetail(t *testing.T) {
	newSource := func(body string, status int, hits *atomic.Int32) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
	}
	hasProduct := func(body []byte) bool { return strings.Contains(string(body), `"id"`) }

	t.Run("falls through to backup", func(t *testing.T) {
		var h1, h2, h3 atomic.Int32
		primary := newSource(`{"data":null}`, http.StatusOK, &h1)
		defer primary.Close()
		category := newSource(`not found`, http.StatusNotFound, &h2)
		defer category.Close()
		backup := newSource(`{"id":"p1"}`, http.StatusOK, &h3)
		defer backup.Close()

		c := newTestClient(t, primary.URL, category.URL, backup.URL)
		ctx := ctxval.Wrap(context.Background())
		body, err := c.GetProductDetail(ctx, "p1", hasProduct)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"p1"}`, string(body))
		assert.Equal(t, int32(1), h1.Load())
		assert.Equal(t, int32(1), h2.Load())
		assert.Equal(t, int32(1), h3.Load())
		assert.Equal(t, []string{
			"product_detail:success",
			"product_detail:failure",
			"product_detail:success",
		}, Calls(ctx))
	})

	t.Run("stops at first accepted body", func(t *testing.T) {
		var h1, h2 atomic.Int32
		primary := newSource(`{"data":{"id":"p1"}}`, http.StatusOK, &h1)
		defer primary.Close()
		other := newSource(`{"id":"p1"}`, http.StatusOK, &h2)
		defer other.Close()

		c := newTestClient(t, primary.URL, other.URL, other.URL)
		_, err := c.GetProductDetail(context.Background(), "p1", hasProduct)
		require.NoError(t, err)
		assert.Equal(t, int32(1), h1.Load())
		assert.Equal(t, int32(0), h2.Load())
	})

	t.Run("not found", func(t *testing.T) {
		var hits atomic.Int32
		empty := newSource(`{}`, http.StatusOK, &hits)
		defer empty.Close()

		c := newTestClient(t, empty.URL, empty.URL, empty.URL)
		_, err := c.GetProductDetail(context.Background(), "p1", hasProduct)
		assert.ErrorIs(t, err, models.ErrProductNotFound)
		assert.Equal(t, int32(3), hits.Load())
	})
}

func TestPing(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	ctx := context.Background()
	assert.True(t, newTestClient(t, up.URL, up.URL, up.URL).Ping(ctx))
	assert.False(t, newTestClient(t, down.URL, down.URL, down.URL).Ping(ctx))
	assert.False(t, newTestClient(t, slow.URL, slow.URL, slow.URL).Ping(ctx))
}

func TestCheckImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.png":
			w.Header().Set("Content-Type", "image/png")
		case "/page":
			w.Header().Set("Content-Type", "text/html")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)
	ctx := context.Background()

	ok, err := c.CheckImage(ctx, srv.URL+"/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CheckImage(ctx, srv.URL+"/page")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.CheckImage(ctx, srv.URL+"/missing.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewClientRejectsBadEndpoint(t *testing.T) {
	conf, err := config.Load()
	require.NoError(t, err)
	conf.Upstream.Endpoints.Search = "{{.Nope"
	_, err = NewClient(conf)
	assert.Error(t, err)

	conf, err = config.Load()
	require.NoError(t, err)
	conf.Upstream.ProductBaseURL = "not-a-url"
	_, err = NewClient(conf)
	assert.Error(t, err)
}
