// Package upstream fetches raw catalog payloads from the product, category and backup
// services. Bodies are returned as-is; shape handling belongs to the normalizer.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/config"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/ctxval"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/tmplx"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	endpointAllProducts      = "all_products"
	endpointCategoryProducts = "category_products"
	endpointCategoryTree     = "category_tree"
	endpointSearch           = "search"
	endpointProductDetail    = "product_detail"
	endpointProbe            = "probe"
	endpointImage            = "image"
)

// StatusError is returned when an upstream answers with a non-2xx status after retries.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.Code)
}

type Client interface {
	// GetProducts returns all products, or those of categoryID when it is not empty.
	GetProducts(ctx context.Context, categoryID string) ([]byte, error)
	GetCategoryTree(ctx context.Context) ([]byte, error)
	Search(ctx context.Context, query string) ([]byte, error)
	// GetProductDetail asks each detail endpoint in order and returns the first body that
	// accept approves. It returns models.ErrProductNotFound when none does.
	GetProductDetail(ctx context.Context, id string, accept func(body []byte) bool) ([]byte, error)
	// Ping reports whether the product service answers a HEAD request with 2xx.
	Ping(ctx context.Context) bool
	// CheckImage reports whether url serves an image.
	CheckImage(ctx context.Context, url string) (bool, error)
}

type endpointData struct {
	ProductBaseURL  string
	CategoryBaseURL string
	BackupBaseURL   string
	ID              string
	Query           string
}

type endpoints struct {
	allProducts      *tmplx.Template
	categoryProducts *tmplx.Template
	categoryTree     *tmplx.Template
	search           *tmplx.Template
	productDetail    []*tmplx.Template
	probe            *tmplx.Template
}

type client struct {
	http      *resty.Client
	probe     *resty.Client
	endpoints endpoints
	base      endpointData
	latency   *prometheus.HistogramVec
}

func NewClient(conf *config.Config) (Client, error) {
	cfg := conf.Upstream
	base := endpointData{
		ProductBaseURL:  cfg.ProductBaseURL,
		CategoryBaseURL: cfg.CategoryBaseURL,
		BackupBaseURL:   cfg.BackupBaseURL,
	}

	eps, err := parseEndpoints(cfg.Endpoints, base)
	if err != nil {
		return nil, err
	}

	latency, err := util.GetHistogramVec("upstream_request_duration_seconds", "endpoint", "outcome")
	if err != nil {
		return nil, fmt.Errorf("upstream metrics: %w", err)
	}

	return &client{
		http: util.NewRestyClient(util.RetryOptions{
			MaxRetries: cfg.MaxRetries,
			Backoff:    cfg.RetryBackoff,
			Timeout:    cfg.Timeout,
			Logger:     logger.MustNamed("upstream.retry"),
		}),
		probe:     util.NewProbeClient(cfg.ProbeTimeout),
		endpoints: eps,
		base:      base,
		latency:   latency,
	}, nil
}

func parseEndpoints(cfg config.EndpointsConfig, base endpointData) (endpoints, error) {
	sample := base
	sample.ID = "1"
	sample.Query = "q"
	parse := func(name, text string) (*tmplx.Template, error) {
		t, err := tmplx.Parse(name, text, tmplx.WithURLValidate(sample))
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", name, err)
		}
		return t, nil
	}

	var (
		eps endpoints
		err error
	)
	if eps.allProducts, err = parse(endpointAllProducts, cfg.AllProducts); err != nil {
		return eps, err
	}
	if eps.categoryProducts, err = parse(endpointCategoryProducts, cfg.CategoryProducts); err != nil {
		return eps, err
	}
	if eps.categoryTree, err = parse(endpointCategoryTree, cfg.CategoryTree); err != nil {
		return eps, err
	}
	if eps.search, err = parse(endpointSearch, cfg.Search); err != nil {
		return eps, err
	}
	if eps.probe, err = parse(endpointProbe, cfg.Probe); err != nil {
		return eps, err
	}
	for i, text := range cfg.ProductDetail {
		t, err := parse(fmt.Sprintf("%s_%d", endpointProductDetail, i), text)
		if err != nil {
			return eps, err
		}
		eps.productDetail = append(eps.productDetail, t)
	}
	return eps, nil
}

func (c *client) GetProducts(ctx context.Context, categoryID string) ([]byte, error) {
	if categoryID == "" {
		return c.get(ctx, endpointAllProducts, c.endpoints.allProducts, c.base)
	}
	data := c.base
	data.ID = categoryID
	return c.get(ctx, endpointCategoryProducts, c.endpoints.categoryProducts, data)
}

func (c *client) GetCategoryTree(ctx context.Context) ([]byte, error) {
	return c.get(ctx, endpointCategoryTree, c.endpoints.categoryTree, c.base)
}

func (c *client) Search(ctx context.Context, query string) ([]byte, error) {
	data := c.base
	data.Query = query
	return c.get(ctx, endpointSearch, c.endpoints.search, data)
}

func (c *client) GetProductDetail(ctx context.Context, id string, accept func(body []byte) bool) ([]byte, error) {
	data := c.base
	data.ID = id
	for _, tmpl := range c.endpoints.productDetail {
		body, err := c.get(ctx, endpointProductDetail, tmpl, data)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logctx.Warnw(ctx, "product detail source failed", "source", tmpl.Name(), "id", id, "error", err)
			continue
		}
		if accept(body) {
			return body, nil
		}
		logctx.Infow(ctx, "product detail source has no product", "source", tmpl.Name(), "id", id)
	}
	return nil, models.ErrProductNotFound
}

func (c *client) Ping(ctx context.Context) bool {
	url, err := c.endpoints.probe.RenderURL(c.base)
	if err != nil {
		return false
	}
	start := time.Now()
	resp, err := c.probe.R().SetContext(ctx).Head(url)
	ok := err == nil && resp.IsSuccess()
	c.observe(ctx, endpointProbe, start, ok)
	return ok
}

func (c *client) CheckImage(ctx context.Context, url string) (bool, error) {
	start := time.Now()
	resp, err := c.probe.R().SetContext(ctx).Head(url)
	if err != nil {
		c.observe(ctx, endpointImage, start, false)
		return false, fmt.Errorf("check image: %w", err)
	}
	ok := resp.IsSuccess() && strings.HasPrefix(resp.Header().Get("Content-Type"), "image/")
	c.observe(ctx, endpointImage, start, ok)
	return ok, nil
}

func (c *client) get(ctx context.Context, endpoint string, tmpl *tmplx.Template, data endpointData) ([]byte, error) {
	url, err := tmpl.RenderURL(data)
	if err != nil {
		return nil, fmt.Errorf("render %s url: %w", endpoint, err)
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)
	if err != nil {
		c.observe(ctx, endpoint, start, false)
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		c.observe(ctx, endpoint, start, false)
		return nil, &StatusError{URL: url, Code: resp.StatusCode()}
	}
	c.observe(ctx, endpoint, start, true)
	logctx.Debugw(ctx, "upstream response", "endpoint", endpoint, "status", resp.StatusCode(), "size", len(resp.Body()))
	return resp.Body(), nil
}

func (c *client) observe(ctx context.Context, endpoint string, start time.Time, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	c.latency.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
	ctxval.Update(ctx, callsKey{}, func(calls []string) []string {
		return append(calls, endpoint+":"+outcome)
	})
}

type callsKey struct{}

// Calls lists the upstream calls made under ctx as "endpoint:outcome", oldest first.
// It is empty unless ctx was wrapped with ctxval.Wrap.
func Calls(ctx context.Context) []string {
	calls, _ := ctxval.Get[callsKey, []string](ctx, callsKey{})
	return calls
}

// IsStatus reports whether err carries an upstream status equal to code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
