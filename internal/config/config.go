package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Upstream UpstreamConfig `envPrefix:"UPSTREAM_"`
	Image    ImageConfig    `envPrefix:"IMAGE_"`
	CORS     CORSConfig     `envPrefix:"CORS_"`
	Metrics  MetricsConfig  `envPrefix:"METRICS_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

type ServerConfig struct {
	Addr  string `env:"ADDR" envDefault:":3001"`
	Pprof bool   `env:"PPROF" envDefault:"false"`
}

type UpstreamConfig struct {
	ProductBaseURL  string `env:"PRODUCT_BASE_URL" envDefault:"http://localhost:8060"`
	CategoryBaseURL string `env:"CATEGORY_BASE_URL" envDefault:"http://localhost:8000"`
	BackupBaseURL   string `env:"BACKUP_BASE_URL" envDefault:"http://localhost:8080"`

	// Timeout bounds a single attempt; retries get a fresh timeout each.
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"8s"`
	MaxRetries   int           `env:"MAX_RETRIES" envDefault:"2"`
	RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"1s"`
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" envDefault:"2s"`

	Endpoints EndpointsConfig `envPrefix:"ENDPOINT_"`
}

// EndpointsConfig holds text/template URL templates rendered with the base URLs,
// ID and Query.
type EndpointsConfig struct {
	AllProducts      string   `env:"ALL_PRODUCTS" envDefault:"{{.ProductBaseURL}}/products"`
	CategoryProducts string   `env:"CATEGORY_PRODUCTS" envDefault:"{{.CategoryBaseURL}}/product/products/category/{{path .ID}}"`
	CategoryTree     string   `env:"CATEGORY_TREE" envDefault:"{{.CategoryBaseURL}}/product/categories/tree"`
	Search           string   `env:"SEARCH" envDefault:"{{.CategoryBaseURL}}/product/search?{{query \"q\" .Query}}"`
	ProductDetail    []string `env:"PRODUCT_DETAIL" envSeparator:";" envDefault:"{{.ProductBaseURL}}/products/{{path .ID}};{{.CategoryBaseURL}}/product/products/{{path .ID}};{{.BackupBaseURL}}/products/{{path .ID}}"`
	Probe            string   `env:"PROBE" envDefault:"{{.ProductBaseURL}}/products"`
}

type ImageConfig struct {
	Fallback      string `env:"FALLBACK" envDefault:"./public/images/cart_logo.png"`
	ThumbnailSize int    `env:"THUMBNAIL_SIZE" envDefault:"200"`
	Concurrency   int    `env:"CONCURRENCY" envDefault:"8"`
}

type CORSConfig struct {
	AllowOriginPattern string   `env:"ALLOW_ORIGIN_PATTERN" envDefault:".*"`
	AllowMethods       []string `env:"ALLOW_METHODS" envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowHeaders       []string `env:"ALLOW_HEADERS" envDefault:"Content-Type,Authorization,X-User-Id"`
}

type MetricsConfig struct {
	// StatsdAddress enables the statsd profiler middleware when set.
	StatsdAddress string `env:"STATSD_ADDRESS"`
	Service       string `env:"SERVICE" envDefault:"storefront-gateway"`
}

type LogConfig struct {
	Level       string `env:"LEVEL" envDefault:"info"`
	Development bool   `env:"DEVELOPMENT" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}
	return cfg
}

func (c *Config) validate() error {
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.Upstream.Timeout)
	}
	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("UPSTREAM_MAX_RETRIES must not be negative, got %d", c.Upstream.MaxRetries)
	}
	if c.Upstream.RetryBackoff < 0 {
		return fmt.Errorf("UPSTREAM_RETRY_BACKOFF must not be negative, got %s", c.Upstream.RetryBackoff)
	}
	if len(c.Upstream.Endpoints.ProductDetail) == 0 {
		return fmt.Errorf("UPSTREAM_ENDPOINT_PRODUCT_DETAIL needs at least one template")
	}
	if c.Image.Concurrency <= 0 {
		c.Image.Concurrency = 1
	}
	return nil
}
