package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/config"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/repo/upstream"
	pkgmdw "github.com/nguyentranbao-ct/storefront-gateway/internal/server/middleware"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger/logctx"
	"go.uber.org/fx"
)

// NewEcho builds the HTTP API with its middleware chain and routes.
func NewEcho(conf *config.Config, handler Controller) (*echo.Echo, error) {
	origin, err := regexp.Compile(conf.CORS.AllowOriginPattern)
	if err != nil {
		return nil, fmt.Errorf("CORS_ALLOW_ORIGIN_PATTERN: %w", err)
	}

	httpLog := logger.MustNamed("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(httpLog, mapDomainError)

	logConfig := pkgmdw.LogRequestConfig{
		Logger: httpLog,
		Skipper: func(c echo.Context) bool {
			uri := c.Request().RequestURI
			return uri == "/health" || uri == "/metrics"
		},
		RequestBody: func(c echo.Context) bool { return true },
		// product lists are large
		ResponseBody: func(c echo.Context) bool {
			return c.Response().Status >= http.StatusBadRequest
		},
		Fields: func(c echo.Context) []any {
			if calls := upstream.Calls(c.Request().Context()); len(calls) > 0 {
				return []any{"upstream_calls", calls}
			}
			return nil
		},
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.CORSWithConfig(pkgmdw.CORSConfig{
		AllowOrigin:  origin,
		AllowMethods: conf.CORS.AllowMethods,
		AllowHeaders: conf.CORS.AllowHeaders,
	}))
	e.Use(pkgmdw.LogRequest(logConfig))
	if conf.Metrics.StatsdAddress != "" {
		e.Use(pkgmdw.ProfilerWithConfig(pkgmdw.ProfilerConfig{
			Log:     logger.MustNamed("statsd"),
			Address: conf.Metrics.StatsdAddress,
			Service: conf.Metrics.Service,
		}))
	}
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logctx.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return err
		},
	}))

	if conf.Server.Pprof {
		pkgmdw.PprofWrap(e, "")
	}

	e.GET("/health", handler.Health)

	api := e.Group("/api/v1")
	api.GET("/products", pkgmdw.WrapHandler(handler.ListProducts))
	api.GET("/products/:id", pkgmdw.WrapHandler(handler.GetProduct))
	api.GET("/categories", pkgmdw.WrapHandler(handler.ListCategories))
	api.GET("/categories/:id/children", pkgmdw.WrapHandler(handler.ListSubcategories))
	api.GET("/search", pkgmdw.WrapHandler(handler.Search))
	api.GET("/search/suggestions", pkgmdw.WrapHandler(handler.SearchSuggestions))
	api.POST("/images/resolve", pkgmdw.WrapHandler(handler.ResolveImages))
	api.GET("/images/check", pkgmdw.WrapHandler(handler.CheckImage))

	return e, nil
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	handler Controller,
) error {
	e, err := NewEcho(conf, handler)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logctx.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					logctx.Errorw(context.Background(), "HTTP server stopped", "error", err)
					_ = sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
	return nil
}
