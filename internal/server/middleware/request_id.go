package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/ctxval"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger/logctx"
)

// XRequestID is both the header and the context key of the request id.
const XRequestID = logctx.RequestIDKey

// RequestIDConfig controls how the id of a request is found or made.
type RequestIDConfig struct {
	Skipper Skipper
	// Generate makes an id when the client sent none.
	Generate func() string
	// MaxLength drops client ids longer than this. 0 means 128.
	MaxLength int
}

var DefaultRequestIDConfig = RequestIDConfig{
	Skipper:   DefaultSkipper,
	Generate:  uuid.NewString,
	MaxLength: 128,
}

// GetRequestID returns the id stored by RequestID, or "" outside of it.
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(XRequestID).(string); ok {
		return id
	}
	return RequestIDFromContext(c.Request().Context())
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(XRequestID).(string)
	return id
}

// RequestID reuses the client's x-request-id or generates one, echoes it in the response
// and stores it where logctx finds it. The request context also gets a ctxval bag.
func RequestID() echo.MiddlewareFunc {
	return RequestIDWithConfig(DefaultRequestIDConfig)
}

func RequestIDWithConfig(config RequestIDConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultRequestIDConfig.Skipper
	}
	if config.Generate == nil {
		config.Generate = DefaultRequestIDConfig.Generate
	}
	if config.MaxLength <= 0 {
		config.MaxLength = DefaultRequestIDConfig.MaxLength
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			id := req.Header.Get(XRequestID)
			if id == "" || len(id) > config.MaxLength {
				id = config.Generate()
			}

			ctx := ctxval.Wrap(req.Context())
			//lint:ignore SA1029 logctx reads this plain string key
			ctx = context.WithValue(ctx, XRequestID, id)
			c.SetRequest(req.WithContext(ctx))
			c.Set(XRequestID, id)
			c.Response().Header().Set(XRequestID, id)
			return next(c)
		}
	}
}
