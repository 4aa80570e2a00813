package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

type CORSConfig struct {
	// AllowOrigin matches the request Origin; unmatched origins get no CORS headers.
	AllowOrigin  *regexp.Regexp
	AllowMethods []string
	AllowHeaders []string
}

var DefaultCORSConfig = CORSConfig{
	AllowOrigin: regexp.MustCompile(`.*`),
	// `*` only may not cover Authorization header in Safari 12
	AllowHeaders: []string{"*", "Authorization"},
	AllowMethods: []string{"OPTIONS", "POST", "PUT", "DELETE", "GET", "PATCH", "HEAD"},
}

// CORS return echo middleware that handle cors with regexp pattern
func CORS(pattern *regexp.Regexp) echo.MiddlewareFunc {
	conf := DefaultCORSConfig
	conf.AllowOrigin = pattern
	return CORSWithConfig(conf)
}

func CORSWithConfig(config CORSConfig) echo.MiddlewareFunc {
	if config.AllowOrigin == nil {
		config.AllowOrigin = DefaultCORSConfig.AllowOrigin
	}
	if len(config.AllowMethods) == 0 {
		config.AllowMethods = DefaultCORSConfig.AllowMethods
	}
	if len(config.AllowHeaders) == 0 {
		config.AllowHeaders = DefaultCORSConfig.AllowHeaders
	}
	allowMethods := strings.Join(config.AllowMethods, ", ")
	allowHeaders := strings.Join(config.AllowHeaders, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			respHeader := c.Response().Header()
			respHeader.Add(echo.HeaderVary, echo.HeaderOrigin)
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" || !config.AllowOrigin.MatchString(origin) {
				return next(c)
			}
			respHeader.Set(echo.HeaderAccessControlAllowOrigin, origin)
			respHeader.Set(echo.HeaderAccessControlExposeHeaders, XRequestID)
			if c.Request().Method == http.MethodOptions {
				respHeader.Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
				respHeader.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}
}
