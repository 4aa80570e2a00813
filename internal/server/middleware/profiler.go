package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"gopkg.in/alexcesaro/statsd.v2"
)

type (
	ProfilerConfig struct {
		Log     Logger
		Skipper Skipper
		Address string
		Service string
	}
)

var DefaultProfilerConfig = ProfilerConfig{
	Log:     nil,
	Skipper: DefaultSkipper,
	Address: ":8125",
	Service: "default",
}

func Profiler() echo.MiddlewareFunc {
	return ProfilerWithConfig(DefaultProfilerConfig)
}

// ProfilerWithConfig sends one statsd timing per request, keyed
// response.<service>.<method>.<route>.<status>. An unreachable statsd address mutes the
// client instead of failing.
func ProfilerWithConfig(config ProfilerConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultProfilerConfig.Skipper
	}
	if config.Address == "" {
		config.Address = DefaultProfilerConfig.Address
	}
	if config.Service == "" {
		config.Service = DefaultProfilerConfig.Service
	}

	client, err := statsd.New(statsd.Address(config.Address))
	if err != nil && config.Log != nil {
		config.Log.Warnw("statsd unavailable, timings are dropped", "address", config.Address, "error", err)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			if config.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			res := c.Response()
			t := client.NewTiming()
			if err = next(c); err != nil {
				c.Error(err)
			}

			s := timingKey(config.Service, req.Method, c.Path(), res.Status)
			if config.Log != nil {
				config.Log.Debugw("statsd timing", "key", s)
			}
			t.Send(s)

			return
		}
	}
}

func timingKey(service, method, route string, status int) string {
	route = strings.Trim(strings.NewReplacer("/", ".", ":", "").Replace(route), ".")
	if route == "" {
		route = "root"
	}
	return strings.ToLower(fmt.Sprintf("response.%s.%s.%s.%d", service, method, route, status))
}
