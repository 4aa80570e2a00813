package middleware

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

// LogRequestConfig configures LogRequest. Only Logger is required.
type LogRequestConfig struct {
	Logger  Logger
	Skipper Skipper
	// RequestBody decides before the handler runs whether a JSON request body is logged.
	RequestBody func(c echo.Context) bool
	// ResponseBody is asked once the status is written, so it can look at it. Bodies
	// are only buffered when it returns true.
	ResponseBody func(c echo.Context) bool
	// Fields appends extra key/value pairs after the handler ran.
	Fields func(c echo.Context) []any
}

func never(echo.Context) bool { return false }

// LogRequest writes one entry per request: error level for 5xx, warn for 4xx, info
// otherwise. The message is "<METHOD> <route>" so entries group by route.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		panic("LogRequest: Logger is required")
	}
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.RequestBody == nil {
		config.RequestBody = never
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			start := time.Now()
			req := c.Request()
			res := c.Response()

			var reqBody []byte
			logReqBody := config.RequestBody(c) && isJSON(req.Header.Get(echo.HeaderContentType))
			if logReqBody {
				reqBody, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(reqBody))
			}

			var dump *bodyDumpWriter
			if config.ResponseBody != nil {
				// echo sets Status before WriteHeader reaches the writer, so the
				// predicate sees the final code and bodies not logged are never copied.
				dump = &bodyDumpWriter{
					ResponseWriter: res.Writer,
					capture:        func() bool { return config.ResponseBody(c) },
				}
				res.Writer = dump
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []any{
				"status", res.Status,
				"method", req.Method,
				"uri", req.RequestURI,
				"route", c.Path(),
				"latency_ms", time.Since(start).Milliseconds(),
				"real_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
				"request_id", GetRequestID(c),
			}
			if names := c.ParamNames(); len(names) > 0 {
				params := make(map[string]string, len(names))
				for _, name := range names {
					params[name] = c.Param(name)
				}
				fields = append(fields, "params", params)
			}
			if len(reqBody) > 0 {
				fields = append(fields, "request_body", json.RawMessage(reqBody))
			}
			if dump != nil && dump.buf.Len() > 0 && isJSON(res.Header().Get(echo.HeaderContentType)) {
				fields = append(fields, "response_body", json.RawMessage(dump.buf.Bytes()))
			}
			if config.Fields != nil {
				fields = append(fields, config.Fields(c)...)
			}

			msg := req.Method + " " + c.Path()
			switch {
			case res.Status >= http.StatusInternalServerError:
				if err != nil {
					fields = append(fields, "error", err.Error())
				}
				config.Logger.Errorw(msg, fields...)
			case res.Status >= http.StatusBadRequest:
				config.Logger.Warnw(msg, fields...)
			default:
				config.Logger.Infow(msg, fields...)
			}
			return err
		}
	}
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, echo.MIMEApplicationJSON)
}

// bodyDumpWriter copies the body aside only when capture approves the status.
type bodyDumpWriter struct {
	http.ResponseWriter
	capture   func() bool
	buf       bytes.Buffer
	decided   bool
	capturing bool
}

func (w *bodyDumpWriter) WriteHeader(code int) {
	if !w.decided {
		w.decided = true
		w.capturing = w.capture()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyDumpWriter) Write(b []byte) (int, error) {
	if !w.decided {
		w.WriteHeader(http.StatusOK)
	}
	if w.capturing {
		w.buf.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *bodyDumpWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *bodyDumpWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(w.ResponseWriter).Hijack()
}
