package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// Skipper reports whether a middleware should pass the request through untouched.
type Skipper func(c echo.Context) bool

func DefaultSkipper(echo.Context) bool { return false }

// Logger is the structured subset of *zap.SugaredLogger the middlewares log through.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// Response is the envelope of every successful API response. Data is always present so
// an empty list renders as [] rather than disappearing.
type Response struct {
	Status       int    `json:"-"`
	Success      bool   `json:"success"`
	Data         any    `json:"data"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorData    any    `json:"error_data,omitempty"`
}

// ResponseError is the envelope of a failed request. It doubles as an error so handlers
// and mappers can return it directly.
type ResponseError struct {
	Status       int    `json:"-"`
	Err          error  `json:"-"`
	Success      bool   `json:"success"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorData    any    `json:"error_data,omitempty"`
}

func NewResponseError(status int, code string, err error) *ResponseError {
	resp := &ResponseError{
		Status:    status,
		Err:       err,
		ErrorCode: code,
	}
	if err != nil {
		resp.ErrorMessage = err.Error()
	}
	return resp
}

// WithData attaches error_data to the response.
func (e *ResponseError) WithData(data any) *ResponseError {
	e.ErrorData = data
	return e
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("status: %d, code: %s; message: %+v", e.Status, e.ErrorCode, e.Err)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}
