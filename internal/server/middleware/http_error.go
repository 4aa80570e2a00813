package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorMapper turns a domain error into a response. It returns nil for errors it does
// not know.
type ErrorMapper func(err error) *ResponseError

// ErrorHandler return custom http error handler.
func ErrorHandler(log Logger, mappers ...ErrorMapper) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		resp := toResponseError(c, err, mappers)
		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.ErrorMessage = "no route matched"
		}
		if resp.Status >= http.StatusInternalServerError {
			log.Errorw("request failed", "status", resp.Status, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(resp.Status)
		} else {
			err = c.JSON(resp.Status, resp)
		}
		if err != nil {
			log.Errorw("could not response", "code", resp.Status, "response_body", resp)
		}
	}
}

func toResponseError(c echo.Context, err error, mappers []ErrorMapper) *ResponseError {
	var (
		respErr  *ResponseError
		httpErr  *echo.HTTPError
		validErr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &respErr):
		return respErr
	case errors.As(err, &httpErr):
		return &ResponseError{
			Status:       httpErr.Code,
			Err:          err,
			ErrorMessage: fmt.Sprint(httpErr.Message),
		}
	case errors.As(err, &validErr):
		return NewResponseError(http.StatusBadRequest, "INVALID_REQUEST", err)
	}

	for _, mapper := range mappers {
		if resp := mapper(err); resp != nil {
			return resp
		}
	}

	// detect canceled request error
	if errors.Is(err, context.Canceled) && c.Request().Context().Err() == context.Canceled {
		return &ResponseError{Status: 499, Err: err}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return &ResponseError{
			Status:       httpStatusFromCode(st.Code()),
			Err:          err,
			ErrorCode:    st.Code().String(),
			ErrorMessage: st.Message(),
		}
	}

	return &ResponseError{
		Status:       http.StatusInternalServerError,
		Err:          err,
		ErrorMessage: http.StatusText(http.StatusInternalServerError),
	}
}

func httpStatusFromCode(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled:
		return 499
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
