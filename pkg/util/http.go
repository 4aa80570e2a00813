package util

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

type RetryOptions struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Backoff is the linear step: the wait before retry n (0 based) is (n+1)*Backoff.
	Backoff time.Duration
	// Timeout bounds each attempt separately.
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// LinearBackoff waits (attempt+1)*step before the next attempt. attemptNum starts at 0
// for the wait following the first failure.
func LinearBackoff(step time.Duration) retryablehttp.Backoff {
	return func(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return time.Duration(attemptNum+1) * step
	}
}

// NewRetryableClient builds the retrying transport. Retries follow the default policy:
// connection errors and 5xx (except 501) are retried, 4xx are not.
func NewRetryableClient(opts RetryOptions) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxRetries
	rc.RetryWaitMin = opts.Backoff
	rc.RetryWaitMax = time.Duration(opts.MaxRetries+1) * opts.Backoff
	rc.Backoff = LinearBackoff(opts.Backoff)
	rc.CheckRetry = retryablehttp.DefaultRetryPolicy
	rc.HTTPClient.Timeout = opts.Timeout
	// keep the last response so callers see the real upstream status
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Logger != nil {
		rc.Logger = leveledLogger{opts.Logger}
	} else {
		rc.Logger = nil
	}
	return rc
}

// NewRestyClient returns a resty client whose transport retries per opts.
func NewRestyClient(opts RetryOptions) *resty.Client {
	c := resty.NewWithClient(NewRetryableClient(opts).StandardClient()).
		SetLogger(nopLogger{})
	c.JSONMarshal = json.Marshal
	c.JSONUnmarshal = json.Unmarshal
	return c
}

// NewProbeClient returns a resty client that fails fast: one attempt bounded by timeout.
func NewProbeClient(timeout time.Duration) *resty.Client {
	c := resty.New().
		SetTimeout(timeout).
		SetLogger(nopLogger{})
	c.JSONMarshal = json.Marshal
	c.JSONUnmarshal = json.Unmarshal
	return c
}

type nopLogger struct{}

func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}

type leveledLogger struct {
	log *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.log.Errorw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.log.Warnw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.log.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.log.Debugw(msg, kv...) }
