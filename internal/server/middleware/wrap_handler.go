package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"runtime"

	"github.com/labstack/echo/v4"
)

var (
	echoContextType = reflect.TypeOf((*echo.Context)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
)

// WrapHandler turns a typed handler into an echo.HandlerFunc. Accepted shapes:
//
//	func(echo.Context, Req) (Res, error)  // Res is sent in the Response envelope
//	func(echo.Context, Req) error         // 204 on success
//
// Req must be a struct; it is bound and validated before the call. A handler that
// writes the response itself is left alone. WrapHandler panics on any other shape, so
// bad routes fail at startup.
func WrapHandler(f any) echo.HandlerFunc {
	h, err := wrapHandler(f)
	if err != nil {
		panic(err)
	}
	return h
}

func wrapHandler(f any) (echo.HandlerFunc, error) {
	fn := reflect.ValueOf(f)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("wrap handler: %T is not a function", f)
	}
	if err := checkSignature(fn.Type()); err != nil {
		return nil, fmt.Errorf("wrap handler %s: %w", runtime.FuncForPC(fn.Pointer()).Name(), err)
	}

	reqType := fn.Type().In(1)
	hasResult := fn.Type().NumOut() == 2

	return func(c echo.Context) error {
		req := reflect.New(reqType)
		if err := BindAndValidate(c, req.Interface()); err != nil {
			return err
		}

		out := fn.Call([]reflect.Value{reflect.ValueOf(c), req.Elem()})
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return errVal.Interface().(error)
		}
		if c.Response().Committed {
			return nil
		}
		if !hasResult {
			return c.NoContent(http.StatusNoContent)
		}

		data := out[0].Interface()
		if resp, ok := data.(*Response); ok && resp != nil {
			if resp.Status == 0 {
				resp.Status = http.StatusOK
			}
			return c.JSON(resp.Status, resp)
		}
		return c.JSON(http.StatusOK, &Response{Success: true, Data: data})
	}, nil
}

func checkSignature(t reflect.Type) error {
	if t.NumIn() != 2 {
		return fmt.Errorf("want 2 arguments, got %d", t.NumIn())
	}
	if !t.In(0).Implements(echoContextType) {
		return fmt.Errorf("first argument must be echo.Context, got %s", t.In(0))
	}
	if t.In(1).Kind() != reflect.Struct {
		return fmt.Errorf("second argument must be a struct, got %s", t.In(1))
	}
	if n := t.NumOut(); n < 1 || n > 2 {
		return fmt.Errorf("want 1 or 2 results, got %d", n)
	}
	if last := t.Out(t.NumOut() - 1); last != errorType {
		return fmt.Errorf("last result must be error, got %s", last)
	}
	return nil
}
