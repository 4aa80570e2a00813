package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindHeader(t *testing.T) {
	type args struct {
		header map[string]string
		out    interface{}
	}

	type normalCase struct {
		App     string `header:"app"`
		Service string `header:"service"`

		Non   string `header:"-"`
		Empty bool
	}

	type complexCase struct {
		Nine              int64   `header:"nine"`
		ThousandAndSeven  uint64  `header:"thousand-and-seven"`
		NegativeThirtyTwo int64   `header:"negative-thirty-two"`
		HundredPointSix   float32 `header:"hundred-point-six"`
		Rose              string  `header:"rose"`
	}

	tests := []struct {
		name    string
		args    args
		want    interface{}
		wantErr error
	}{
		{
			name: "normal bind header",
			args: args{
				header: map[string]string{
					"app":     "storefront",
					"service": "catalog-web",
					"non":     "non",
					"empty":   "empty",
				},
				out: new(normalCase),
			},
			want: &normalCase{
				App:     "storefront",
				Service: "catalog-web",
				Non:     "",
				Empty:   false,
			},
			wantErr: nil,
		},
		{
			name: "complex bind header",
			args: args{
				header: map[string]string{
					"nine":                "9",
					"thousand-and-seven":  "1007",
					"negative-thirty-two": "-32",
					"hundred-point-six":   "100.6",
					"rose":                "rose",
				},
				out: new(complexCase),
			},
			want: &complexCase{
				Nine:              9,
				ThousandAndSeven:  1007,
				NegativeThirtyTwo: -32,
				HundredPointSix:   100.6,
				Rose:              "rose",
			},
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			for k, v := range tt.args.header {
				header.Set(k, v)
			}
			err := bindHeader(header, tt.args.out)
			assert.EqualValues(t, err, tt.wantErr)
			assert.EqualValues(t, tt.want, tt.args.out)
		})
	}
}

func TestBindHeaderInvalid(t *testing.T) {
	type numeric struct {
		Limit int `header:"x-limit"`
	}

	out := new(numeric)
	assert.NoError(t, bindHeader(http.Header{}, out))
	assert.Equal(t, 0, out.Limit)

	header := http.Header{}
	header.Set("x-limit", "many")
	assert.Error(t, bindHeader(header, out))
}

func TestBindAndValidate(t *testing.T) {
	type request struct {
		ID         string `param:"id" validate:"required,notblank"`
		CategoryID string `query:"category_id" validate:"omitempty,category_id"`
		UserID     string `header:"x-user-id"`
	}

	e := echo.New()
	e.Validator = NewValidator()

	newContext := func(target, id string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("X-User-Id", "u1")
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(id)
		return c
	}

	t.Run("valid", func(t *testing.T) {
		var req request
		err := BindAndValidate(newContext("/?category_id=7", "p1"), &req)
		assert.NoError(t, err)
		assert.Equal(t, request{ID: "p1", CategoryID: "7", UserID: "u1"}, req)
	})

	t.Run("invalid category id", func(t *testing.T) {
		var req request
		err := BindAndValidate(newContext("/?category_id=undefined", "p1"), &req)
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "category_id", verrs[0].Field())
		assert.Equal(t, "category_id", verrs[0].Tag())
	})

	t.Run("blank id", func(t *testing.T) {
		var req request
		err := BindAndValidate(newContext("/", "  "), &req)
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "notblank", verrs[0].Tag())
	})

	t.Run("header decode failure stays a 400 HTTPError", func(t *testing.T) {
		type limited struct {
			Limit int `header:"x-limit"`
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("x-limit", "many")
		err := BindAndValidate(e.NewContext(req, httptest.NewRecorder()), new(limited))
		var he *echo.HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}
