package middleware

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
)

// tagSources are the struct tags a field name is reported under, in priority order, so
// errors name "category_id" rather than "CategoryID".
var tagSources = []string{"json", "param", "query", "header"}

var customRules = map[string]validator.Func{
	// category_id rejects blank, "null" and "undefined"; pair with omitempty for optional
	// filters.
	"category_id": func(fl validator.FieldLevel) bool {
		return models.ValidCategoryID(fl.Field().String())
	},
	"notblank": func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	},
}

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	for tag, fn := range customRules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Errorf("register %s rule: %w", tag, err))
		}
	}
	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range tagSources {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return ""
}
