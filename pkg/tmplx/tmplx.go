// Package tmplx renders upstream endpoint URLs from text/template strings.
package tmplx

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"github.com/spf13/cast"
)

var (
	ErrRenderTemplate = errors.New("tmplx: render error")
	ErrParseTemplate  = errors.New("tmplx: parse error")
	ErrInvalidURL     = errors.New("tmplx: invalid url")
)

type Template struct {
	tmpl *template.Template
}

type Options struct {
	validate ValidateFunc
	testData any
	funcs    template.FuncMap
}

type Option func(*Options) error

type ValidateFunc func(*bytes.Buffer) error

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"path":      pathEscape,
		"query":     encodeURLQuery,
		"default":   defaultFunc,
		"trimSlash": trimSlash,
	}
}

// WithTemplateFunc adds a single custom template function
func WithTemplateFunc(name string, fn any) Option {
	return func(t *Options) error {
		t.funcs[name] = fn
		return nil
	}
}

// WithValidate renders the template once with testData at parse time and runs validateFn
// on the output.
func WithValidate(testData any, validateFn ValidateFunc) Option {
	return func(t *Options) error {
		t.validate = validateFn
		t.testData = testData
		return nil
	}
}

// WithURLValidate checks that the template renders an absolute http(s) URL for testData.
func WithURLValidate(testData any) Option {
	return WithValidate(testData, ValidateURL)
}

func MustParse(name string, text string, opts ...Option) *Template {
	t, err := Parse(name, text, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func Parse(name string, text string, args ...Option) (*Template, error) {
	opts := &Options{
		funcs: defaultFuncs(),
	}
	for _, arg := range args {
		if err := arg(opts); err != nil {
			return nil, err
		}
	}

	tmpl, err := template.New(name).
		Option("missingkey=zero").
		Funcs(opts.funcs).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseTemplate, err)
	}

	t := &Template{
		tmpl: tmpl,
	}
	if opts.validate != nil {
		if err := t.validate(opts.testData, opts.validate); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Template) Name() string {
	return t.tmpl.Name()
}

func (t *Template) validate(data any, validate ValidateFunc) error {
	buf := new(bytes.Buffer)
	if err := t.tmpl.Execute(buf, data); err != nil {
		return fmt.Errorf("execute template %q: %w", t.Name(), err)
	}
	if err := validate(buf); err != nil {
		return fmt.Errorf("validate template %q: %w", t.Name(), err)
	}
	return nil
}

func (t *Template) Render(data any) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := t.tmpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderTemplate, err)
	}
	return buf, nil
}

// RenderURL renders the template and checks that the result is an absolute URL.
func (t *Template) RenderURL(data any) (string, error) {
	buf, err := t.Render(data)
	if err != nil {
		return "", err
	}
	if err := ValidateURL(buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func ValidateURL(buf *bytes.Buffer) error {
	raw := strings.TrimSpace(buf.String())
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}
	return nil
}

func pathEscape(v any) string {
	return url.PathEscape(cast.ToString(v))
}

func trimSlash(v any) string {
	return strings.TrimRight(cast.ToString(v), "/")
}

func defaultFunc(def any, value any) any {
	if value != nil && value != "" {
		return value
	}
	return def
}

// encodeURLQuery takes key/value pairs; a trailing key without value is encoded as empty.
func encodeURLQuery(pairs ...any) string {
	query := url.Values{}
	for i := 0; i < len(pairs); i += 2 {
		value := ""
		if i+1 < len(pairs) {
			value = cast.ToString(pairs[i+1])
		}
		query.Add(cast.ToString(pairs[i]), value)
	}
	return query.Encode()
}
