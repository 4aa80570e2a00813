// Package normalizer extracts entity lists from upstream JSON envelopes whose wrapper
// key differs per service and version.
package normalizer

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// PathRoot marks a payload that was itself the array.
const PathRoot = "@this"

// productPaths is the fixed lookup order for product lists. PathRoot sits between the
// explicit productList keys and the generic wrappers.
var productPaths = []string{
	"result.productList",
	"productList",
	"productlist",
	PathRoot,
	"data",
	"result",
	"products",
}

var categoryPaths = []string{
	"result",
	"data",
	PathRoot,
}

// Match is the list found in a payload together with the path it came from.
// Path is empty when nothing matched.
type Match struct {
	Path  string
	Items []models.Entity
}

type ResponseNormalizer struct {
	log *zap.SugaredLogger
}

func NewResponseNormalizer(log *zap.SugaredLogger) *ResponseNormalizer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ResponseNormalizer{log: log}
}

// Products returns the product list of raw, or an empty list.
func (n *ResponseNormalizer) Products(raw []byte) []models.Entity {
	return n.MatchProducts(raw).Items
}

// Categories returns the category list of raw, or an empty list.
func (n *ResponseNormalizer) Categories(raw []byte) []models.Entity {
	return n.MatchCategories(raw).Items
}

func (n *ResponseNormalizer) MatchProducts(raw []byte) Match {
	return n.match(raw, productPaths, true)
}

func (n *ResponseNormalizer) MatchCategories(raw []byte) Match {
	return n.match(raw, categoryPaths, false)
}

// Product picks a single product out of a detail response: the data object, then the
// result object, then the payload itself when it carries an id. It reports false when
// the chosen object has no id.
func (n *ResponseNormalizer) Product(raw []byte) (models.Entity, bool) {
	if !gjson.ValidBytes(raw) {
		n.log.Warnw("product payload is not valid json", "size", len(raw))
		return nil, false
	}
	root := gjson.ParseBytes(raw)

	var picked gjson.Result
	switch {
	case truthy(root.Get("data")):
		picked = root.Get("data")
	case truthy(root.Get("result")):
		picked = root.Get("result")
	case truthy(root.Get(models.FieldID)):
		picked = root
	default:
		return nil, false
	}

	if !picked.IsObject() || !truthy(picked.Get(models.FieldID)) {
		return nil, false
	}
	return toEntity(picked), true
}

func (n *ResponseNormalizer) match(raw []byte, paths []string, anyArrayKey bool) Match {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		n.log.Warnw("payload is not valid json", "size", len(raw))
		return Match{Items: []models.Entity{}}
	}

	root := gjson.ParseBytes(raw)
	for _, path := range paths {
		value := root
		if path != PathRoot {
			if !root.IsObject() {
				continue
			}
			value = root.Get(path)
		}
		if value.IsArray() {
			return Match{Path: path, Items: toEntities(value)}
		}
	}

	if anyArrayKey && root.IsObject() {
		if key, value, ok := firstArrayField(root); ok {
			found := Match{Path: key, Items: toEntities(value)}
			n.log.Infow("using first array field of payload", "path", found.Path, "count", len(found.Items))
			return found
		}
	}

	n.log.Warnw("no array found in payload", "type", root.Type.String())
	return Match{Items: []models.Entity{}}
}

// FromValue converts an already decoded JSON array (e.g. a category's children) to
// entities. Anything that is not a slice yields an empty list.
func FromValue(v any) []models.Entity {
	list, ok := v.([]any)
	if !ok {
		return []models.Entity{}
	}
	out := make([]models.Entity, len(list))
	for i, item := range list {
		out[i] = wrap(item)
	}
	return out
}

func toEntities(arr gjson.Result) []models.Entity {
	elems := arr.Array()
	out := make([]models.Entity, len(elems))
	for i, elem := range elems {
		out[i] = toEntity(elem)
	}
	return out
}

func toEntity(elem gjson.Result) models.Entity {
	if elem.IsObject() {
		var m map[string]any
		if err := json.Unmarshal([]byte(elem.Raw), &m); err == nil {
			return m
		}
	}
	return wrap(elem.Value())
}

func wrap(v any) models.Entity {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	if e, ok := v.(models.Entity); ok {
		return e
	}
	return models.Entity{"value": v}
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.JSON:
		return true
	case gjson.True:
		return true
	default:
		return false
	}
}

// firstArrayField picks the first array-valued key in browser enumeration order:
// array-index keys ascending, then every other key in document order.
func firstArrayField(obj gjson.Result) (string, gjson.Result, bool) {
	var (
		indexKey, namedKey   string
		indexVal, namedVal   gjson.Result
		lowest               uint64
		haveIndex, haveNamed bool
	)
	obj.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			return true
		}
		k := key.String()
		if idx, ok := arrayIndex(k); ok {
			if !haveIndex || idx < lowest {
				indexKey, indexVal, lowest, haveIndex = k, value, idx, true
			}
			return true
		}
		if !haveNamed {
			namedKey, namedVal, haveNamed = k, value, true
		}
		return true
	})
	switch {
	case haveIndex:
		return indexKey, indexVal, true
	case haveNamed:
		return namedKey, namedVal, true
	}
	return "", gjson.Result{}, false
}

// arrayIndex reports whether key is a canonical array index ("0", "17", not "01" or
// "4294967295").
func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	idx, err := strconv.ParseUint(key, 10, 32)
	if err != nil || idx == 1<<32-1 {
		return 0, false
	}
	return idx, true
}
