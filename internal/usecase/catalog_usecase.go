package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nguyentranbao-ct/storefront-gateway/internal/config"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/repo/upstream"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/driveimg"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/normalizer"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

type catalogUsecase struct {
	upstream      upstream.Client
	normalizer    *normalizer.ResponseNormalizer
	images        ImageProcessor
	resolver      *driveimg.Resolver
	thumbnailSize int
	shapes        *prometheus.CounterVec
}

func NewCatalogUsecase(
	client upstream.Client,
	norm *normalizer.ResponseNormalizer,
	images ImageProcessor,
	resolver *driveimg.Resolver,
	conf *config.Config,
) (CatalogUsecase, error) {
	// path label is bounded by the normalizer lookup lists plus the first-array fallback
	shapes, err := util.GetCounterVec("normalizer_matches_total", "kind", "path")
	if err != nil {
		return nil, fmt.Errorf("normalizer metrics: %w", err)
	}
	return &catalogUsecase{
		upstream:      client,
		normalizer:    norm,
		images:        images,
		resolver:      resolver,
		thumbnailSize: conf.Image.ThumbnailSize,
		shapes:        shapes,
	}, nil
}

func (uc *catalogUsecase) count(kind string, match normalizer.Match) []models.Entity {
	path := match.Path
	if path == "" {
		path = "none"
	}
	uc.shapes.WithLabelValues(kind, path).Inc()
	return match.Items
}

func (uc *catalogUsecase) ListProducts(ctx context.Context, categoryID string) []models.Entity {
	categoryID = strings.TrimSpace(categoryID)
	if !models.ValidCategoryID(categoryID) {
		categoryID = ""
	}

	body, err := uc.upstream.GetProducts(ctx, categoryID)
	if err != nil {
		logctx.Errorw(ctx, "failed to fetch products", "category_id", categoryID, "error", err)
		return []models.Entity{}
	}

	match := uc.normalizer.MatchProducts(body)
	logctx.Debugw(ctx, "products normalized", "category_id", categoryID, "path", match.Path, "count", len(match.Items))
	return uc.images.ProcessAll(ctx, uc.count("products", match))
}

func (uc *catalogUsecase) ListCategories(ctx context.Context) []models.Entity {
	body, err := uc.upstream.GetCategoryTree(ctx)
	if err != nil {
		logctx.Errorw(ctx, "failed to fetch categories", "error", err)
		return []models.Entity{}
	}
	return uc.count("categories", uc.normalizer.MatchCategories(body))
}

func (uc *catalogUsecase) ListSubcategories(ctx context.Context, parentID string) []models.Entity {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return []models.Entity{}
	}
	if parent, ok := findCategory(uc.ListCategories(ctx), parentID); ok {
		return normalizer.FromValue(parent[models.FieldChildren])
	}
	logctx.Infow(ctx, "parent category not found", "parent_id", parentID)
	return []models.Entity{}
}

// findCategory walks the tree depth first and compares ids as strings, so a numeric id
// of 7 matches "7".
func findCategory(nodes []models.Entity, id string) (models.Entity, bool) {
	for _, node := range nodes {
		if cast.ToString(node[models.FieldID]) == id {
			return node, true
		}
		if found, ok := findCategory(normalizer.FromValue(node[models.FieldChildren]), id); ok {
			return found, true
		}
	}
	return nil, false
}

func (uc *catalogUsecase) SearchProducts(ctx context.Context, query string) []models.Entity {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Entity{}
	}

	body, err := uc.upstream.Search(ctx, query)
	if err != nil {
		logctx.Errorw(ctx, "search failed", "query", query, "error", err)
		return []models.Entity{}
	}
	if success := gjson.GetBytes(body, "success"); success.Type == gjson.False {
		logctx.Warnw(ctx, "search rejected by upstream", "query", query, "message", gjson.GetBytes(body, "message").String())
		return []models.Entity{}
	}

	return uc.images.ProcessAll(ctx, uc.count("search", uc.normalizer.MatchProducts(body)))
}

func (uc *catalogUsecase) SearchSuggestions(query string) []models.Suggestion {
	return suggest(query)
}

func (uc *catalogUsecase) GetProductDetail(ctx context.Context, id string) (models.Entity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, models.ErrProductIDRequired
	}

	accept := func(body []byte) bool {
		_, ok := uc.normalizer.Product(body)
		return ok
	}
	body, err := uc.upstream.GetProductDetail(ctx, id, accept)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	product, ok := uc.normalizer.Product(body)
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return uc.images.ProcessAll(ctx, []models.Entity{product})[0], nil
}

func (uc *catalogUsecase) ResolveImages(sources []string, fallback string) []models.ResolvedImage {
	withFallback := driveimg.WithFallback(fallback)
	return util.ConvertList(sources, func(source string) models.ResolvedImage {
		img := models.ResolvedImage{Source: source, URL: uc.resolver.Resolve(source, withFallback)}
		if id, ok := driveimg.ExtractID(source); ok {
			img.DriveID = id
			img.ThumbnailURL = uc.resolver.ThumbnailURL(id, uc.thumbnailSize)
		}
		return img
	})
}

func (uc *catalogUsecase) CheckImage(ctx context.Context, url string) models.ImageCheck {
	resolved := uc.resolver.Resolve(url)
	if !strings.HasPrefix(resolved, "http://") && !strings.HasPrefix(resolved, "https://") {
		return models.ImageCheck{URL: resolved, Valid: false}
	}
	ok, err := uc.upstream.CheckImage(ctx, resolved)
	if err != nil {
		logctx.Warnw(ctx, "image check failed", "url", resolved, "error", err)
	}
	return models.ImageCheck{URL: resolved, Valid: ok}
}

func (uc *catalogUsecase) Availability(ctx context.Context) models.Availability {
	return models.Availability{Upstream: uc.upstream.Ping(ctx)}
}
