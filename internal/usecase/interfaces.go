package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
)

// CatalogUsecase serves every storefront page. List operations never fail: upstream
// errors and unknown payload shapes degrade to an empty list.
type CatalogUsecase interface {
	ListProducts(ctx context.Context, categoryID string) []models.Entity
	ListCategories(ctx context.Context) []models.Entity
	ListSubcategories(ctx context.Context, parentID string) []models.Entity
	SearchProducts(ctx context.Context, query string) []models.Entity
	SearchSuggestions(query string) []models.Suggestion

	// GetProductDetail fails with models.ErrProductIDRequired for a blank id and
	// models.ErrProductNotFound when no upstream knows the product.
	GetProductDetail(ctx context.Context, id string) (models.Entity, error)

	ResolveImages(sources []string, fallback string) []models.ResolvedImage
	CheckImage(ctx context.Context, url string) models.ImageCheck
	Availability(ctx context.Context) models.Availability
}
