package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/config"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/usecase"
)

type ListProductsRequest struct {
	CategoryID string `query:"category_id" validate:"omitempty,category_id"`
}

// GetProductRequest leaves ID unvalidated so a blank id reaches the use case and comes
// back as PRODUCT_ID_REQUIRED.
type GetProductRequest struct {
	ID string `param:"id"`
}

type ListCategoriesRequest struct{}

type ListSubcategoriesRequest struct {
	ID string `param:"id" validate:"required,category_id"`
}

type SearchRequest struct {
	Query string `query:"q" validate:"required,notblank,max=200"`
}

type SearchSuggestionsRequest struct {
	Query string `query:"q" validate:"max=200"`
}

type ResolveImagesRequest struct {
	Sources  []string `json:"sources" validate:"required,max=500"`
	Fallback string   `json:"fallback"`
}

type CheckImageRequest struct {
	URL string `query:"url" validate:"required,notblank"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Upstream bool   `json:"upstream"`
}

type Controller interface {
	Health(c echo.Context) error

	ListProducts(c echo.Context, req ListProductsRequest) ([]models.Entity, error)
	GetProduct(c echo.Context, req GetProductRequest) (models.Entity, error)
	ListCategories(c echo.Context, req ListCategoriesRequest) ([]models.Entity, error)
	ListSubcategories(c echo.Context, req ListSubcategoriesRequest) ([]models.Entity, error)
	Search(c echo.Context, req SearchRequest) ([]models.Entity, error)
	SearchSuggestions(c echo.Context, req SearchSuggestionsRequest) ([]models.Suggestion, error)
	ResolveImages(c echo.Context, req ResolveImagesRequest) ([]models.ResolvedImage, error)
	CheckImage(c echo.Context, req CheckImageRequest) (models.ImageCheck, error)
}

type controller struct {
	catalog usecase.CatalogUsecase
	service string
}

func NewHandler(catalog usecase.CatalogUsecase, conf *config.Config) Controller {
	return &controller{
		catalog: catalog,
		service: conf.Metrics.Service,
	}
}

// Health always answers 200; a down upstream shows up as upstream=false.
func (h *controller) Health(c echo.Context) error {
	availability := h.catalog.Availability(c.Request().Context())
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		Service:  h.service,
		Upstream: availability.Upstream,
	})
}

func (h *controller) ListProducts(c echo.Context, req ListProductsRequest) ([]models.Entity, error) {
	return h.catalog.ListProducts(c.Request().Context(), req.CategoryID), nil
}

func (h *controller) GetProduct(c echo.Context, req GetProductRequest) (models.Entity, error) {
	return h.catalog.GetProductDetail(c.Request().Context(), req.ID)
}

func (h *controller) ListCategories(c echo.Context, _ ListCategoriesRequest) ([]models.Entity, error) {
	return h.catalog.ListCategories(c.Request().Context()), nil
}

func (h *controller) ListSubcategories(c echo.Context, req ListSubcategoriesRequest) ([]models.Entity, error) {
	return h.catalog.ListSubcategories(c.Request().Context(), req.ID), nil
}

func (h *controller) Search(c echo.Context, req SearchRequest) ([]models.Entity, error) {
	return h.catalog.SearchProducts(c.Request().Context(), req.Query), nil
}

func (h *controller) SearchSuggestions(_ echo.Context, req SearchSuggestionsRequest) ([]models.Suggestion, error) {
	return h.catalog.SearchSuggestions(req.Query), nil
}

func (h *controller) ResolveImages(_ echo.Context, req ResolveImagesRequest) ([]models.ResolvedImage, error) {
	return h.catalog.ResolveImages(req.Sources, req.Fallback), nil
}

func (h *controller) CheckImage(c echo.Context, req CheckImageRequest) (models.ImageCheck, error) {
	return h.catalog.CheckImage(c.Request().Context(), req.URL), nil
}
