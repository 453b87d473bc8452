package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/service"
)

// ProductService is implemented by *service.ProductService.
type ProductService interface {
	Create(ctx context.Context, actor service.Actor, in service.ProductInput) (*model.Product, error)
	Get(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context, category string) ([]model.Product, error)
	Update(ctx context.Context, actor service.Actor, id uint64, in service.ProductInput) (*model.Product, error)
	Delete(ctx context.Context, actor service.Actor, id uint64) error
}

// CacheInvalidator drops cached public responses; *middleware.ResponseCache
// implements it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ProductHandler serves the marketplace catalogue.  Reads are public and
// cached; writes invalidate the cache.
type ProductHandler struct {
	Products ProductService
	Cache    CacheInvalidator
}

func NewProductHandler(svc ProductService, cache CacheInvalidator) *ProductHandler {
	return &ProductHandler{Products: svc, Cache: cache}
}

// List handles GET /v1/products?category=.
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Products.List(ctx, c.QueryParam("category"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// Get handles GET /v1/products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Products.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Create handles POST /v1/products.
func (h *ProductHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	var in service.ProductInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Products.Create(ctx, actor, in)
	if err != nil {
		return respondError(c, err)
	}
	invalidateCache(c, ctx, h.Cache)
	return c.JSON(http.StatusCreated, p)
}

// Update handles PATCH /v1/products/:id.
func (h *ProductHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in service.ProductInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Products.Update(ctx, actor, id, in)
	if err != nil {
		return respondError(c, err)
	}
	invalidateCache(c, ctx, h.Cache)
	return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /v1/products/:id.
func (h *ProductHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Products.Delete(ctx, actor, id); err != nil {
		return respondError(c, err)
	}
	invalidateCache(c, ctx, h.Cache)
	return c.JSON(http.StatusOK, echo.Map{"deleted": true, "id": id})
}

// invalidateCache drops cached catalogue responses after a write.  A
// failure only leaves stale entries until their TTL runs out.
func invalidateCache(c echo.Context, ctx context.Context, cache CacheInvalidator) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		c.Logger().Warnf("[cache] invalidate after %s %s: %v", c.Request().Method, c.Path(), err)
	}
}
