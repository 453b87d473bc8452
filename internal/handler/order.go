package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/service"
)

// OrderService is implemented by *service.OrderService.
type OrderService interface {
	Place(ctx context.Context, actor service.Actor, in service.PlaceOrderInput) (*model.Order, error)
	Get(ctx context.Context, actor service.Actor, id uint64) (*model.Order, error)
	ListMine(ctx context.Context, actor service.Actor) ([]model.Order, error)
	ListAll(ctx context.Context, actor service.Actor, status string) ([]model.Order, error)
	Cancel(ctx context.Context, actor service.Actor, id uint64) (*model.Order, error)
	SetStatus(ctx context.Context, actor service.Actor, id uint64, status string) (*model.Order, error)
}

type OrderHandler struct {
	Orders OrderService
	// Cache is invalidated after stock changes so cached listings show
	// current stock.
	Cache CacheInvalidator
}

func NewOrderHandler(svc OrderService, cache CacheInvalidator) *OrderHandler {
	return &OrderHandler{Orders: svc, Cache: cache}
}

type statusReq struct {
	Status string `json:"status"`
}

// Place handles POST /v1/orders.
func (h *OrderHandler) Place(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	var in service.PlaceOrderInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.Place(ctx, actor, in)
	if err != nil {
		return respondError(c, err)
	}
	invalidateCache(c, ctx, h.Cache)
	return c.JSON(http.StatusCreated, o)
}

// ListMine handles GET /v1/orders.
func (h *OrderHandler) ListMine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Orders.ListMine(ctx, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// Get handles GET /v1/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
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
	o, err := h.Orders.Get(ctx, actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Cancel handles POST /v1/orders/:id/cancel.
func (h *OrderHandler) Cancel(c echo.Context) error {
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
	o, err := h.Orders.Cancel(ctx, actor, id)
	if err != nil {
		return respondError(c, err)
	}
	invalidateCache(c, ctx, h.Cache)
	return c.JSON(http.StatusOK, o)
}

// ListAll handles GET /v1/admin/orders?status=.
func (h *OrderHandler) ListAll(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Orders.ListAll(ctx, actor, c.QueryParam("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// SetStatus handles PATCH /v1/admin/orders/:id/status.
func (h *OrderHandler) SetStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req statusReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.SetStatus(ctx, actor, id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	if o.Status == model.OrderCancelled {
		invalidateCache(c, ctx, h.Cache)
	}
	return c.JSON(http.StatusOK, o)
}
