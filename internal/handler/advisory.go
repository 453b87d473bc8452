package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/service"
)

// AdvisoryService is implemented by *service.AdvisoryService.
type AdvisoryService interface {
	Ask(ctx context.Context, actor service.Actor, cropName, question string) (*model.AdvisoryRequest, error)
	ListMine(ctx context.Context, actor service.Actor) ([]model.AdvisoryRequest, error)
	ListAll(ctx context.Context, actor service.Actor, status string) ([]model.AdvisoryRequest, error)
	Resolve(ctx context.Context, actor service.Actor, id uint64, response string) (*model.AdvisoryRequest, error)
}

type AdvisoryHandler struct {
	Advisory AdvisoryService
}

func NewAdvisoryHandler(svc AdvisoryService) *AdvisoryHandler {
	return &AdvisoryHandler{Advisory: svc}
}

type askReq struct {
	CropName string `json:"crop_name"`
	Question string `json:"question"`
}

type resolveReq struct {
	Response string `json:"response"`
}

// Ask handles POST /v1/advisory.
func (h *AdvisoryHandler) Ask(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	var req askReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.Advisory.Ask(ctx, actor, req.CropName, req.Question)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

// ListMine handles GET /v1/advisory.
func (h *AdvisoryHandler) ListMine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Advisory.ListMine(ctx, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// ListAll handles GET /v1/admin/advisory?status=.
func (h *AdvisoryHandler) ListAll(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Advisory.ListAll(ctx, actor, c.QueryParam("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// Resolve handles POST /v1/admin/advisory/:id/resolve.
func (h *AdvisoryHandler) Resolve(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req resolveReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.Advisory.Resolve(ctx, actor, id, req.Response)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}
