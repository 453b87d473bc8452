package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-farming/internal/farm"
	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/service"
)

// FarmRecordService is implemented by *service.FarmRecordService.
type FarmRecordService interface {
	Create(ctx context.Context, actor service.Actor, in farm.Input) (*model.FarmRecord, error)
	List(ctx context.Context, actor service.Actor) ([]model.FarmRecord, error)
	Get(ctx context.Context, actor service.Actor, id uint64) (*model.FarmRecord, error)
	Update(ctx context.Context, actor service.Actor, id uint64, in farm.Input) (*model.FarmRecord, error)
	Delete(ctx context.Context, actor service.Actor, id uint64) error
	Summary(ctx context.Context, actor service.Actor) (farm.Summary, error)
}

// FarmRecordHandler serves /v1/farm-records.
type FarmRecordHandler struct {
	Records FarmRecordService
}

func NewFarmRecordHandler(svc FarmRecordService) *FarmRecordHandler {
	if svc == nil {
		panic("nil service passed to NewFarmRecordHandler")
	}
	return &FarmRecordHandler{Records: svc}
}

// Create handles POST /v1/farm-records.
func (h *FarmRecordHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	var in farm.Input
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rec, err := h.Records.Create(ctx, actor, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// List handles GET /v1/farm-records.
func (h *FarmRecordHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	recs, err := h.Records.List(ctx, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items(recs))
}

// Get handles GET /v1/farm-records/:id.
func (h *FarmRecordHandler) Get(c echo.Context) error {
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
	rec, err := h.Records.Get(ctx, actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Update handles PUT and PATCH /v1/farm-records/:id.  Both merge the body
// onto the stored record.
func (h *FarmRecordHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in farm.Input
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rec, err := h.Records.Update(ctx, actor, id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /v1/farm-records/:id.
func (h *FarmRecordHandler) Delete(c echo.Context) error {
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
	if err := h.Records.Delete(ctx, actor, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": true, "id": id})
}

// Summary handles GET /v1/farm-records/summary.
func (h *FarmRecordHandler) Summary(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sum, err := h.Records.Summary(ctx, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}
