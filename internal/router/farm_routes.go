package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-farming/internal/handler"
	"github.com/iliyamo/smart-farming/internal/model"
)

// RegisterFarmRecords registers the farm record lifecycle under
// /v1/farm-records.  Any authenticated user may call them; ownership is
// checked by the service.
func RegisterFarmRecords(e *echo.Echo, h *handler.FarmRecordHandler, o Options) {
	g := e.Group("/v1/farm-records", o.authenticated(model.RoleFarmer, model.RoleAdmin)...)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/summary", h.Summary)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterAdvisory registers the farmer side of crop advisory under
// /v1/advisory and the admin side under /v1/admin/advisory.
func RegisterAdvisory(e *echo.Echo, h *handler.AdvisoryHandler, o Options) {
	g := e.Group("/v1/advisory", o.authenticated(model.RoleFarmer, model.RoleAdmin)...)
	g.POST("", h.Ask)
	g.GET("", h.ListMine)

	admin := e.Group("/v1/admin/advisory", o.authenticated(model.RoleAdmin)...)
	admin.GET("", h.ListAll)
	admin.POST("/:id/resolve", h.Resolve)
}
