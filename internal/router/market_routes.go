package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-farming/internal/handler"
	"github.com/iliyamo/smart-farming/internal/model"
)

// RegisterMarketplace registers the product catalogue and orders.  Product
// reads are public and served through the response cache.
func RegisterMarketplace(e *echo.Echo, p *handler.ProductHandler, oh *handler.OrderHandler, o Options) {
	public := e.Group("/v1/products", o.limiter(), o.Cache.Middleware())
	public.GET("", p.List)
	public.GET("/:id", p.Get)

	roles := o.authenticated(model.RoleFarmer, model.RoleAdmin)
	e.POST("/v1/products", p.Create, roles...)
	e.PATCH("/v1/products/:id", p.Update, roles...)
	e.DELETE("/v1/products/:id", p.Delete, roles...)

	orders := e.Group("/v1/orders", roles...)
	orders.POST("", oh.Place)
	orders.GET("", oh.ListMine)
	orders.GET("/:id", oh.Get)
	orders.POST("/:id/cancel", oh.Cancel)

	admin := e.Group("/v1/admin/orders", o.authenticated(model.RoleAdmin)...)
	admin.GET("", oh.ListAll)
	admin.PATCH("/:id/status", oh.SetStatus)
}
