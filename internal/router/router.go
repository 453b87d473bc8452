// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-farming/internal/handler"
	"github.com/iliyamo/smart-farming/internal/middleware"
	"github.com/iliyamo/smart-farming/internal/model"
)

// Options carries the cross-cutting pieces every route group needs.
// RateLimit and Cache may be nil.
type Options struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     *middleware.ResponseCache
}

func (o Options) limiter() echo.MiddlewareFunc {
	if o.RateLimit == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return o.RateLimit
}

// authenticated returns the middleware chain of protected groups: token
// check, role check, then the limiter so buckets are keyed per user.
func (o Options) authenticated(roles ...string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(o.JWTSecret),
		middleware.RequireRole(roles...),
		o.limiter(),
	}
}

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers /v1/auth and the protected /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o Options) {
	g := e.Group("/v1/auth", o.limiter())
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1", o.authenticated(model.RoleFarmer, model.RoleAdmin)...)
	me.GET("/me", a.Me)
}
