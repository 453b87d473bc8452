package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-farming/internal/middleware"
	"github.com/iliyamo/smart-farming/internal/repository"
	"github.com/iliyamo/smart-farming/internal/service"
	"github.com/iliyamo/smart-farming/internal/validation"
)

// requestTimeout bounds the store calls made while serving one request.
const requestTimeout = 5 * time.Second

var errUnauthenticated = errors.New("missing authenticated user")

// reqCtx derives the bounded context handlers pass to services.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actorFrom builds the service actor from what JWTAuth stored.
func actorFrom(c echo.Context) (service.Actor, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return service.Actor{}, errUnauthenticated
	}
	return service.Actor{UserID: id, Role: middleware.Role(c)}, nil
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, validation.Single(name, "must be a positive integer")
	}
	return id, nil
}

// bindJSON decodes the request body into dst.  Decoding failures are
// reported as a validation problem on "body".
func bindJSON(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		msg := "malformed JSON"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
		}
		return validation.Single("body", msg)
	}
	return nil
}

func items[T any](list []T) echo.Map {
	if list == nil {
		list = []T{}
	}
	return echo.Map{"items": list}
}

func errorBody(category, msg string) echo.Map {
	return echo.Map{"error": category, "message": msg}
}

// respondError maps service and repository errors onto the JSON error
// body and status code.  Unknown errors are logged and reported as 500
// without detail.
func respondError(c echo.Context, err error) error {
	if ve, ok := validation.As(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "validation_error",
			"message": "one or more fields are invalid",
			"fields":  ve.Fields,
		})
	}
	switch {
	case errors.Is(err, errUnauthenticated):
		return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "authentication required"))
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody("not_found", "resource not found"))
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorBody("forbidden", "not allowed"))
	case errors.Is(err, repository.ErrInsufficientStock):
		return c.JSON(http.StatusConflict, errorBody("conflict", "insufficient stock"))
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, errorBody("conflict", "email already exists"))
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, errorBody("conflict", "the resource is not in a state that allows this change"))
	case errors.Is(err, context.DeadlineExceeded):
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusGatewayTimeout, errorBody("internal_error", "request timed out"))
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
}
