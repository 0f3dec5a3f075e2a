package server

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, d Deps) {
	if d.Health != nil {
		d.Health.RegisterRoutes(e)
	}
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")

	d.Wishlist.RegisterRoutes(api)
	if d.Products != nil {
		d.Products.RegisterRoutes(api)
	}
	if d.Users != nil {
		d.Users.RegisterRoutes(api, d.SessionSecret)
	}
}
