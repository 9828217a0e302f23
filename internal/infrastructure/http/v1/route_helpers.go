// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// ListRouteHandler is a list screen: a permission-scoped query plus single
// row CRUD.
type ListRouteHandler interface {
	Query(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// ExportHandler is an optional interface for screens that export their rows.
type ExportHandler interface {
	Export(c *gin.Context)
}

// RegisterListRoutes registers the standard routes of a list screen. If the
// handler also implements ExportHandler, the export route is registered too.
//
// Usage:
//
//	handler := handlers.NewUserHandler(base, cfg.Users)
//	RegisterListRoutes(protected.Group("/users"), handler)
func RegisterListRoutes(group *gin.RouterGroup, handler ListRouteHandler, mw ...gin.HandlerFunc) {
	group.Use(mw...)
	group.POST("/query", handler.Query)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)

	if exporter, ok := handler.(ExportHandler); ok {
		group.POST("/export", exporter.Export)
	}
}
