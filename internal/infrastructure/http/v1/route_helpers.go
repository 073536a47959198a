package v1

import (
	"github.com/gin-gonic/gin"

	"comercia/internal/core/entity"
	"comercia/internal/infrastructure/http/v1/handlers"
	"comercia/internal/infrastructure/http/v1/middleware"
)

// RegisterCatalogRoutes mounts the standard catalog CRUD surface.
// Deletion is admin-only; everything else is open to any
// authenticated user.
func RegisterCatalogRoutes[T entity.Validatable, C any, U any](
	rg *gin.RouterGroup,
	h *handlers.CatalogHandler[T, C, U],
) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", middleware.RequireRole("admin"), h.Delete)
	rg.POST("/:id/deletion-mark", middleware.RequireRole("admin"), h.SetDeletionMark)
}
