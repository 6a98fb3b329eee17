package authors

import (
	"github.com/circulateapp/circulate/pkg/auth"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers author routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		authorService: NewService(db),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.GET("/:id/books", h.books)
	g.POST("", h.create, authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationWrite))
	g.PATCH("/:id", h.update, authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationWrite))
	g.DELETE("/:id", h.delete, authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationWrite))
}
