package instances

import (
	"github.com/circulateapp/circulate/pkg/auth"
	"github.com/circulateapp/circulate/pkg/loanpolicy"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book-instance routes on a pre-configured
// group. Transition endpoints do their own permission checks through the
// policy engine; the route-level guard only covers acquisition.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, policy *loanpolicy.Engine, authMiddleware *auth.Middleware) {
	h := &handler{
		instanceService: NewService(db, policy),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.GET("/:id/renewal-proposal", h.renewalProposal)
	g.POST("", h.create, authMiddleware.RequirePermission(models.ResourceInventory, models.OperationWrite))
	g.POST("/:id/status", h.setStatus)
	g.POST("/:id/renew", h.renew)
}
