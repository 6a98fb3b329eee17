package reports

import (
	"github.com/circulateapp/circulate/pkg/auth"
	"github.com/circulateapp/circulate/pkg/loanpolicy"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers reporting routes on a pre-configured
// group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, policy *loanpolicy.Engine, authMiddleware *auth.Middleware) {
	h := &handler{
		reportService: NewService(db),
		policy:        policy,
	}

	g.GET("/summary", h.summary)
	g.GET("/my-loans", h.myLoans)
	g.GET("/borrowed", h.borrowed, authMiddleware.RequirePermission(models.ResourceLoans, models.OperationRead))
}
