package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/circulateapp/circulate/pkg/auth"
	"github.com/circulateapp/circulate/pkg/authors"
	"github.com/circulateapp/circulate/pkg/binder"
	"github.com/circulateapp/circulate/pkg/books"
	"github.com/circulateapp/circulate/pkg/config"
	"github.com/circulateapp/circulate/pkg/errcodes"
	"github.com/circulateapp/circulate/pkg/genres"
	"github.com/circulateapp/circulate/pkg/instances"
	"github.com/circulateapp/circulate/pkg/languages"
	"github.com/circulateapp/circulate/pkg/loanpolicy"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/circulateapp/circulate/pkg/reports"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authService := auth.NewService(db)
	authMiddleware := auth.NewMiddleware(authService, cfg.AuthUserHeader)

	// One policy engine, one clock, shared by every transition and report.
	policy := loanpolicy.NewEngine(loanpolicy.SystemClock())

	registerProtectedRoutes(e, db, policy, authMiddleware)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// registerProtectedRoutes registers all API routes with authentication and
// read-level authorization per group.
func registerProtectedRoutes(e *echo.Echo, db *bun.DB, policy *loanpolicy.Engine, authMiddleware *auth.Middleware) {
	// Catalog routes
	genresGroup := e.Group("/genres")
	genresGroup.Use(authMiddleware.Authenticate)
	genresGroup.Use(authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationRead))
	genres.RegisterRoutesWithGroup(genresGroup, db, authMiddleware)

	languagesGroup := e.Group("/languages")
	languagesGroup.Use(authMiddleware.Authenticate)
	languagesGroup.Use(authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationRead))
	languages.RegisterRoutesWithGroup(languagesGroup, db, authMiddleware)

	authorsGroup := e.Group("/authors")
	authorsGroup.Use(authMiddleware.Authenticate)
	authorsGroup.Use(authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationRead))
	authors.RegisterRoutesWithGroup(authorsGroup, db, authMiddleware)

	booksGroup := e.Group("/books")
	booksGroup.Use(authMiddleware.Authenticate)
	booksGroup.Use(authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationRead))
	books.RegisterRoutesWithGroup(booksGroup, db, authMiddleware)

	// Inventory routes; transition endpoints defer their permission checks
	// to the loan policy engine.
	instancesGroup := e.Group("/instances")
	instancesGroup.Use(authMiddleware.Authenticate)
	instancesGroup.Use(authMiddleware.RequirePermission(models.ResourceInventory, models.OperationRead))
	instances.RegisterRoutesWithGroup(instancesGroup, db, policy, authMiddleware)

	// Reporting routes; any authenticated actor can see the summary and
	// their own loans.
	reportsGroup := e.Group("/reports")
	reportsGroup.Use(authMiddleware.Authenticate)
	reports.RegisterRoutesWithGroup(reportsGroup, db, policy, authMiddleware)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
