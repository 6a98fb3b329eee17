package reports

import (
	"net/http"

	"github.com/circulateapp/circulate/pkg/auth"
	"github.com/circulateapp/circulate/pkg/errcodes"
	"github.com/circulateapp/circulate/pkg/loanpolicy"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	reportService *Service
	policy        *loanpolicy.Engine
}

type loanResponse struct {
	*models.BookInstance
	IsOverdue bool `json:"is_overdue"`
}

func (h *handler) renderLoans(loans []*models.BookInstance) []loanResponse {
	result := make([]loanResponse, len(loans))
	for i, loan := range loans {
		result[i] = loanResponse{loan, h.policy.Overdue(loan)}
	}
	return result
}

func (h *handler) summary(c echo.Context) error {
	ctx := c.Request().Context()

	params := SummaryQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	summary, err := h.reportService.Summary(ctx, params.Search)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, summary))
}

// myLoans lists the actor's own loans. Being the borrower of record is the
// only requirement; no elevated permission is involved.
func (h *handler) myLoans(c echo.Context) error {
	ctx := c.Request().Context()

	actor, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := ListLoansQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	status := models.StatusOnLoan
	if params.Status != nil {
		status = *params.Status
	}

	loans, err := h.reportService.ListLoans(ctx, ListLoansOptions{
		BorrowerID: &actor.ID,
		Status:     &status,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.renderLoans(loans)))
}

// borrowed lists everything on loan across all borrowers. Gated by the
// loans:read permission at the route level.
func (h *handler) borrowed(c echo.Context) error {
	ctx := c.Request().Context()

	status := models.StatusOnLoan
	loans, err := h.reportService.ListLoans(ctx, ListLoansOptions{
		Status: &status,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.renderLoans(loans)))
}
