package instances

import (
	"net/http"
	"time"

	"github.com/circulateapp/circulate/pkg/auth"
	"github.com/circulateapp/circulate/pkg/errcodes"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	instanceService *Service
}

// instanceResponse carries the derived overdue flag alongside the stored
// record; it is never persisted.
type instanceResponse struct {
	*models.BookInstance
	IsOverdue bool `json:"is_overdue"`
}

func (h *handler) render(instance *models.BookInstance) instanceResponse {
	return instanceResponse{instance, h.instanceService.Policy().Overdue(instance)}
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListInstancesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	instances, total, err := h.instanceService.ListInstancesWithTotal(ctx, ListInstancesOptions{
		Limit:      &params.Limit,
		Offset:     &params.Offset,
		Status:     params.Status,
		BorrowerID: params.BorrowerID,
		BookID:     params.BookID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	result := make([]instanceResponse, len(instances))
	for i, instance := range instances {
		result[i] = h.render(instance)
	}

	response := map[string]any{
		"instances": result,
		"total":     total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	instance, err := h.instanceService.RetrieveInstance(ctx, RetrieveInstanceOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.render(instance)))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateInstancePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	instance, err := h.instanceService.CreateInstance(ctx, CreateInstanceOptions{
		BookID:  params.BookID,
		Imprint: params.Imprint,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, h.render(instance)))
}

func (h *handler) setStatus(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	actor, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := SetStatusPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	dueBack, err := parseDate(params.DueBack)
	if err != nil {
		return errors.WithStack(err)
	}

	instance, err := h.instanceService.SetStatus(ctx, id, SetStatusOptions{
		TargetStatus: params.Status,
		BorrowerID:   params.BorrowerID,
		DueBack:      dueBack,
	}, actor)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.render(instance)))
}

func (h *handler) renew(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	actor, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := RenewPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	dueBack, err := time.Parse("2006-01-02", params.DueBack)
	if err != nil {
		return errcodes.ValidationError("Dates should be in the format of YYYY-MM-DD.")
	}

	instance, err := h.instanceService.Renew(ctx, id, dueBack, actor)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.render(instance)))
}

// renewalProposal returns the date a renewal form should pre-fill.
func (h *handler) renewalProposal(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	instance, err := h.instanceService.RetrieveInstance(ctx, RetrieveInstanceOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if instance.Status != models.StatusOnLoan {
		return errcodes.InvalidTransition(instance.Status, models.StatusOnLoan)
	}

	proposed := h.instanceService.Policy().DefaultRenewalProposal()
	response := map[string]any{
		"due_back": proposed.Format("2006-01-02"),
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, errcodes.ValidationError("Dates should be in the format of YYYY-MM-DD.")
	}
	return &t, nil
}
