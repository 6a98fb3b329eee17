package instances

import (
	"context"
	"database/sql"
	"time"

	"github.com/circulateapp/circulate/pkg/errcodes"
	"github.com/circulateapp/circulate/pkg/loanpolicy"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type CreateInstanceOptions struct {
	BookID  int
	Imprint string
}

type RetrieveInstanceOptions struct {
	ID *string
}

type ListInstancesOptions struct {
	Limit      *int
	Offset     *int
	Status     *string
	BorrowerID *int
	BookID     *int

	includeTotal bool
}

// SetStatusOptions is a requested transition. BorrowerID and DueBack are only
// consulted when the target status is on_loan.
type SetStatusOptions struct {
	TargetStatus string
	BorrowerID   *int
	DueBack      *time.Time
}

type Service struct {
	db     *bun.DB
	policy *loanpolicy.Engine
}

func NewService(db *bun.DB, policy *loanpolicy.Engine) *Service {
	return &Service{db, policy}
}

// Policy exposes the engine so handlers can derive overdue flags and renewal
// proposals with the same clock the service validates against.
func (svc *Service) Policy() *loanpolicy.Engine {
	return svc.policy
}

// CreateInstance registers a newly acquired physical copy. Copies start in
// maintenance until a librarian shelves them.
func (svc *Service) CreateInstance(ctx context.Context, opts CreateInstanceOptions) (*models.BookInstance, error) {
	exists, err := svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Where("id = ?", opts.BookID).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !exists {
		return nil, errcodes.NotFound("Book")
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	now := time.Now()
	instance := &models.BookInstance{
		ID:        id.String(),
		CreatedAt: now,
		UpdatedAt: now,
		BookID:    &opts.BookID,
		Imprint:   opts.Imprint,
		Status:    models.StatusMaintenance,
	}

	_, err = svc.db.
		NewInsert().
		Model(instance).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return instance, nil
}

func (svc *Service) RetrieveInstance(ctx context.Context, opts RetrieveInstanceOptions) (*models.BookInstance, error) {
	instance := &models.BookInstance{}

	q := svc.db.
		NewSelect().
		Model(instance).
		Relation("Book").
		Relation("Borrower")

	if opts.ID != nil {
		q = q.Where("bi.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book instance")
		}
		return nil, errors.WithStack(err)
	}

	return instance, nil
}

func (svc *Service) ListInstances(ctx context.Context, opts ListInstancesOptions) ([]*models.BookInstance, error) {
	i, _, err := svc.listInstancesWithTotal(ctx, opts)
	return i, errors.WithStack(err)
}

func (svc *Service) ListInstancesWithTotal(ctx context.Context, opts ListInstancesOptions) ([]*models.BookInstance, int, error) {
	opts.includeTotal = true
	return svc.listInstancesWithTotal(ctx, opts)
}

func (svc *Service) listInstancesWithTotal(ctx context.Context, opts ListInstancesOptions) ([]*models.BookInstance, int, error) {
	instances := []*models.BookInstance{}
	var total int
	var err error

	// Soonest-due copies surface first; copies without a due date sort last.
	q := svc.db.
		NewSelect().
		Model(&instances).
		Relation("Book").
		Relation("Borrower").
		OrderExpr("bi.due_back IS NULL, bi.due_back ASC")

	if opts.Status != nil {
		q = q.Where("bi.status = ?", *opts.Status)
	}
	if opts.BorrowerID != nil {
		q = q.Where("bi.borrower_id = ?", *opts.BorrowerID)
	}
	if opts.BookID != nil {
		q = q.Where("bi.book_id = ?", *opts.BookID)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return instances, total, nil
}

// SetStatus applies a validated transition. The status, due date, and
// borrower columns change together in a single update guarded by the status
// the caller read, so a concurrent transition on the same copy makes exactly
// one of the two requests lose with InvalidTransition.
func (svc *Service) SetStatus(ctx context.Context, id string, opts SetStatusOptions, actor *models.User) (*models.BookInstance, error) {
	instance, err := svc.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: &id})
	if err != nil {
		return nil, err
	}

	err = svc.policy.ValidateTransition(actor, instance, loanpolicy.Proposal{
		TargetStatus: opts.TargetStatus,
		BorrowerID:   opts.BorrowerID,
		DueBack:      opts.DueBack,
	})
	if err != nil {
		return nil, err
	}

	if opts.TargetStatus == models.StatusOnLoan && opts.BorrowerID != nil {
		exists, err := svc.db.NewSelect().
			Model((*models.User)(nil)).
			Where("id = ?", *opts.BorrowerID).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if !exists {
			return nil, errcodes.NotFound("Borrower")
		}
	}

	// Borrower and due date are only carried while on loan.
	var dueBack *time.Time
	var borrowerID *int
	if opts.TargetStatus == models.StatusOnLoan {
		dueBack = opts.DueBack
		borrowerID = opts.BorrowerID
	}

	res, err := svc.db.
		NewUpdate().
		Model((*models.BookInstance)(nil)).
		Set("status = ?", opts.TargetStatus).
		Set("due_back = ?", dueBack).
		Set("borrower_id = ?", borrowerID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("status = ?", instance.Status).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Someone else transitioned the copy between our read and write.
		return nil, errcodes.InvalidTransition(instance.Status, opts.TargetStatus)
	}

	return svc.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: &id})
}

// Renew moves the due date of an on-loan copy without changing its status.
// The guard includes the due date that was read, so concurrent renewals and
// returns on the same copy serialize to a single winner.
func (svc *Service) Renew(ctx context.Context, id string, newDueBack time.Time, actor *models.User) (*models.BookInstance, error) {
	instance, err := svc.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: &id})
	if err != nil {
		return nil, err
	}

	if err := svc.policy.ValidateRenewal(actor, instance, newDueBack); err != nil {
		return nil, err
	}

	q := svc.db.
		NewUpdate().
		Model((*models.BookInstance)(nil)).
		Set("due_back = ?", newDueBack).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("status = ?", models.StatusOnLoan)
	if instance.DueBack == nil {
		q = q.Where("due_back IS NULL")
	} else {
		q = q.Where("due_back = ?", *instance.DueBack)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errcodes.InvalidTransition(instance.Status, models.StatusOnLoan)
	}

	return svc.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: &id})
}
