package reports

import (
	"context"

	"github.com/circulateapp/circulate/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Summary is the set of headline counts for the landing page.
type Summary struct {
	Books              int     `json:"books"`
	Instances          int     `json:"instances"`
	AvailableInstances int     `json:"available_instances"`
	Authors            int     `json:"authors"`
	Genres             int     `json:"genres"`
	SearchTerm         *string `json:"search_term,omitempty"`
	TitleMatches       *int    `json:"title_matches,omitempty"`
}

type ListLoansOptions struct {
	BorrowerID *int
	Status     *string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Summary computes the aggregate counts in one pass. When a search term is
// supplied, the result includes how many book titles contain it
// (case-insensitive).
func (svc *Service) Summary(ctx context.Context, searchTerm *string) (*Summary, error) {
	summary := &Summary{}
	var err error

	summary.Books, err = svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	summary.Instances, err = svc.db.NewSelect().
		Model((*models.BookInstance)(nil)).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	summary.AvailableInstances, err = svc.db.NewSelect().
		Model((*models.BookInstance)(nil)).
		Where("bi.status = ?", models.StatusAvailable).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	summary.Authors, err = svc.db.NewSelect().
		Model((*models.Author)(nil)).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	summary.Genres, err = svc.db.NewSelect().
		Model((*models.Genre)(nil)).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if searchTerm != nil && *searchTerm != "" {
		matches, err := svc.db.NewSelect().
			Model((*models.Book)(nil)).
			Where("b.title LIKE ? COLLATE NOCASE", "%"+*searchTerm+"%").
			Count(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		summary.SearchTerm = searchTerm
		summary.TitleMatches = &matches
	}

	return summary, nil
}

// ListLoans returns instances ordered by due date ascending with copies that
// have no due date last, so overdue and soonest-due loans surface first.
func (svc *Service) ListLoans(ctx context.Context, opts ListLoansOptions) ([]*models.BookInstance, error) {
	loans := []*models.BookInstance{}

	q := svc.db.
		NewSelect().
		Model(&loans).
		Relation("Book").
		Relation("Borrower").
		OrderExpr("bi.due_back IS NULL, bi.due_back ASC")

	if opts.BorrowerID != nil {
		q = q.Where("bi.borrower_id = ?", *opts.BorrowerID)
	}
	if opts.Status != nil {
		q = q.Where("bi.status = ?", *opts.Status)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return loans, nil
}
