package loanpolicy

import (
	"time"

	"github.com/circulateapp/circulate/pkg/errcodes"
	"github.com/circulateapp/circulate/pkg/models"
)

const (
	// DefaultRenewalLead is how far out the suggested renewal date is
	// pre-filled before a librarian confirms or edits it.
	DefaultRenewalLead = 21 * 24 * time.Hour

	// MaxRenewalWindow bounds how far ahead a renewal can push the due date.
	// It matches the expected checkout period and catches operator typos.
	MaxRenewalWindow = 28 * 24 * time.Hour
)

// Proposal is a requested status change for a book instance. BorrowerID and
// DueBack are only meaningful for transitions into the on-loan state.
type Proposal struct {
	TargetStatus string
	BorrowerID   *int
	DueBack      *time.Time
}

// Engine holds the pure transition and renewal rules. It never touches
// storage; callers pass in the instance snapshot they read.
type Engine struct {
	clock Clock
}

func NewEngine(clock Clock) *Engine {
	return &Engine{clock: clock}
}

// ValidateTransition checks the actor's permission and the reachability of
// the proposed status, in that order. An unprivileged actor is rejected with
// Forbidden before any date validation happens.
func (e *Engine) ValidateTransition(actor *models.User, instance *models.BookInstance, p Proposal) error {
	if actor == nil || !actor.HasPermission(models.ResourceInventory, models.OperationWrite) {
		return errcodes.Forbidden("Changing the status of a copy")
	}

	if !models.ValidStatus(p.TargetStatus) {
		return errcodes.InvalidTransition(instance.Status, p.TargetStatus)
	}

	switch {
	case instance.Status == models.StatusMaintenance && p.TargetStatus == models.StatusAvailable:
		return nil
	case instance.Status == models.StatusAvailable && p.TargetStatus == models.StatusReserved:
		return nil
	case instance.Status == models.StatusOnLoan && p.TargetStatus == models.StatusAvailable:
		// Return: the ledger clears borrower and due date together with the
		// status write.
		return nil
	case instance.Status == models.StatusAvailable && p.TargetStatus == models.StatusOnLoan,
		instance.Status == models.StatusReserved && p.TargetStatus == models.StatusOnLoan:
		return e.validateCheckout(p)
	}

	return errcodes.InvalidTransition(instance.Status, p.TargetStatus)
}

func (e *Engine) validateCheckout(p Proposal) error {
	if p.BorrowerID == nil {
		return errcodes.ValidationError("A borrower is required to place a copy on loan.")
	}
	if p.DueBack == nil {
		return errcodes.ValidationError("A due date is required to place a copy on loan.")
	}
	today := dateOf(e.clock.Now())
	if !dateOf(*p.DueBack).After(today) {
		return errcodes.InvalidDate("due date must be after today")
	}
	return nil
}

// ValidateRenewal checks a proposed new due date for an on-loan instance.
// Renewal keeps the instance on loan; it is not a status change. The actor
// needs the same permission that gates marking a copy returned.
func (e *Engine) ValidateRenewal(actor *models.User, instance *models.BookInstance, newDueBack time.Time) error {
	if actor == nil || !actor.HasPermission(models.ResourceLoans, models.OperationWrite) {
		return errcodes.Forbidden("Renewing a loan")
	}

	if instance.Status != models.StatusOnLoan {
		return errcodes.InvalidTransition(instance.Status, models.StatusOnLoan)
	}

	today := dateOf(e.clock.Now())
	proposed := dateOf(newDueBack)
	if !proposed.After(today) {
		return errcodes.InvalidDate("renewal date must be after today")
	}
	if proposed.After(today.Add(MaxRenewalWindow)) {
		return errcodes.InvalidDate("renewal date must be at most 4 weeks from today")
	}
	return nil
}

// DefaultRenewalProposal is the suggested renewal date a caller pre-fills
// before a librarian confirms or edits it.
func (e *Engine) DefaultRenewalProposal() time.Time {
	return dateOf(e.clock.Now()).Add(DefaultRenewalLead)
}

// Overdue reports whether the instance is overdue as of the engine's clock.
func (e *Engine) Overdue(instance *models.BookInstance) bool {
	return IsOverdue(instance, e.clock.Now())
}

// IsOverdue reports whether the instance's due date has passed as of the
// given time. Comparison is at date granularity: a copy due today is not
// overdue. A nil due date is never overdue.
func IsOverdue(instance *models.BookInstance, asOf time.Time) bool {
	if instance.DueBack == nil {
		return false
	}
	return dateOf(asOf).After(dateOf(*instance.DueBack))
}

// dateOf truncates a timestamp to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
