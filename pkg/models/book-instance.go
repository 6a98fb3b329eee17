package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Availability states for a physical copy.
const (
	StatusMaintenance = "maintenance"
	StatusOnLoan      = "on_loan"
	StatusAvailable   = "available"
	StatusReserved    = "reserved"
)

// ValidStatus reports whether s is one of the known availability states.
func ValidStatus(s string) bool {
	switch s {
	case StatusMaintenance, StatusOnLoan, StatusAvailable, StatusReserved:
		return true
	}
	return false
}

// BookInstance is a single physical copy. IDs are UUIDs because instance
// identifiers are handed to borrowers and must not be guessable.
type BookInstance struct {
	bun.BaseModel `bun:"table:book_instances,alias:bi"`

	ID         string     `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	BookID     *int       `json:"book_id"`
	Book       *Book      `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	Imprint    string     `json:"imprint"`
	Status     string     `bun:",nullzero" json:"status"`
	DueBack    *time.Time `json:"due_back"`
	BorrowerID *int       `json:"borrower_id"`
	Borrower   *User      `bun:"rel:belongs-to,join:borrower_id=id" json:"borrower,omitempty"`
}
