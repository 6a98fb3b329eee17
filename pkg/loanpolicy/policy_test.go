package loanpolicy

import (
	"testing"
	"time"

	"github.com/circulateapp/circulate/pkg/errcodes"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func librarianActor() *models.User {
	return &models.User{
		ID:       1,
		Username: "librarian",
		IsActive: true,
		Role: &models.Role{
			Name: models.RoleLibrarian,
			Permissions: []*models.Permission{
				{Resource: models.ResourceCatalog, Operation: models.OperationRead},
				{Resource: models.ResourceCatalog, Operation: models.OperationWrite},
				{Resource: models.ResourceInventory, Operation: models.OperationRead},
				{Resource: models.ResourceInventory, Operation: models.OperationWrite},
				{Resource: models.ResourceLoans, Operation: models.OperationRead},
				{Resource: models.ResourceLoans, Operation: models.OperationWrite},
			},
		},
	}
}

func memberActor() *models.User {
	return &models.User{
		ID:       2,
		Username: "member",
		IsActive: true,
		Role: &models.Role{
			Name: models.RoleMember,
			Permissions: []*models.Permission{
				{Resource: models.ResourceCatalog, Operation: models.OperationRead},
			},
		},
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func intPtr(i int) *int {
	return &i
}

func TestValidateTransitionAllowed(t *testing.T) {
	t.Parallel()

	today := date(2024, time.January, 1)
	engine := NewEngine(FixedClock(today))
	actor := librarianActor()

	tests := []struct {
		name     string
		from     string
		proposal Proposal
	}{
		{
			name:     "maintenance to available",
			from:     models.StatusMaintenance,
			proposal: Proposal{TargetStatus: models.StatusAvailable},
		},
		{
			name:     "available to reserved",
			from:     models.StatusAvailable,
			proposal: Proposal{TargetStatus: models.StatusReserved},
		},
		{
			name: "available to on loan",
			from: models.StatusAvailable,
			proposal: Proposal{
				TargetStatus: models.StatusOnLoan,
				BorrowerID:   intPtr(2),
				DueBack:      datePtr(date(2024, time.January, 15)),
			},
		},
		{
			name: "reserved to on loan",
			from: models.StatusReserved,
			proposal: Proposal{
				TargetStatus: models.StatusOnLoan,
				BorrowerID:   intPtr(2),
				DueBack:      datePtr(date(2024, time.January, 15)),
			},
		},
		{
			name:     "on loan to available",
			from:     models.StatusOnLoan,
			proposal: Proposal{TargetStatus: models.StatusAvailable},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			instance := &models.BookInstance{ID: "id", Status: tt.from}
			err := engine.ValidateTransition(actor, instance, tt.proposal)
			assert.NoError(t, err)
		})
	}
}

func TestValidateTransitionUnreachable(t *testing.T) {
	t.Parallel()

	engine := NewEngine(FixedClock(date(2024, time.January, 1)))
	actor := librarianActor()

	tests := []struct {
		from string
		to   string
	}{
		{models.StatusMaintenance, models.StatusOnLoan},
		{models.StatusMaintenance, models.StatusReserved},
		{models.StatusReserved, models.StatusAvailable},
		{models.StatusReserved, models.StatusMaintenance},
		{models.StatusOnLoan, models.StatusMaintenance},
		{models.StatusOnLoan, models.StatusReserved},
		{models.StatusAvailable, models.StatusMaintenance},
		{models.StatusAvailable, "shelved"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.from+" to "+tt.to, func(t *testing.T) {
			t.Parallel()

			instance := &models.BookInstance{ID: "id", Status: tt.from}
			err := engine.ValidateTransition(actor, instance, Proposal{TargetStatus: tt.to})
			require.Error(t, err)

			var e *errcodes.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, "invalid_transition", e.Code)
		})
	}
}

func TestValidateTransitionForbiddenBeforeDateValidation(t *testing.T) {
	t.Parallel()

	engine := NewEngine(FixedClock(date(2024, time.January, 1)))

	// The due date is in the past, but the permission failure must win.
	instance := &models.BookInstance{ID: "id", Status: models.StatusAvailable}
	err := engine.ValidateTransition(memberActor(), instance, Proposal{
		TargetStatus: models.StatusOnLoan,
		BorrowerID:   intPtr(2),
		DueBack:      datePtr(date(2023, time.December, 1)),
	})
	require.Error(t, err)

	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "forbidden", e.Code)
}

func TestValidateTransitionCheckoutRequirements(t *testing.T) {
	t.Parallel()

	today := date(2024, time.January, 1)
	engine := NewEngine(FixedClock(today))
	actor := librarianActor()
	instance := &models.BookInstance{ID: "id", Status: models.StatusAvailable}

	err := engine.ValidateTransition(actor, instance, Proposal{
		TargetStatus: models.StatusOnLoan,
		DueBack:      datePtr(date(2024, time.January, 15)),
	})
	require.Error(t, err)
	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "validation_error", e.Code)

	err = engine.ValidateTransition(actor, instance, Proposal{
		TargetStatus: models.StatusOnLoan,
		BorrowerID:   intPtr(2),
	})
	require.Error(t, err)
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "validation_error", e.Code)

	// A due date of today is not strictly in the future.
	err = engine.ValidateTransition(actor, instance, Proposal{
		TargetStatus: models.StatusOnLoan,
		BorrowerID:   intPtr(2),
		DueBack:      datePtr(today),
	})
	require.Error(t, err)
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "invalid_date", e.Code)
}

func TestValidateRenewalWindow(t *testing.T) {
	t.Parallel()

	today := date(2024, time.January, 1)
	engine := NewEngine(FixedClock(today))
	actor := librarianActor()
	instance := &models.BookInstance{
		ID:      "id",
		Status:  models.StatusOnLoan,
		DueBack: datePtr(date(2024, time.January, 8)),
	}

	// 21 days out is within the window.
	err := engine.ValidateRenewal(actor, instance, date(2024, time.January, 22))
	assert.NoError(t, err)

	// Exactly 4 weeks out is still allowed.
	err = engine.ValidateRenewal(actor, instance, date(2024, time.January, 29))
	assert.NoError(t, err)

	// 29 days out is past the window.
	err = engine.ValidateRenewal(actor, instance, date(2024, time.January, 30))
	require.Error(t, err)
	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "invalid_date", e.Code)
	assert.Contains(t, e.Message, "4 weeks")

	// A date in the past.
	err = engine.ValidateRenewal(actor, instance, date(2023, time.December, 31))
	require.Error(t, err)
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "invalid_date", e.Code)

	// Today is not strictly after today.
	err = engine.ValidateRenewal(actor, instance, today)
	require.Error(t, err)
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "invalid_date", e.Code)
}

func TestValidateRenewalPermissionAndStatus(t *testing.T) {
	t.Parallel()

	today := date(2024, time.January, 1)
	engine := NewEngine(FixedClock(today))

	instance := &models.BookInstance{ID: "id", Status: models.StatusOnLoan}
	err := engine.ValidateRenewal(memberActor(), instance, date(2024, time.January, 22))
	require.Error(t, err)
	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "forbidden", e.Code)

	// Only on-loan copies can be renewed.
	instance = &models.BookInstance{ID: "id", Status: models.StatusAvailable}
	err = engine.ValidateRenewal(librarianActor(), instance, date(2024, time.January, 22))
	require.Error(t, err)
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "invalid_transition", e.Code)
}

func TestDefaultRenewalProposal(t *testing.T) {
	t.Parallel()

	engine := NewEngine(FixedClock(date(2024, time.January, 1)))
	assert.Equal(t, date(2024, time.January, 22), engine.DefaultRenewalProposal())
}

func TestIsOverdue(t *testing.T) {
	t.Parallel()

	due := date(2024, time.January, 10)

	tests := []struct {
		name    string
		dueBack *time.Time
		asOf    time.Time
		want    bool
	}{
		{"nil due date", nil, date(2024, time.February, 1), false},
		{"due in the future", datePtr(due), date(2024, time.January, 5), false},
		{"due today", datePtr(due), due, false},
		{"due today later in the day", datePtr(due), due.Add(23 * time.Hour), false},
		{"one day past due", datePtr(due), date(2024, time.January, 11), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			instance := &models.BookInstance{ID: "id", Status: models.StatusOnLoan, DueBack: tt.dueBack}
			assert.Equal(t, tt.want, IsOverdue(instance, tt.asOf))
		})
	}
}
