package reports

type SummaryQuery struct {
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

type ListLoansQuery struct {
	Status *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=maintenance on_loan available reserved"`
}
