package instances

type ListInstancesQuery struct {
	Limit      int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset     int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status     *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=maintenance on_loan available reserved"`
	BorrowerID *int    `query:"borrower_id" json:"borrower_id,omitempty" validate:"omitempty,min=1"`
	BookID     *int    `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
}

type CreateInstancePayload struct {
	BookID  int    `json:"book_id" validate:"required,min=1"`
	Imprint string `json:"imprint" validate:"required,max=200"`
}

type SetStatusPayload struct {
	Status     string  `json:"status" validate:"required,oneof=maintenance on_loan available reserved"`
	BorrowerID *int    `json:"borrower_id,omitempty" validate:"omitempty,min=1"`
	DueBack    *string `json:"due_back,omitempty" validate:"omitempty,date,ne="`
}

type RenewPayload struct {
	DueBack string `json:"due_back" validate:"required,date,ne="`
}
