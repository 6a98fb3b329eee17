package books

type ListBooksQuery struct {
	Limit    int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset   int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	AuthorID *int    `query:"author_id" json:"author_id,omitempty" validate:"omitempty,min=1"`
	Search   *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

type CreateBookPayload struct {
	Title      string `json:"title" validate:"required,max=200"`
	Summary    string `json:"summary" validate:"max=1000"`
	ISBN       string `json:"isbn" validate:"required,len=13"`
	AuthorID   *int   `json:"author_id,omitempty" validate:"omitempty,min=1"`
	LanguageID *int   `json:"language_id,omitempty" validate:"omitempty,min=1"`
	GenreIDs   []int  `json:"genre_ids,omitempty" validate:"omitempty,dive,min=1"`
}

type UpdateBookPayload struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Summary    *string `json:"summary,omitempty" validate:"omitempty,max=1000"`
	ISBN       *string `json:"isbn,omitempty" validate:"omitempty,len=13"`
	AuthorID   *int    `json:"author_id,omitempty" validate:"omitempty,min=0"`
	LanguageID *int    `json:"language_id,omitempty" validate:"omitempty,min=0"`
	GenreIDs   []int   `json:"genre_ids,omitempty" validate:"omitempty,dive,min=1"`
}
