package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID         int          `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	Title      string       `bun:",nullzero" json:"title"`
	Summary    string       `json:"summary"`
	ISBN       string       `bun:",nullzero" json:"isbn"`
	AuthorID   *int         `json:"author_id"`
	Author     *Author      `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	LanguageID *int         `json:"language_id"`
	Language   *Language    `bun:"rel:belongs-to,join:language_id=id" json:"language,omitempty"`
	Genres     []*BookGenre `bun:"rel:has-many,join:id=book_id" json:"genres,omitempty"`
}

// DisplayGenres joins the first few genre names for list rendering.
func (b *Book) DisplayGenres() string {
	names := make([]string, 0, 3)
	for _, bg := range b.Genres {
		if bg.Genre == nil {
			continue
		}
		names = append(names, bg.Genre.Name)
		if len(names) == 3 {
			break
		}
	}
	return strings.Join(names, ", ")
}
