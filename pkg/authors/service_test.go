package authors

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/circulateapp/circulate/pkg/errcodes"
	"github.com/circulateapp/circulate/pkg/migrations"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// Each pooled connection to :memory: would get its own database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestCreateAndRetrieveAuthor(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	born := time.Date(1920, 1, 2, 0, 0, 0, 0, time.UTC)
	died := time.Date(1992, 4, 6, 0, 0, 0, 0, time.UTC)
	author := &models.Author{
		FirstName:   "Isaac",
		LastName:    "Asimov",
		DateOfBirth: &born,
		DateOfDeath: &died,
	}
	require.NoError(t, svc.CreateAuthor(ctx, author))
	require.NotZero(t, author.ID)

	retrieved, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	require.NoError(t, err)
	assert.Equal(t, "Asimov, Isaac", retrieved.DisplayName())
	require.NotNil(t, retrieved.DateOfBirth)
	assert.True(t, retrieved.DateOfBirth.Equal(born))
}

func TestListAuthorsOrdering(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateAuthor(ctx, &models.Author{FirstName: "Terry", LastName: "Pratchett"}))
	require.NoError(t, svc.CreateAuthor(ctx, &models.Author{FirstName: "Douglas", LastName: "Adams"}))
	require.NoError(t, svc.CreateAuthor(ctx, &models.Author{FirstName: "Neil", LastName: "Gaiman"}))

	listed, total, err := svc.ListAuthorsWithTotal(ctx, ListAuthorsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, listed, 3)
	assert.Equal(t, "Adams", listed[0].LastName)
	assert.Equal(t, "Gaiman", listed[1].LastName)
	assert.Equal(t, "Pratchett", listed[2].LastName)
}

func TestUpdateAuthor(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := &models.Author{FirstName: "Robet", LastName: "Jordan"}
	require.NoError(t, svc.CreateAuthor(ctx, author))

	author.FirstName = "Robert"
	require.NoError(t, svc.UpdateAuthor(ctx, author, UpdateAuthorOptions{Columns: []string{"first_name"}}))

	retrieved, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	require.NoError(t, err)
	assert.Equal(t, "Robert", retrieved.FirstName)
}

func TestUpdateAuthorNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)

	author := &models.Author{ID: 9999, FirstName: "Ghost", LastName: "Writer"}
	err := svc.UpdateAuthor(context.Background(), author, UpdateAuthorOptions{Columns: []string{"first_name"}})
	require.Error(t, err)
	apiErr := &errcodes.Error{}
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.HTTPCode)
}

func TestDeleteAuthorDetachesBooks(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := &models.Author{FirstName: "Frank", LastName: "Herbert"}
	require.NoError(t, svc.CreateAuthor(ctx, author))

	book := &models.Book{Title: "Dune", ISBN: "9780441013593", AuthorID: &author.ID}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAuthor(ctx, author.ID))

	_, err = svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	require.Error(t, err)

	// The book stays in the catalog, just uncredited.
	reloaded := &models.Book{}
	err = db.NewSelect().Model(reloaded).Where("b.id = ?", book.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dune", reloaded.Title)
	assert.Nil(t, reloaded.AuthorID)
}

func TestGetBooksOrdering(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := &models.Author{FirstName: "Ursula", LastName: "Le Guin"}
	require.NoError(t, svc.CreateAuthor(ctx, author))

	for _, title := range []string{"The Tombs of Atuan", "A Wizard of Earthsea"} {
		book := &models.Book{Title: title, ISBN: "9780000000000", AuthorID: &author.ID}
		_, err := db.NewInsert().Model(book).Exec(ctx)
		require.NoError(t, err)
	}

	books, err := svc.GetBooks(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "A Wizard of Earthsea", books[0].Title)
	assert.Equal(t, "The Tombs of Atuan", books[1].Title)
}
