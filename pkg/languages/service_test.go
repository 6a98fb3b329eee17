package languages

import (
	"context"
	"database/sql"
	"testing"

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

func TestCreateLanguage(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	language := &models.Language{Name: " English "}
	require.NoError(t, svc.CreateLanguage(ctx, language))
	assert.Equal(t, "English", language.Name)
	require.NotZero(t, language.ID)

	name := "english"
	retrieved, err := svc.RetrieveLanguage(ctx, RetrieveLanguageOptions{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, language.ID, retrieved.ID)
}

func TestCreateLanguageEmptyName(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)

	err := svc.CreateLanguage(context.Background(), &models.Language{Name: ""})
	require.Error(t, err)
	apiErr := &errcodes.Error{}
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 422, apiErr.HTTPCode)
}

func TestListLanguagesOrdering(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	for _, name := range []string{"Japanese", "English", "Farsi"} {
		require.NoError(t, svc.CreateLanguage(ctx, &models.Language{Name: name}))
	}

	listed, total, err := svc.ListLanguagesWithTotal(ctx, ListLanguagesOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, listed, 3)
	assert.Equal(t, "English", listed[0].Name)
	assert.Equal(t, "Farsi", listed[1].Name)
	assert.Equal(t, "Japanese", listed[2].Name)
}

func TestDeleteLanguageDetachesBooks(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	language := &models.Language{Name: "English"}
	require.NoError(t, svc.CreateLanguage(ctx, language))

	book := &models.Book{Title: "The Hobbit", ISBN: "9780000000000", LanguageID: &language.ID}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLanguage(ctx, language.ID))

	_, err = svc.RetrieveLanguage(ctx, RetrieveLanguageOptions{ID: &language.ID})
	require.Error(t, err)

	reloaded := &models.Book{}
	err = db.NewSelect().Model(reloaded).Where("b.id = ?", book.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Nil(t, reloaded.LanguageID)
}

func TestDeleteLanguageNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db)

	err := svc.DeleteLanguage(context.Background(), 9999)
	require.Error(t, err)
	apiErr := &errcodes.Error{}
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.HTTPCode)
}
