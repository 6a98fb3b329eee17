package auth

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/circulateapp/circulate/pkg/errcodes"
	"github.com/circulateapp/circulate/pkg/migrations"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const testUserHeader = "X-Auth-User"

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

func createTestUser(t *testing.T, db *bun.DB, username, roleName string, active bool) *models.User {
	t.Helper()
	ctx := context.Background()

	role := &models.Role{}
	err := db.NewSelect().
		Model(role).
		Where("r.name = ?", roleName).
		Scan(ctx)
	require.NoError(t, err)

	user := &models.User{Username: username, RoleID: role.ID, IsActive: active}
	_, err = db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)
	return user
}

func invoke(t *testing.T, m *Middleware, headerValue string, next echo.HandlerFunc) (echo.Context, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if headerValue != "" {
		req.Header.Set(testUserHeader, headerValue)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := m.Authenticate(next)(c)
	return c, err
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	m := NewMiddleware(NewService(db), testUserHeader)

	user := createTestUser(t, db, "alice", models.RoleLibrarian, true)

	called := false
	c, err := invoke(t, m, strconv.Itoa(user.ID), func(c echo.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	assert.Equal(t, user.ID, c.Get(ContextKeyUserID))
	assert.Equal(t, "alice", c.Get(ContextKeyUsername))

	actor, ok := UserFromContext(c)
	require.True(t, ok)
	assert.True(t, actor.IsLibrarian())
	assert.True(t, actor.HasPermission(models.ResourceInventory, models.OperationWrite))
}

func TestAuthenticateRejections(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	m := NewMiddleware(NewService(db), testUserHeader)

	inactive := createTestUser(t, db, "bob", models.RoleMember, false)

	tests := []struct {
		name        string
		headerValue string
	}{
		{"missing header", ""},
		{"malformed id", "not-a-number"},
		{"unknown user", "9999"},
		{"inactive user", strconv.Itoa(inactive.ID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoke(t, m, tt.headerValue, func(c echo.Context) error {
				t.Fatal("next handler should not be called")
				return nil
			})
			require.Error(t, err)
			apiErr := &errcodes.Error{}
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, 401, apiErr.HTTPCode)
		})
	}
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	m := NewMiddleware(NewService(db), testUserHeader)

	member := createTestUser(t, db, "carol", models.RoleMember, true)

	handler := m.Authenticate(
		m.RequirePermission(models.ResourceCatalog, models.OperationRead)(func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		}),
	)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(testUserHeader, strconv.Itoa(member.ID))
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))

	// Same member lacks inventory:write.
	handler = m.Authenticate(
		m.RequirePermission(models.ResourceInventory, models.OperationWrite)(func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		}),
	)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(testUserHeader, strconv.Itoa(member.ID))
	rec = httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	require.Error(t, err)
	apiErr := &errcodes.Error{}
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.HTTPCode)
}
