package auth

import (
	"strconv"

	"github.com/circulateapp/circulate/pkg/errcodes"
	"github.com/circulateapp/circulate/pkg/models"
	"github.com/labstack/echo/v4"
)

// Context keys for storing user data.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyUser     = "user"
)

// Middleware resolves the authenticated actor. Authentication itself happens
// upstream (a gateway or identity provider); by the time a request reaches
// this service, the verified user id is carried in a trusted header. The
// middleware loads the user's role and permission set so handlers and the
// loan policy engine can check them.
type Middleware struct {
	authService *Service
	userHeader  string
}

// NewMiddleware creates a new auth middleware reading the given header.
func NewMiddleware(authService *Service, userHeader string) *Middleware {
	return &Middleware{
		authService: authService,
		userHeader:  userHeader,
	}
}

// Authenticate resolves the actor from the identity header. Unknown or
// deactivated users are rejected with 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		value := c.Request().Header.Get(m.userHeader)
		if value == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		userID, err := strconv.Atoi(value)
		if err != nil {
			return errcodes.Unauthorized("Authentication required")
		}

		user, err := m.authService.GetUserByID(ctx, userID)
		if err != nil {
			return errcodes.Unauthorized("User not found")
		}
		if !user.IsActive {
			return errcodes.Unauthorized("User is inactive")
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUsername, user.Username)
		c.Set(ContextKeyUser, user)

		return next(c)
	}
}

// RequirePermission returns middleware that checks if the user has the
// required permission. Must be used after Authenticate middleware.
func (m *Middleware) RequirePermission(resource, operation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get(ContextKeyUser).(*models.User)
			if !ok {
				return errcodes.Unauthorized("Authentication required")
			}

			if !user.HasPermission(resource, operation) {
				return errcodes.Forbidden("Performing " + operation + " on " + resource)
			}

			return next(c)
		}
	}
}

// UserFromContext retrieves the actor from the Echo context.
func UserFromContext(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	return user, ok
}
