package middleware

import (
	"database/sql"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reviewapi/internal/auth"
	"reviewapi/internal/model"
	repoMocks "reviewapi/internal/repository/mocks"
)

func TestAuthenticate(t *testing.T) {
	authn := auth.NewJWTAuthenticator("secret", "reviewapi", "reviewapi", time.Hour)
	users := new(repoMocks.MockUserRepository)
	users.On("FindByID", mock.Anything, "u-1").Return(&model.User{ID: "u-1", Name: "Alice"}, nil)
	users.On("FindByID", mock.Anything, "u-gone").Return(nil, sql.ErrNoRows)
	users.On("FindByID", mock.Anything, "u-err").Return(nil, errors.New("db down"))

	app := fiber.New()
	app.Use(Authenticate(authn, users, zerolog.Nop()))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		p := PrincipalFrom(c)
		fromCtx := auth.FromContext(c.UserContext())
		if p == nil {
			if fromCtx != nil {
				return c.SendString("mismatch")
			}
			return c.SendString("anonymous")
		}
		if fromCtx == nil || fromCtx.ID != p.ID {
			return c.SendString("mismatch")
		}
		return c.SendString(p.ID + ":" + p.Name)
	})

	token := func(userID string) string {
		tok, err := authn.GenerateToken(userID)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", "anonymous"},
		{"valid token", "Bearer " + token("u-1"), "u-1:Alice"},
		{"lower-case scheme", "bearer " + token("u-1"), "u-1:Alice"},
		{"basic auth", "Basic dXNlcjpwYXNz", "anonymous"},
		{"empty bearer", "Bearer ", "anonymous"},
		{"garbage token", "Bearer not.a.jwt", "anonymous"},
		{"unknown user", "Bearer " + token("u-gone"), "anonymous"},
		{"lookup failure", "Bearer " + token("u-err"), "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}
}
