package middleware

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"reviewapi/internal/auth"
	"reviewapi/internal/repository"
)

// PrincipalLocalKey is the key under which Authenticate stores the *auth.Principal.
const PrincipalLocalKey = "principal"

// Authenticate resolves an optional bearer token into a principal.
// Requests without a usable token continue anonymously; handlers and the
// service decide whether that is acceptable.
func Authenticate(authn auth.Authenticator, users repository.UserRepository, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Next()
		}

		userID, err := authn.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Str("request_id", RequestIDFrom(c)).Msg("bearer token rejected")
			return c.Next()
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				log.Warn().Err(err).Str("request_id", RequestIDFrom(c)).Str("user_id", userID).Msg("principal lookup failed")
			}
			return c.Next()
		}

		p := &auth.Principal{ID: user.ID, Name: user.Name}
		c.Locals(PrincipalLocalKey, p)
		c.SetUserContext(auth.WithPrincipal(c.UserContext(), p))
		return c.Next()
	}
}

// PrincipalFrom returns the principal resolved by Authenticate, or nil.
func PrincipalFrom(c *fiber.Ctx) *auth.Principal {
	p, _ := c.Locals(PrincipalLocalKey).(*auth.Principal)
	return p
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
