package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/repository"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller for the rest of the request.
type Principal struct {
	User *domain.User
}

// Gate extracts bearer tokens, validates them and resolves the subject to a
// user. It never rejects by itself: requests without a usable identity simply
// continue anonymous, and route guards decide whether that is acceptable.
type Gate struct {
	tokens *TokenManager
	users  repository.UserRepository
	logger *zap.Logger
}

// NewGate constructs the request gate.
func NewGate(tokens *TokenManager, users repository.UserRepository, logger *zap.Logger) *Gate {
	return &Gate{tokens: tokens, users: users, logger: logger}
}

// Handle runs once per request and attaches a Principal when the bearer token
// checks out. Malformed and expired tokens, and tokens whose subject no
// longer resolves to a user, all leave the request anonymous.
func (g *Gate) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		g.logger.Debug("ignoring non-bearer authorization header", zap.String("path", c.Path()))
		return c.Next()
	}

	subject, err := g.tokens.Validate(parts[1])
	if err != nil {
		g.logger.Debug("access token rejected", zap.String("path", c.Path()), zap.Error(err))
		return c.Next()
	}

	user, err := g.users.GetByUsername(c.Context(), subject)
	if err != nil {
		// A deleted user with a still-valid token stays anonymous.
		g.logger.Debug("token subject did not resolve", zap.String("subject", subject), zap.Error(err))
		return c.Next()
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
