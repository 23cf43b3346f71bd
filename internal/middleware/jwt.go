package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/campus-complaints-api/internal/utils"
)

// Locals keys populated by the JWT middleware.
const (
	LocalUserID      = "user_id"
	LocalUserRole    = "user_role"
	LocalTokenID     = "token_id"
	LocalTokenExpiry = "token_expiry"
)

// RevocationChecker reports whether a token id was signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWTConfig configures bearer token verification.
type JWTConfig struct {
	Secret string
	// Optional lets requests without a usable token through anonymously.
	Optional    bool
	Revocations RevocationChecker
}

// JWTProtected returns a middleware that requires a valid JWT bearer token.
func JWTProtected(secret string) fiber.Handler {
	return JWT(JWTConfig{Secret: secret})
}

// JWT validates bearer tokens issued by the identity provider.
func JWT(cfg JWTConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, status, message := parseBearer(c, cfg.Secret)
		if claims == nil {
			if cfg.Optional {
				return c.Next()
			}
			return utils.SendError(c, status, message)
		}

		userID := extractUserIDFromClaims(claims)
		if userID == nil {
			if cfg.Optional {
				return c.Next()
			}
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}

		tokenID, _ := claims["jti"].(string)
		if tokenID != "" && cfg.Revocations != nil {
			revoked, err := cfg.Revocations.IsRevoked(c.UserContext(), tokenID)
			if err != nil {
				return utils.SendError(c, fiber.StatusServiceUnavailable, "session store unavailable")
			}
			if revoked {
				if cfg.Optional {
					return c.Next()
				}
				return utils.SendError(c, fiber.StatusUnauthorized, "session signed out")
			}
		}

		c.Locals(LocalUserID, *userID)
		if role := extractUserRoleFromClaims(claims); role != "" {
			c.Locals(LocalUserRole, role)
		}
		if tokenID != "" {
			c.Locals(LocalTokenID, tokenID)
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			c.Locals(LocalTokenExpiry, exp.Time)
		}

		return c.Next()
	}
}

// TokenExpiry returns the verified token's expiry, if any.
func TokenExpiry(c *fiber.Ctx) time.Time {
	if value, ok := c.Locals(LocalTokenExpiry).(time.Time); ok {
		return value
	}
	return time.Time{}
}

func parseBearer(c *fiber.Ctx, secret string) (jwt.MapClaims, int, string) {
	authorization := c.Get("Authorization")
	if authorization == "" {
		return nil, fiber.StatusUnauthorized, "authorization header missing"
	}

	const bearer = "Bearer "
	if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
		return nil, fiber.StatusUnauthorized, "invalid authorization header"
	}

	tokenString := strings.TrimSpace(authorization[len(bearer):])
	if tokenString == "" {
		return nil, fiber.StatusUnauthorized, "invalid token"
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fiber.StatusUnauthorized, "invalid token"
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.StatusUnauthorized, "invalid token claims"
	}
	return claims, 0, ""
}

func extractUserIDFromClaims(claims jwt.MapClaims) *uint {
	keys := []string{"sub", "user_id", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized, err := normalizeUserID(value); err == nil && normalized != 0 {
				return &normalized
			}
		}
	}

	return nil
}

func normalizeUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	if value, ok := claims["role"]; ok {
		if role, ok := value.(string); ok {
			return strings.ToLower(strings.TrimSpace(role))
		}
	}
	return ""
}
