package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-complaints-api/internal/middleware"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/service"
)

type envelope[T any] struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
	Details json.RawMessage `json:"details"`
}

func studentSession() service.Session {
	return service.Session{
		UserID:  7,
		Role:    models.RoleStudent,
		Profile: models.Profile{ID: 7, FullName: "Amina Otieno", Email: "amina@campus.test", Role: models.RoleStudent, StudentNumber: "STU-1001"},
		TokenID: "token-7",
	}
}

func adminSession() service.Session {
	return service.Session{
		UserID:  1,
		Role:    models.RoleAdmin,
		Profile: models.Profile{ID: 1, FullName: "Desk Admin", Email: "admin@campus.test", Role: models.RoleAdmin},
		TokenID: "token-1",
	}
}

// withSession mimics the JWT and session-loading middleware chain.
func withSession(session service.Session) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, session.UserID)
		c.Locals(middleware.LocalUserRole, session.Role)
		c.Locals("session", session)
		return c.Next()
	}
}

func decodeDetails[D any](t *testing.T, raw json.RawMessage) D {
	t.Helper()
	var details D
	require.NoError(t, json.Unmarshal(raw, &details))
	return details
}

func decodeEnvelope[T any](t *testing.T, resp *http.Response) envelope[T] {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload envelope[T]
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}
