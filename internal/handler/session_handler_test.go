package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/handler"
	"github.com/noah-isme/campus-complaints-api/internal/middleware"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/service"
)

type stubSessionService struct {
	profiles     map[uint]models.Profile
	lastIdentity *service.Identity
	lastForm     bool
	signedOut    []string
	signOutErr   error
}

func (s *stubSessionService) Resolve(_ context.Context, identity *service.Identity, wantsForm bool) service.GateDecision {
	s.lastIdentity = identity
	s.lastForm = wantsForm
	if identity == nil {
		return service.DecideView(false, nil, nil, wantsForm, "/auth")
	}
	profile, ok := s.profiles[identity.UserID]
	if !ok {
		return service.DecideView(false, identity, nil, wantsForm, "/auth")
	}
	return service.DecideView(false, identity, &profile, wantsForm, "/auth")
}

func (s *stubSessionService) Load(_ context.Context, identity service.Identity) (service.Session, error) {
	profile, ok := s.profiles[identity.UserID]
	if !ok {
		return service.Session{}, service.ErrProfileUnavailable
	}
	return service.NewSession(identity, profile), nil
}

func (s *stubSessionService) SignOut(_ context.Context, session service.Session) error {
	if s.signOutErr != nil {
		return s.signOutErr
	}
	s.signedOut = append(s.signedOut, session.TokenID)
	return nil
}

func sessionApp(svc service.SessionService, userID uint) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/session", func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals(middleware.LocalUserID, userID)
			c.Locals(middleware.LocalTokenID, "jti-42")
		}
		return c.Next()
	})
	handler.NewSessionHandler(svc, "/auth", zerolog.Nop()).Register(group)
	return app
}

func TestSessionGateAnonymousRedirectsToLogin(t *testing.T) {
	svc := &stubSessionService{}
	app := sessionApp(svc, 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/session", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope[dto.SessionResponse](t, resp)
	require.Equal(t, string(service.GateViewLogin), payload.Data.View)
	require.Equal(t, "/auth", payload.Data.Redirect)
	require.Nil(t, payload.Data.User)
	require.Nil(t, svc.lastIdentity)
}

func TestSessionGateSelectsViewPerRole(t *testing.T) {
	svc := &stubSessionService{profiles: map[uint]models.Profile{
		1: {ID: 1, FullName: "Desk Admin", Role: models.RoleAdmin},
		7: {ID: 7, FullName: "Amina Otieno", Role: models.RoleStudent, StudentNumber: "STU-1001"},
	}}

	cases := []struct {
		name   string
		userID uint
		query  string
		view   service.GateView
		label  string
	}{
		{name: "admin", userID: 1, view: service.GateViewAdminDashboard, label: "Administrator"},
		{name: "admin ignores form", userID: 1, query: "?form=true", view: service.GateViewAdminDashboard, label: "Administrator"},
		{name: "student", userID: 7, view: service.GateViewStudentDashboard, label: "Student ID: STU-1001"},
		{name: "student form", userID: 7, query: "?form=true", view: service.GateViewSubmissionForm, label: "Student ID: STU-1001"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := sessionApp(svc, tc.userID)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/session"+tc.query, nil), -1)
			require.NoError(t, err)

			payload := decodeEnvelope[dto.SessionResponse](t, resp)
			require.Equal(t, string(tc.view), payload.Data.View)
			require.NotNil(t, payload.Data.User)
			require.Equal(t, tc.label, payload.Data.User.RoleLabel)
		})
	}
}

func TestSessionGateMissingProfile(t *testing.T) {
	svc := &stubSessionService{profiles: map[uint]models.Profile{}}
	app := sessionApp(svc, 99)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/session", nil), -1)
	require.NoError(t, err)

	payload := decodeEnvelope[dto.SessionResponse](t, resp)
	require.Equal(t, string(service.GateViewProfileUnavailable), payload.Data.View)
	require.Nil(t, payload.Data.User)
}

func TestSessionSignOutRevokesToken(t *testing.T) {
	svc := &stubSessionService{profiles: map[uint]models.Profile{
		7: {ID: 7, Role: models.RoleStudent},
	}}
	app := sessionApp(svc, 7)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/session/sign-out", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope[dto.SessionResponse](t, resp)
	require.Equal(t, string(service.GateViewLogin), payload.Data.View)
	require.Equal(t, "/auth", payload.Data.Redirect)
	require.Equal(t, []string{"jti-42"}, svc.signedOut)
}

func TestSessionSignOutRequiresUser(t *testing.T) {
	svc := &stubSessionService{}
	app := sessionApp(svc, 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/session/sign-out", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, svc.signedOut)
}

func TestLoadSessionRejectsUnknownProfile(t *testing.T) {
	svc := &stubSessionService{profiles: map[uint]models.Profile{}}
	h := handler.NewSessionHandler(svc, "/auth", zerolog.Nop())

	app := fiber.New()
	app.Get("/private", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, uint(5))
		return c.Next()
	}, h.LoadSession(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/private", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestLoadSessionUsesProfileRole(t *testing.T) {
	svc := &stubSessionService{profiles: map[uint]models.Profile{
		5: {ID: 5, Role: models.RoleStudent},
	}}
	h := handler.NewSessionHandler(svc, "/auth", zerolog.Nop())

	app := fiber.New()
	app.Get("/admin", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, uint(5))
		c.Locals(middleware.LocalUserRole, models.RoleAdmin)
		return c.Next()
	}, h.LoadSession(), middleware.RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
