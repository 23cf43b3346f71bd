package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/middleware"
	"github.com/noah-isme/campus-complaints-api/internal/service"
	"github.com/noah-isme/campus-complaints-api/internal/utils"
)

// SessionHandler exposes the session gate.
type SessionHandler struct {
	service   service.SessionService
	loginPath string
	logger    zerolog.Logger
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(service service.SessionService, loginPath string, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service:   service,
		loginPath: loginPath,
		logger:    logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register wires session routes. The router must run an optional JWT middleware first.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Get("", h.gate)
	router.Post("/sign-out", middleware.WithAuth(h.LoadSession(), middleware.AuthOptions{RequireUser: true}), h.signOut)
}

// LoadSession binds the caller's profile to the request. The profile role replaces
// any role claimed by the token.
func (h *SessionHandler) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := identityFromContext(c)
		if identity == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		session, err := h.service.Load(c.UserContext(), *identity)
		if err != nil {
			if errors.Is(err, service.ErrProfileUnavailable) {
				requestLogger(h.logger, c).Warn().Err(err).Uint("user_id", identity.UserID).Msg("profile unavailable")
				return utils.SendError(c, fiber.StatusForbidden, "profile unavailable")
			}
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}

		c.Locals(localSession, session)
		c.Locals(middleware.LocalUserRole, session.Role)
		return c.Next()
	}
}

func (h *SessionHandler) gate(c *fiber.Ctx) error {
	decision := h.service.Resolve(c.UserContext(), identityFromContext(c), c.QueryBool("form"))

	response := dto.SessionResponse{
		View:     string(decision.View),
		Redirect: decision.Redirect,
	}
	if decision.Session != nil {
		response.User = &dto.SessionUser{
			ID:        decision.Session.UserID,
			FullName:  decision.Session.Profile.FullName,
			Email:     decision.Session.Profile.Email,
			Role:      decision.Session.Role,
			RoleLabel: decision.Session.RoleLabel(),
		}
	}

	return utils.SendSuccess(c, "session resolved", response)
}

func (h *SessionHandler) signOut(c *fiber.Ctx) error {
	session, ok := sessionFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.service.SignOut(c.UserContext(), session); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("user_id", session.UserID).Msg("sign out failed")
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "signed out", dto.SessionResponse{
		View:     string(service.GateViewLogin),
		Redirect: h.loginPath,
	})
}
