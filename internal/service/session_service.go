package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
)

// ErrProfileUnavailable indicates the authenticated user's profile could not be loaded.
var ErrProfileUnavailable = errors.New("profile unavailable")

// GateView names the single view the client should render.
type GateView string

// Views selected by the session gate.
const (
	GateViewLoading            GateView = "loading"
	GateViewLogin              GateView = "login"
	GateViewProfileUnavailable GateView = "profile_unavailable"
	GateViewSubmissionForm     GateView = "submission_form"
	GateViewStudentDashboard   GateView = "student_dashboard"
	GateViewAdminDashboard     GateView = "admin_dashboard"
)

// Identity is what the identity provider vouches for in a verified bearer token.
type Identity struct {
	UserID    uint
	TokenID   string
	ExpiresAt time.Time
}

// Session is the explicit per-request context handed to dashboards and the complaint form.
type Session struct {
	UserID    uint
	Role      string
	Profile   models.Profile
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// RoleLabel is the caption shown under the user's name.
func (s Session) RoleLabel() string {
	if s.IsAdmin() {
		return "Administrator"
	}
	return fmt.Sprintf("Student ID: %s", s.Profile.StudentNumber)
}

// GateDecision is the outcome of the session gate.
type GateDecision struct {
	View     GateView
	Redirect string
	Session  *Session
}

// DecideView picks exactly one view from the authentication state.
func DecideView(loading bool, identity *Identity, profile *models.Profile, wantsForm bool, loginPath string) GateDecision {
	if loading {
		return GateDecision{View: GateViewLoading}
	}
	if identity == nil {
		return GateDecision{View: GateViewLogin, Redirect: loginPath}
	}
	if profile == nil {
		return GateDecision{View: GateViewProfileUnavailable}
	}

	session := NewSession(*identity, *profile)
	switch {
	case session.IsAdmin():
		return GateDecision{View: GateViewAdminDashboard, Session: &session}
	case wantsForm:
		return GateDecision{View: GateViewSubmissionForm, Session: &session}
	default:
		return GateDecision{View: GateViewStudentDashboard, Session: &session}
	}
}

// NewSession binds a verified identity to its profile. Any role other than admin is treated as student.
func NewSession(identity Identity, profile models.Profile) Session {
	role := models.RoleStudent
	if profile.IsAdmin() {
		role = models.RoleAdmin
	}
	return Session{
		UserID:    identity.UserID,
		Role:      role,
		Profile:   profile,
		TokenID:   identity.TokenID,
		ExpiresAt: identity.ExpiresAt,
	}
}

// SessionService resolves sessions from verified identities.
type SessionService interface {
	Resolve(ctx context.Context, identity *Identity, wantsForm bool) GateDecision
	Load(ctx context.Context, identity Identity) (Session, error)
	SignOut(ctx context.Context, session Session) error
}

type sessionService struct {
	profiles  repository.ProfileRepository
	tokens    repository.TokenStore
	loginPath string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSessionService constructs the session gate. tokens may be nil when no revocation store is configured.
func NewSessionService(profiles repository.ProfileRepository, tokens repository.TokenStore, loginPath string, logger zerolog.Logger) SessionService {
	if loginPath == "" {
		loginPath = "/auth"
	}
	return &sessionService{
		profiles:  profiles,
		tokens:    tokens,
		loginPath: loginPath,
		logger:    logger.With().Str("component", "session_service").Logger(),
		now:       time.Now,
	}
}

func (s *sessionService) Resolve(ctx context.Context, identity *Identity, wantsForm bool) GateDecision {
	if identity == nil {
		return DecideView(false, nil, nil, wantsForm, s.loginPath)
	}

	profile, err := s.profiles.GetByID(ctx, identity.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", identity.UserID).Msg("failed to load profile")
		return DecideView(false, identity, nil, wantsForm, s.loginPath)
	}

	return DecideView(false, identity, &profile, wantsForm, s.loginPath)
}

func (s *sessionService) Load(ctx context.Context, identity Identity) (Session, error) {
	profile, err := s.profiles.GetByID(ctx, identity.UserID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}
	return NewSession(identity, profile), nil
}

func (s *sessionService) SignOut(ctx context.Context, session Session) error {
	if s.tokens == nil || session.TokenID == "" {
		return nil
	}

	ttl := 24 * time.Hour
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.tokens.Revoke(ctx, session.TokenID, ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.Info().Uint("user_id", session.UserID).Msg("session signed out")
	return nil
}
