package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService provisions profiles in development environments.
type SeedService interface {
	SeedProfiles(ctx context.Context, token string, items []models.Profile) (int64, error)
	SeedDemoProfiles(ctx context.Context) (int64, error)
}

type seedService struct {
	profiles repository.ProfileRepository
	enabled  bool
	token    string
	logger   zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(profiles repository.ProfileRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		profiles: profiles,
		enabled:  enabled,
		token:    token,
		logger:   logger.With().Str("component", "seed_service").Logger(),
	}
}

// DemoProfiles returns one administrator and two students.
func DemoProfiles() []models.Profile {
	return []models.Profile{
		{FullName: "Desk Administrator", Email: "admin@campus.test", Role: models.RoleAdmin},
		{FullName: "Amina Otieno", Email: "amina@campus.test", Role: models.RoleStudent, StudentNumber: "STU-1001"},
		{FullName: "Brian Mwangi", Email: "brian@campus.test", Role: models.RoleStudent, StudentNumber: "STU-1002"},
	}
}

func (s *seedService) SeedProfiles(ctx context.Context, token string, items []models.Profile) (int64, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}
	return s.upsert(ctx, items)
}

func (s *seedService) SeedDemoProfiles(ctx context.Context) (int64, error) {
	return s.upsert(ctx, DemoProfiles())
}

func (s *seedService) upsert(ctx context.Context, items []models.Profile) (int64, error) {
	normalized := normalizeProfiles(items)
	affected, err := s.profiles.UpsertBatch(ctx, normalized)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("affected", affected).Msg("profiles seeded")
	return affected, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func normalizeProfiles(items []models.Profile) []models.Profile {
	normalized := make([]models.Profile, 0, len(items))
	for _, item := range items {
		item.Email = strings.ToLower(strings.TrimSpace(item.Email))
		item.FullName = strings.TrimSpace(item.FullName)
		if item.Email == "" {
			continue
		}
		if item.Role != models.RoleAdmin {
			item.Role = models.RoleStudent
		}
		if item.Role == models.RoleAdmin {
			item.StudentNumber = ""
		}
		normalized = append(normalized, item)
	}
	return normalized
}
