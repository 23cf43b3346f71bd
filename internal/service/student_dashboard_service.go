package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
)

// StudentDashboardService serves a student's own complaints.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, session Session, filter dto.ComplaintFilter) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	complaints repository.ComplaintRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewStudentDashboardService builds the student dashboard.
func NewStudentDashboardService(complaints repository.ComplaintRepository, validate *validator.Validate, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		complaints: complaints,
		validator:  validate,
		logger:     logger.With().Str("component", "student_dashboard_service").Logger(),
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, session Session, filter dto.ComplaintFilter) (dto.StudentDashboardResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	complaints, err := s.complaints.ListByStudent(ctx, session.UserID)
	if err != nil {
		return dto.StudentDashboardResponse{}, fmt.Errorf("failed to fetch complaints: %w", err)
	}

	filtered := FilterComplaints(complaints, filter, false)
	s.logger.Debug().
		Uint("student_id", session.UserID).
		Int("total", len(complaints)).
		Int("filtered", len(filtered)).
		Msg("student dashboard built")

	return dto.StudentDashboardResponse{
		Summary:       SummarizeComplaints(complaints),
		Filter:        filter,
		Complaints:    dto.NewComplaintResponseSlice(filtered),
		TotalFiltered: len(filtered),
	}, nil
}
