package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/observability"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
)

// ErrComplaintNotFound indicates the complaint does not exist.
var ErrComplaintNotFound = errors.New("complaint not found")

// ComplaintExport is a generated CSV download.
type ComplaintExport struct {
	FileName string
	Content  []byte
	Rows     int
}

// AdminComplaintService serves the administrator dashboard.
type AdminComplaintService interface {
	GetDashboard(ctx context.Context, session Session, filter dto.ComplaintFilter) (dto.AdminDashboardResponse, error)
	Analytics(ctx context.Context) (dto.ComplaintAnalytics, error)
	UpdateComplaint(ctx context.Context, session Session, id uint, req dto.ComplaintUpdateRequest) (dto.ComplaintResponse, error)
	Export(ctx context.Context, filter dto.ComplaintFilter) (ComplaintExport, error)
	History(ctx context.Context, id uint) ([]dto.StatusHistoryResponse, error)
}

type adminComplaintService struct {
	complaints repository.ComplaintRepository
	history    repository.StatusHistoryRepository
	notifier   StatusNotifier
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAdminComplaintService constructs the admin dashboard. notifier may be nil.
func NewAdminComplaintService(complaints repository.ComplaintRepository, history repository.StatusHistoryRepository, notifier StatusNotifier, validate *validator.Validate, logger zerolog.Logger) AdminComplaintService {
	return &adminComplaintService{
		complaints: complaints,
		history:    history,
		notifier:   notifier,
		validator:  validate,
		logger:     logger.With().Str("component", "admin_complaint_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/campus-complaints-api/internal/service/admin_complaint"),
		now:        time.Now,
	}
}

func (s *adminComplaintService) GetDashboard(ctx context.Context, session Session, filter dto.ComplaintFilter) (dto.AdminDashboardResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.AdminDashboardResponse{}, err
	}

	complaints, err := s.fetchAll(ctx)
	if err != nil {
		return dto.AdminDashboardResponse{}, err
	}

	filtered := FilterComplaints(complaints, filter, true)
	s.logger.Debug().
		Uint("admin_id", session.UserID).
		Int("total", len(complaints)).
		Int("filtered", len(filtered)).
		Msg("admin dashboard built")

	return dto.AdminDashboardResponse{
		Summary:       SummarizeComplaints(complaints),
		Analytics:     BuildAnalytics(complaints, s.now()),
		Filter:        filter,
		Complaints:    dto.NewComplaintResponseSlice(filtered),
		TotalFiltered: len(filtered),
	}, nil
}

func (s *adminComplaintService) Analytics(ctx context.Context) (dto.ComplaintAnalytics, error) {
	complaints, err := s.fetchAll(ctx)
	if err != nil {
		return dto.ComplaintAnalytics{}, err
	}
	return BuildAnalytics(complaints, s.now()), nil
}

func (s *adminComplaintService) UpdateComplaint(ctx context.Context, session Session, id uint, req dto.ComplaintUpdateRequest) (dto.ComplaintResponse, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.update")
	defer span.End()
	span.SetAttributes(attribute.Int("complaint.id", int(id)), attribute.String("complaint.status", req.Status))

	req.Status = strings.TrimSpace(req.Status)
	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.ComplaintResponse{}, err
	}

	current, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not found")
			return dto.ComplaintResponse{}, ErrComplaintNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return dto.ComplaintResponse{}, fmt.Errorf("failed to update complaint: %w", err)
	}

	now := s.now().UTC()
	updates := map[string]interface{}{
		"status":     req.Status,
		"updated_at": now,
	}

	var remarks *string
	if req.Remarks != nil {
		if trimmed := strings.TrimSpace(*req.Remarks); trimmed != "" {
			updates["admin_remarks"] = trimmed
			remarks = &trimmed
		}
	}

	if err := s.complaints.Update(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ComplaintResponse{}, ErrComplaintNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return dto.ComplaintResponse{}, fmt.Errorf("failed to update complaint: %w", err)
	}

	updated, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refetch failed")
		return dto.ComplaintResponse{}, fmt.Errorf("failed to reload complaint: %w", err)
	}

	entry := models.ComplaintStatusHistory{
		ComplaintID: id,
		OldStatus:   current.Status,
		NewStatus:   updated.Status,
		Remarks:     remarks,
		ChangedBy:   session.UserID,
		ChangedAt:   now,
	}
	if err := s.history.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Uint("complaint_id", id).Msg("failed to record status history")
	}

	observability.StatusUpdates().WithLabelValues(updated.Status).Inc()

	if s.notifier != nil {
		change := StatusChange{
			Complaint:      updated,
			PreviousStatus: current.Status,
			ChangedBy:      session.UserID,
			ChangedAt:      now,
		}
		if err := s.notifier.NotifyStatusChange(ctx, change); err != nil {
			span.RecordError(err)
			s.logger.Warn().Err(err).Uint("complaint_id", id).Msg("status change notification failed")
		}
	}

	s.logger.Info().
		Uint("complaint_id", id).
		Uint("admin_id", session.UserID).
		Str("old_status", current.Status).
		Str("new_status", updated.Status).
		Msg("complaint updated")
	span.SetStatus(codes.Ok, "updated")

	return dto.NewComplaintResponse(updated), nil
}

func (s *adminComplaintService) Export(ctx context.Context, filter dto.ComplaintFilter) (ComplaintExport, error) {
	if err := s.validator.Struct(filter); err != nil {
		return ComplaintExport{}, err
	}

	complaints, err := s.fetchAll(ctx)
	if err != nil {
		return ComplaintExport{}, err
	}

	filtered := FilterComplaints(complaints, filter, true)
	observability.Exports().Inc()

	return ComplaintExport{
		FileName: ExportFileName(s.now()),
		Content:  ExportComplaintsCSV(filtered),
		Rows:     len(filtered),
	}, nil
}

func (s *adminComplaintService) History(ctx context.Context, id uint) ([]dto.StatusHistoryResponse, error) {
	if _, err := s.complaints.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}

	entries, err := s.history.ListByComplaint(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status history: %w", err)
	}
	return dto.NewStatusHistoryResponseSlice(entries), nil
}

func (s *adminComplaintService) fetchAll(ctx context.Context) ([]models.Complaint, error) {
	complaints, err := s.complaints.ListWithStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch complaints: %w", err)
	}
	return complaints, nil
}
