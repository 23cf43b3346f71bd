package handler

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/service"
	"github.com/noah-isme/campus-complaints-api/internal/utils"
)

// StudentComplaintHandler serves the student dashboard and complaint form.
type StudentComplaintHandler struct {
	dashboard  service.StudentDashboardService
	complaints service.ComplaintService
	submitGate fiber.Handler
	logger     zerolog.Logger
}

// NewStudentComplaintHandler constructs the student handler. submitGate, typically a
// rate limiter, guards the submission route and may be nil.
func NewStudentComplaintHandler(dashboard service.StudentDashboardService, complaints service.ComplaintService, submitGate fiber.Handler, logger zerolog.Logger) *StudentComplaintHandler {
	return &StudentComplaintHandler{
		dashboard:  dashboard,
		complaints: complaints,
		submitGate: submitGate,
		logger:     logger.With().Str("component", "student_complaint_handler").Logger(),
	}
}

// Register wires student complaint routes.
func (h *StudentComplaintHandler) Register(router fiber.Router) {
	router.Get("/complaints", h.list)
	if h.submitGate != nil {
		router.Post("/complaints", h.submitGate, h.submit)
		return
	}
	router.Post("/complaints", h.submit)
}

func (h *StudentComplaintHandler) list(c *fiber.Ctx) error {
	session, ok := sessionFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var filter dto.ComplaintFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.dashboard.GetDashboard(c.UserContext(), session, filter)
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid filter", validationDetails(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", session.UserID).Msg("failed to load complaints")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load complaints: "+causeMessage(err))
	}

	return utils.OK(c, result, "complaints retrieved", fiber.Map{"total": result.Summary.Total, "filtered": result.TotalFiltered})
}

func (h *StudentComplaintHandler) submit(c *fiber.Ctx) error {
	session, ok := sessionFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.ComplaintCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		files = form.File["attachments"]
	}

	result, err := h.complaints.Submit(c.UserContext(), session, req, files)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingInformation):
			return utils.Fail(c, fiber.StatusBadRequest, "Missing information: please fill in all required fields", validationDetails(err))
		case errors.Is(err, service.ErrDuplicateSubmission):
			return utils.SendError(c, fiber.StatusConflict, "this complaint was already submitted")
		case errors.Is(err, service.ErrAttachmentUpload):
			requestLogger(h.logger, c).Error().Err(err).Uint("student_id", session.UserID).Msg("attachment upload failed")
			return utils.SendError(c, fiber.StatusBadGateway, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("student_id", session.UserID).Msg("complaint submission failed")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Complaint submitted successfully", result)
}
