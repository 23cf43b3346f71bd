package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/service"
	"github.com/noah-isme/campus-complaints-api/internal/utils"
)

// AdminComplaintHandler serves the administrator dashboard.
type AdminComplaintHandler struct {
	service service.AdminComplaintService
	logger  zerolog.Logger
}

// NewAdminComplaintHandler constructs the admin complaint handler.
func NewAdminComplaintHandler(service service.AdminComplaintService, logger zerolog.Logger) *AdminComplaintHandler {
	return &AdminComplaintHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_complaint_handler").Logger(),
	}
}

// Register wires admin complaint routes.
func (h *AdminComplaintHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/analytics", h.analytics)
	router.Get("/export", h.export)
	router.Patch("/:id", h.update)
	router.Get("/:id/history", h.history)
}

func (h *AdminComplaintHandler) list(c *fiber.Ctx) error {
	session, ok := sessionFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var filter dto.ComplaintFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.GetDashboard(c.UserContext(), session, filter)
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid filter", validationDetails(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load complaints")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load complaints: "+causeMessage(err))
	}

	return utils.OK(c, result, "complaints retrieved", fiber.Map{"total": result.Summary.Total, "filtered": result.TotalFiltered})
}

func (h *AdminComplaintHandler) analytics(c *fiber.Ctx) error {
	result, err := h.service.Analytics(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build analytics")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load complaints: "+causeMessage(err))
	}
	return utils.SendSuccess(c, "analytics retrieved", result)
}

func (h *AdminComplaintHandler) export(c *fiber.Ctx) error {
	var filter dto.ComplaintFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.Export(c.UserContext(), filter)
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid filter", validationDetails(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to export complaints")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to export complaints: "+causeMessage(err))
	}

	requestLogger(h.logger, c).Info().Int("rows", result.Rows).Str("file", result.FileName).Msg("complaints exported")

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", result.FileName))
	return c.Status(fiber.StatusOK).Send(result.Content)
}

func (h *AdminComplaintHandler) update(c *fiber.Ctx) error {
	session, ok := sessionFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.ComplaintUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.UpdateComplaint(c.UserContext(), session, id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrComplaintNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "complaint not found")
		case isValidationError(err):
			return utils.Fail(c, fiber.StatusBadRequest, "invalid status", validationDetails(err))
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("complaint_id", id).Msg("failed to update complaint")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return utils.SendSuccess(c, "Complaint updated successfully", result)
}

func (h *AdminComplaintHandler) history(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.History(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrComplaintNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "complaint not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("complaint_id", id).Msg("failed to load history")
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "history retrieved", result)
}
