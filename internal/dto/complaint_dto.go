package dto

import (
	"time"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

// FilterAll disables a status or category constraint.
const FilterAll = "all"

// ComplaintFilter describes the dashboard search controls.
type ComplaintFilter struct {
	Search   string `query:"search" json:"search"`
	Status   string `query:"status" json:"status" validate:"omitempty,oneof=all pending in_progress resolved rejected"`
	Category string `query:"category" json:"category" validate:"omitempty,oneof=all academic hostel admin harassment finance other"`
}

// ComplaintCreateRequest is the multipart form payload for a new complaint.
type ComplaintCreateRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=255"`
	Category    string `form:"category" json:"category" validate:"required,oneof=academic hostel admin harassment finance other"`
	Description string `form:"description" json:"description" validate:"required"`
}

// ComplaintUpdateRequest carries an administrator status change.
type ComplaintUpdateRequest struct {
	Status  string  `json:"status" validate:"required,oneof=pending in_progress resolved rejected"`
	Remarks *string `json:"remarks" validate:"omitempty,max=4000"`
}

// ProfileLite is the submitter data joined onto complaints for administrators.
type ProfileLite struct {
	ID        uint   `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	StudentID string `json:"student_id"`
}

// ComplaintResponse is returned to API clients.
type ComplaintResponse struct {
	ID             uint         `json:"id"`
	StudentID      uint         `json:"student_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Category       string       `json:"category"`
	Status         string       `json:"status"`
	AdminRemarks   *string      `json:"admin_remarks"`
	AttachmentURLs []string     `json:"attachment_urls"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	Edited         bool         `json:"edited"`
	Student        *ProfileLite `json:"student,omitempty"`
}

// NewComplaintResponse converts a Complaint model into a DTO.
func NewComplaintResponse(model models.Complaint) ComplaintResponse {
	urls := make([]string, 0, len(model.AttachmentURLs))
	urls = append(urls, model.AttachmentURLs...)

	response := ComplaintResponse{
		ID:             model.ID,
		StudentID:      model.StudentID,
		Title:          model.Title,
		Description:    model.Description,
		Category:       model.Category,
		Status:         model.Status,
		AdminRemarks:   model.AdminRemarks,
		AttachmentURLs: urls,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
		Edited:         !model.UpdatedAt.Equal(model.CreatedAt),
	}

	if model.Student.ID != 0 {
		response.Student = &ProfileLite{
			ID:        model.Student.ID,
			FullName:  model.Student.FullName,
			Email:     model.Student.Email,
			StudentID: model.Student.StudentNumber,
		}
	}

	return response
}

// NewComplaintResponseSlice converts complaint models into DTOs.
func NewComplaintResponseSlice(items []models.Complaint) []ComplaintResponse {
	responses := make([]ComplaintResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewComplaintResponse(item))
	}
	return responses
}

// ComplaintSummary holds the dashboard counters, computed over the full fetched set.
type ComplaintSummary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Rejected   int `json:"rejected"`
}

// ComplaintAnalytics are the derived admin metrics.
type ComplaintAnalytics struct {
	AverageResolutionDays float64        `json:"average_resolution_days"`
	ResolutionRate        float64        `json:"resolution_rate"`
	ByCategory            map[string]int `json:"by_category"`
	ByStatus              map[string]int `json:"by_status"`
	StalePending          int            `json:"stale_pending"`
	GeneratedAt           time.Time      `json:"generated_at"`
}

// StudentDashboardResponse is the student's view of their complaints.
type StudentDashboardResponse struct {
	Summary       ComplaintSummary    `json:"summary"`
	Filter        ComplaintFilter     `json:"filter"`
	Complaints    []ComplaintResponse `json:"complaints"`
	TotalFiltered int                 `json:"total_filtered"`
}

// AdminDashboardResponse is the administrator's view of every complaint.
type AdminDashboardResponse struct {
	Summary       ComplaintSummary    `json:"summary"`
	Analytics     ComplaintAnalytics  `json:"analytics"`
	Filter        ComplaintFilter     `json:"filter"`
	Complaints    []ComplaintResponse `json:"complaints"`
	TotalFiltered int                 `json:"total_filtered"`
}

// Notice mirrors a user-facing notification raised while processing a request.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

// ComplaintSubmissionResponse is returned after a complaint is filed.
type ComplaintSubmissionResponse struct {
	Complaint ComplaintResponse `json:"complaint"`
	Notices   []Notice          `json:"notices"`
}

// StatusHistoryResponse serializes one audit entry.
type StatusHistoryResponse struct {
	ID        uint      `json:"id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Remarks   *string   `json:"remarks"`
	ChangedBy uint      `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewStatusHistoryResponseSlice converts history models into DTOs.
func NewStatusHistoryResponseSlice(items []models.ComplaintStatusHistory) []StatusHistoryResponse {
	responses := make([]StatusHistoryResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, StatusHistoryResponse{
			ID:        item.ID,
			OldStatus: item.OldStatus,
			NewStatus: item.NewStatus,
			Remarks:   item.Remarks,
			ChangedBy: item.ChangedBy,
			ChangedAt: item.ChangedAt,
		})
	}
	return responses
}
