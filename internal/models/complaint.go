package models

import (
	"time"

	"gorm.io/datatypes"
)

// Complaint categories.
const (
	CategoryAcademic   = "academic"
	CategoryHostel     = "hostel"
	CategoryAdmin      = "admin"
	CategoryHarassment = "harassment"
	CategoryFinance    = "finance"
	CategoryOther      = "other"
)

// Complaint statuses. Any status may follow any other.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// Categories lists every complaint category in display order.
var Categories = []string{CategoryAcademic, CategoryHostel, CategoryAdmin, CategoryHarassment, CategoryFinance, CategoryOther}

// Statuses lists every complaint status in lifecycle order.
var Statuses = []string{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

// Complaint is a case filed by a student and triaged by administrators.
type Complaint struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	StudentID      uint                        `gorm:"not null;index" json:"student_id"`
	Title          string                      `gorm:"size:255;not null" json:"title"`
	Description    string                      `gorm:"type:text;not null" json:"description"`
	Category       string                      `gorm:"size:32;not null;index" json:"category"`
	Status         string                      `gorm:"size:32;not null;default:pending;index" json:"status"`
	AdminRemarks   *string                     `gorm:"type:text" json:"admin_remarks"`
	AttachmentURLs datatypes.JSONSlice[string] `json:"attachment_urls"`
	CreatedAt      time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
	Student        Profile                     `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"student"`
}

// ComplaintStatusHistory records every administrator update of a complaint.
type ComplaintStatusHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"not null;index" json:"complaint_id"`
	OldStatus   string    `gorm:"size:32;not null" json:"old_status"`
	NewStatus   string    `gorm:"size:32;not null" json:"new_status"`
	Remarks     *string   `gorm:"type:text" json:"remarks"`
	ChangedBy   uint      `gorm:"not null" json:"changed_by"`
	ChangedAt   time.Time `gorm:"not null" json:"changed_at"`
}

// TableName pins the history table name.
func (ComplaintStatusHistory) TableName() string {
	return "complaint_status_history"
}
