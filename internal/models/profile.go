package models

import "time"

// Profile roles recognised by the complaint desk.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Profile is the identity record owned by the identity provider. The API only reads it.
type Profile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FullName      string    `gorm:"size:255;not null" json:"full_name"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role          string    `gorm:"size:16;not null;default:student" json:"role"`
	StudentNumber string    `gorm:"column:student_id;size:64" json:"student_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsAdmin reports whether the profile belongs to an administrator.
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
