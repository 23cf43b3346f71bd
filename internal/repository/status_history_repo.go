package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

// StatusHistoryRepository stores the audit trail of complaint updates.
type StatusHistoryRepository interface {
	Create(ctx context.Context, entry *models.ComplaintStatusHistory) error
	ListByComplaint(ctx context.Context, complaintID uint) ([]models.ComplaintStatusHistory, error)
}

type statusHistoryRepository struct {
	db *gorm.DB
}

// NewStatusHistoryRepository constructs the history repository.
func NewStatusHistoryRepository(db *gorm.DB) StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

func (r *statusHistoryRepository) Create(ctx context.Context, entry *models.ComplaintStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *statusHistoryRepository) ListByComplaint(ctx context.Context, complaintID uint) ([]models.ComplaintStatusHistory, error) {
	var entries []models.ComplaintStatusHistory
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("changed_at DESC").
		Order("id DESC").
		Find(&entries).Error
	return entries, err
}
