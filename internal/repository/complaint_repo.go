package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

// ComplaintRepository persists complaints filed by students.
type ComplaintRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.Complaint, error)
	ListWithStudents(ctx context.Context) ([]models.Complaint, error)
	GetByID(ctx context.Context, id uint) (models.Complaint, error)
	Create(ctx context.Context, complaint *models.Complaint) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) error
}

type complaintRepository struct {
	db *gorm.DB
}

// NewComplaintRepository constructs a complaint repository.
func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

func (r *complaintRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&complaints).Error
	return complaints, err
}

func (r *complaintRepository) ListWithStudents(ctx context.Context) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := r.db.WithContext(ctx).
		Preload("Student").
		Order("created_at DESC").
		Order("id DESC").
		Find(&complaints).Error
	return complaints, err
}

func (r *complaintRepository) GetByID(ctx context.Context, id uint) (models.Complaint, error) {
	var complaint models.Complaint
	if err := r.db.WithContext(ctx).Preload("Student").First(&complaint, id).Error; err != nil {
		return models.Complaint{}, err
	}
	return complaint, nil
}

func (r *complaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(complaint).Error
}

func (r *complaintRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Complaint{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
