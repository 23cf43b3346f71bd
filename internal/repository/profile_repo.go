package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

// ProfileRepository reads identity profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uint) (models.Profile, error)
	UpsertBatch(ctx context.Context, profiles []models.Profile) (int64, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs a profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// UpsertBatch is used by the development seeder only; profiles are otherwise owned by the identity provider.
func (r *profileRepository) UpsertBatch(ctx context.Context, profiles []models.Profile) (int64, error) {
	if len(profiles) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "role", "student_id", "updated_at"}),
	}).Create(&profiles)
	return result.RowsAffected, result.Error
}
