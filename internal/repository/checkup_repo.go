package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"optipos/internal/model"
)

type CheckupRepository interface {
	Create(ctx context.Context, checkup *model.Checkup) error
	CreateSpectaclePrescription(ctx context.Context, rx *model.SpectaclePrescription) error
	CreateContactLensPrescription(ctx context.Context, rx *model.ContactLensPrescription) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Checkup, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, page, limit int) ([]model.Checkup, int64, error)
}

type checkupRepository struct {
	db *gorm.DB
}

func NewCheckupRepository(db *gorm.DB) CheckupRepository {
	return &checkupRepository{db: db}
}

func (r *checkupRepository) Create(ctx context.Context, checkup *model.Checkup) error {
	return GetDB(ctx, r.db).Create(checkup).Error
}

func (r *checkupRepository) CreateSpectaclePrescription(ctx context.Context, rx *model.SpectaclePrescription) error {
	return GetDB(ctx, r.db).Create(rx).Error
}

func (r *checkupRepository) CreateContactLensPrescription(ctx context.Context, rx *model.ContactLensPrescription) error {
	return GetDB(ctx, r.db).Create(rx).Error
}

func (r *checkupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Checkup{}).Error
}

func (r *checkupRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Checkup, error) {
	var checkup model.Checkup
	if err := GetDB(ctx, r.db).
		Preload("Spectacle").
		Preload("ContactLens").
		First(&checkup, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &checkup, nil
}

func (r *checkupRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, page, limit int) ([]model.Checkup, int64, error) {
	var checkups []model.Checkup
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Checkup{}).Where("patient_id = ?", patientID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Spectacle").
		Preload("ContactLens").
		Order("checkup_date desc").
		Offset(offset).Limit(limit).
		Find(&checkups).Error; err != nil {
		return nil, 0, err
	}

	return checkups, total, nil
}
