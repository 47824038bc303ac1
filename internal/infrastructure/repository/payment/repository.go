// Package payment persists payment records with GORM.
package payment

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "teleclinic/consult-api/internal/domain/payment"
	"teleclinic/consult-api/internal/infrastructure/database/entities"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// Repository handles payment persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *domain.Payment) error {
	entity := entities.Payment{
		ID:             p.ID,
		ConsultationID: p.ConsultationID,
		PatientID:      p.PatientID,
		DoctorID:       p.DoctorID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Status:         string(p.Status),
		GatewayRef:     p.GatewayRef,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create payment",
			err,
			"2b3c4d5e-6f7a-4b8c-8d9e-0f1a2b3c4d5e",
		)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	var entity entities.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get payment by id",
			err,
			"4d5e6f7a-8b9c-4d0e-8f1a-2b3c4d5e6f7a",
		)
	}
	p := mapEntity(entity)
	return &p, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.Status, gatewayRef string) error {
	updates := map[string]any{"status": string(status)}
	if gatewayRef != "" {
		updates["gateway_ref"] = gatewayRef
	}
	result := r.db.WithContext(ctx).
		Model(&entities.Payment{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update payment status",
			result.Error,
			"6f7a8b9c-0d1e-4f2a-8b3c-4d5e6f7a8b9c",
		)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapEntity(entity entities.Payment) domain.Payment {
	return domain.Payment{
		ID:             entity.ID,
		ConsultationID: entity.ConsultationID,
		PatientID:      entity.PatientID,
		DoctorID:       entity.DoctorID,
		Amount:         entity.Amount,
		Currency:       entity.Currency,
		Status:         domain.Status(entity.Status),
		GatewayRef:     entity.GatewayRef,
		CreatedAt:      entity.CreatedAt,
		UpdatedAt:      entity.UpdatedAt,
	}
}
