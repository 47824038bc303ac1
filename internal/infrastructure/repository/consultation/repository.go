// Package consultation persists consultation records with GORM.
package consultation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "teleclinic/consult-api/internal/domain/consultation"
	"teleclinic/consult-api/internal/infrastructure/database/entities"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// Repository handles consultation persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, cons *domain.Consultation) error {
	entity := entities.Consultation{
		ID:        cons.ID,
		DoctorID:  cons.DoctorID,
		PatientID: cons.PatientID,
		RoomName:  cons.RoomName,
		Status:    cons.Status.String(),
		Notes:     cons.Notes,
		StartedAt: cons.StartedAt,
		EndedAt:   cons.EndedAt,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create consultation",
			err,
			"3f6a1b2c-8d4e-4f0a-9b1c-5d6e7f8a9b0c",
		)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Consultation, error) {
	var entity entities.Consultation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get consultation by id",
			err,
			"7c2d9e0f-1a3b-4c5d-8e6f-0a1b2c3d4e5f",
		)
	}
	cons := mapEntity(entity)
	return &cons, nil
}

func (r *Repository) GetOngoingByPair(ctx context.Context, doctorID, patientID int64) (*domain.Consultation, error) {
	var entity entities.Consultation
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND patient_id = ? AND status = ?", doctorID, patientID, domain.StatusOngoing.String()).
		Order("started_at DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get ongoing consultation",
			err,
			"9a0b1c2d-3e4f-4a5b-8c6d-7e8f9a0b1c2d",
		)
	}
	cons := mapEntity(entity)
	return &cons, nil
}

func (r *Repository) GetLatestByPair(ctx context.Context, doctorID, patientID int64) (*domain.Consultation, error) {
	var entity entities.Consultation
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND patient_id = ?", doctorID, patientID).
		Order("started_at DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get latest consultation",
			err,
			"1b2c3d4e-5f6a-4b7c-8d9e-0f1a2b3c4d5e",
		)
	}
	cons := mapEntity(entity)
	return &cons, nil
}

func (r *Repository) GetByRoom(ctx context.Context, roomName string) (*domain.Consultation, error) {
	var entity entities.Consultation
	err := r.db.WithContext(ctx).
		Where("room_name = ?", roomName).
		Order("started_at DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get consultation by room",
			err,
			"2c3d4e5f-6a7b-4c8d-9e0f-1a2b3c4d5e6f",
		)
	}
	cons := mapEntity(entity)
	return &cons, nil
}

func (r *Repository) ListOngoing(ctx context.Context) ([]*domain.Consultation, error) {
	var rows []entities.Consultation
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusOngoing.String()).
		Order("started_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list ongoing consultations",
			err,
			"4d5e6f7a-8b9c-4d0e-9f1a-2b3c4d5e6f7a",
		)
	}
	out := make([]*domain.Consultation, 0, len(rows))
	for _, row := range rows {
		cons := mapEntity(row)
		out = append(out, &cons)
	}
	return out, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.Status, notes string) error {
	updates := map[string]any{
		"status":   status.String(),
		"ended_at": time.Now(),
	}
	if notes != "" {
		updates["notes"] = notes
	}
	result := r.db.WithContext(ctx).
		Model(&entities.Consultation{}).
		Where("id = ? AND status = ?", id, domain.StatusOngoing.String()).
		Updates(updates)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update consultation status",
			result.Error,
			"5e6f7a8b-9c0d-4e1f-8a2b-3c4d5e6f7a8b",
		)
	}
	if result.RowsAffected == 0 {
		// Either unknown ID or the consultation already reached a terminal
		// state; distinguish so callers can stay idempotent.
		var count int64
		if err := r.db.WithContext(ctx).Model(&entities.Consultation{}).Where("id = ?", id).Count(&count).Error; err == nil && count > 0 {
			return domain.ErrAlreadyEnded
		}
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) ListHistory(ctx context.Context, doctorID, patientID int64, page domain.Page) (*domain.HistoryPage, error) {
	page = page.Normalize()

	query := r.db.WithContext(ctx).Model(&entities.Consultation{}).
		Where("status <> ?", domain.StatusOngoing.String())
	if doctorID > 0 {
		query = query.Where("doctor_id = ?", doctorID)
	}
	if patientID > 0 {
		query = query.Where("patient_id = ?", patientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count consultation history",
			err,
			"6f7a8b9c-0d1e-4f2a-9b3c-4d5e6f7a8b9c",
		)
	}

	var rows []entities.Consultation
	err := query.
		Order("started_at DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list consultation history",
			err,
			"8a9b0c1d-2e3f-4a4b-8c5d-6e7f8a9b0c1d",
		)
	}

	out := make([]*domain.Consultation, 0, len(rows))
	for _, row := range rows {
		cons := mapEntity(row)
		out = append(out, &cons)
	}
	return &domain.HistoryPage{Consultations: out, Total: total, Page: page}, nil
}

func mapEntity(entity entities.Consultation) domain.Consultation {
	return domain.Consultation{
		ID:        entity.ID,
		DoctorID:  entity.DoctorID,
		PatientID: entity.PatientID,
		RoomName:  entity.RoomName,
		Status:    domain.Status(entity.Status),
		Notes:     entity.Notes,
		StartedAt: entity.StartedAt,
		EndedAt:   entity.EndedAt,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}
}
