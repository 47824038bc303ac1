// Package queue persists waiting-queue entries with GORM.
//
// Positions are never stored. Each query derives a 1-based rank over the
// doctor's waiting entries ordered by join time, so removals keep the
// remaining positions dense without an update fan-out.
package queue

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "teleclinic/consult-api/internal/domain/queue"
	"teleclinic/consult-api/internal/infrastructure/database/entities"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// Repository handles queue entry persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var activeStatuses = []string{
	string(domain.StatusWaiting),
	string(domain.StatusInConsultation),
}

func (r *Repository) Create(ctx context.Context, entry *domain.Entry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&entities.QueueEntry{}).
			Where("doctor_id = ? AND patient_id = ? AND status IN ?", entry.DoctorID, entry.PatientID, activeStatuses).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrEntryExists
		}

		entity := entities.QueueEntry{
			DoctorID:  entry.DoctorID,
			PatientID: entry.PatientID,
			Status:    string(domain.StatusWaiting),
			JoinedAt:  time.Now(),
		}
		if err := tx.Create(&entity).Error; err != nil {
			return err
		}

		entry.ID = entity.ID
		entry.Status = domain.StatusWaiting
		entry.JoinedAt = entity.JoinedAt
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrEntryExists) {
			return domain.ErrEntryExists
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create queue entry",
			err,
			"0c1d2e3f-4a5b-4c6d-8e7f-9a0b1c2d3e4f",
		)
	}

	pos, err := r.waitingRank(ctx, entry.DoctorID, entry.ID)
	if err != nil {
		return err
	}
	entry.Position = pos
	return nil
}

func (r *Repository) GetActiveByPair(ctx context.Context, doctorID, patientID int64) (*domain.Entry, error) {
	var entity entities.QueueEntry
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND patient_id = ? AND status IN ?", doctorID, patientID, activeStatuses).
		Order("id ASC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get active queue entry",
			err,
			"3e4f5a6b-7c8d-4e9f-8a0b-1c2d3e4f5a6b",
		)
	}

	entry := mapEntry(entity)
	if entry.Status == domain.StatusWaiting {
		pos, err := r.waitingRank(ctx, doctorID, entry.ID)
		if err != nil {
			return nil, err
		}
		entry.Position = pos
	}
	return &entry, nil
}

func (r *Repository) ListActiveByDoctor(ctx context.Context, doctorID int64) ([]*domain.Entry, error) {
	var rows []entities.QueueEntry
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND status IN ?", doctorID, activeStatuses).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list queue entries",
			err,
			"5a6b7c8d-9e0f-4a1b-8c2d-3e4f5a6b7c8d",
		)
	}

	out := make([]*domain.Entry, 0, len(rows))
	rank := 0
	for _, row := range rows {
		entry := mapEntry(row)
		if entry.Status == domain.StatusWaiting {
			rank++
			entry.Position = rank
		}
		out = append(out, &entry)
	}
	return out, nil
}

func (r *Repository) CountWaiting(ctx context.Context, doctorID int64) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.QueueEntry{}).
		Where("doctor_id = ? AND status = ?", doctorID, string(domain.StatusWaiting)).
		Count(&count).Error
	if err != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count waiting entries",
			err,
			"7c8d9e0f-1a2b-4c3d-8e4f-5a6b7c8d9e0f",
		)
	}
	return int(count), nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.EntryStatus) error {
	result := r.db.WithContext(ctx).
		Model(&entities.QueueEntry{}).
		Where("id = ? AND status IN ?", id, activeStatuses).
		Update("status", string(status))
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update queue entry status",
			result.Error,
			"9e0f1a2b-3c4d-4e5f-8a6b-7c8d9e0f1a2b",
		)
	}
	if result.RowsAffected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, id int64) error {
	return r.UpdateStatus(ctx, id, domain.StatusLeft)
}

// waitingRank returns the 1-based position of the waiting entry among the
// doctor's waiting entries in join order.
func (r *Repository) waitingRank(ctx context.Context, doctorID, entryID int64) (int, error) {
	var ahead int64
	err := r.db.WithContext(ctx).
		Model(&entities.QueueEntry{}).
		Where("doctor_id = ? AND status = ? AND id <= ?", doctorID, string(domain.StatusWaiting), entryID).
		Count(&ahead).Error
	if err != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to derive queue position",
			err,
			"1a2b3c4d-5e6f-4a7b-8c8d-9e0f1a2b3c4d",
		)
	}
	return int(ahead), nil
}

func mapEntry(entity entities.QueueEntry) domain.Entry {
	return domain.Entry{
		ID:        entity.ID,
		DoctorID:  entity.DoctorID,
		PatientID: entity.PatientID,
		Status:    domain.EntryStatus(entity.Status),
		JoinedAt:  entity.JoinedAt,
		UpdatedAt: entity.UpdatedAt,
	}
}
