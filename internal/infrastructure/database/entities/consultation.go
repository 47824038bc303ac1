package entities

import "time"

// Consultation represents the persisted consultation record.
type Consultation struct {
	ID        string `gorm:"type:varchar(40);primaryKey"`
	DoctorID  int64  `gorm:"not null;index:idx_consultation_pair"`
	PatientID int64  `gorm:"not null;index:idx_consultation_pair"`
	RoomName  string `gorm:"type:varchar(64);not null;index"`
	Status    string `gorm:"type:varchar(16);not null;index"`
	Notes     string `gorm:"type:text"`
	StartedAt time.Time
	EndedAt   *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Consultation) TableName() string {
	return "consultations"
}
