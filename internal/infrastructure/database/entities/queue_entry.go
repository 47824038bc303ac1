package entities

import "time"

// QueueEntry represents one patient's persisted place in a doctor's queue.
// Positions are derived from row order at query time; the table only
// stores membership and status.
type QueueEntry struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	DoctorID  int64  `gorm:"not null;index:idx_queue_pair"`
	PatientID int64  `gorm:"not null;index:idx_queue_pair"`
	Status    string `gorm:"type:varchar(16);not null;index"`
	JoinedAt  time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (QueueEntry) TableName() string {
	return "queue_entries"
}
