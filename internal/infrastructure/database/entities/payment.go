package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment represents a persisted payment record mirroring the gateway state.
type Payment struct {
	ID             string          `gorm:"type:varchar(40);primaryKey"`
	ConsultationID string          `gorm:"type:varchar(40);index"`
	PatientID      int64           `gorm:"not null;index"`
	DoctorID       int64           `gorm:"not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency       string          `gorm:"type:char(3);not null"`
	Status         string          `gorm:"type:varchar(16);not null;index"`
	GatewayRef     string          `gorm:"type:varchar(128);index"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
