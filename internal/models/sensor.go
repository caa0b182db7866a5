package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sensor следит за одним местом в зоне посадки.
type Sensor struct {
	gorm.Model
	UUID         uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	SerialNumber string     `gorm:"index;not null"`
	PickupZoneID uint       `gorm:"index:idx_sensor_zone_active;not null"`
	PickupZone   PickupZone `gorm:"foreignKey:PickupZoneID"`
	Active       bool       `gorm:"index:idx_sensor_zone_active;not null"`
}

// SensorReading хранит показание датчика. Occupied=false означает свободное место.
type SensorReading struct {
	ID        uint      `gorm:"primaryKey"`
	SensorID  uint      `gorm:"index:idx_reading_sensor_date;not null"`
	Date      time.Time `gorm:"index:idx_reading_sensor_date;not null"`
	Occupied  bool      `gorm:"index;not null"`
	CreatedAt time.Time
}

// ApiKey хранит учётные данные интеграции, присылающей показания датчиков.
type ApiKey struct {
	gorm.Model
	Label       string `gorm:"uniqueIndex;not null"`
	KeyHash     string `gorm:"not null"`
	Active      bool   `gorm:"not null"`
	ExpiresAt   *time.Time
	Description string
}

func (s *Sensor) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	return nil
}
