package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleType задаёт тип машины водителя и используется офицером для выборочного вызова.
type VehicleType string

const (
	VehicleCar VehicleType = "auto"
	VehicleVan VehicleType = "busje"
)

// BufferZone описывает зону ожидания, где водители встают в очередь.
type BufferZone struct {
	gorm.Model
	UUID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Name   string    `gorm:"uniqueIndex;not null"`
	Active bool      `gorm:"not null"`
}

// PickupZone описывает зону посадки с ограниченным числом мест, каждое место отслеживается датчиком.
type PickupZone struct {
	gorm.Model
	UUID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Name         string    `gorm:"uniqueIndex;not null"`
	TotalSensors int       // Подсказка о вместимости, фактическое число свободных мест считается по датчикам
	Active       bool      `gorm:"not null"`
}

type Chauffeur struct {
	gorm.Model
	UUID              uuid.UUID   `gorm:"type:uuid;uniqueIndex;not null"`
	LicensePlate      string      `gorm:"index;not null"`
	TaxiLicenseNumber string      `gorm:"uniqueIndex;not null"` // RTX-номер
	VehicleType       VehicleType `gorm:"type:varchar(10);not null"`
}

type Officer struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}

func (z *BufferZone) BeforeCreate(tx *gorm.DB) error {
	if z.UUID == uuid.Nil {
		z.UUID = uuid.New()
	}
	return nil
}

func (z *PickupZone) BeforeCreate(tx *gorm.DB) error {
	if z.UUID == uuid.Nil {
		z.UUID = uuid.New()
	}
	return nil
}

func (c *Chauffeur) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.VehicleType == "" {
		c.VehicleType = VehicleCar
	}
	return nil
}

// All перечисляет модели для AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&BufferZone{}, &PickupZone{}, &Chauffeur{}, &Officer{},
		&TaxiQueue{}, &QueueEntry{}, &QueueNotification{},
		&Sensor{}, &SensorReading{}, &ApiKey{},
	}
}
