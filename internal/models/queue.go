package models

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTimeoutMinutes задаёт время на ответ водителя, если у очереди оно не задано.
const DefaultTimeoutMinutes = 2

// TaxiQueue связывает одну буферную зону с одной зоной посадки.
type TaxiQueue struct {
	gorm.Model
	UUID                       uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	BufferZoneID               uint       `gorm:"uniqueIndex:idx_queue_zones;not null"`
	BufferZone                 BufferZone `gorm:"foreignKey:BufferZoneID"`
	PickupZoneID               uint       `gorm:"uniqueIndex:idx_queue_zones;index;not null"`
	PickupZone                 PickupZone `gorm:"foreignKey:PickupZoneID"`
	Name                       string
	NotificationTimeoutMinutes int  `gorm:"not null"`
	Active                     bool `gorm:"index;not null"`
}

func (q *TaxiQueue) BeforeCreate(tx *gorm.DB) error {
	if q.UUID == uuid.Nil {
		q.UUID = uuid.New()
	}
	if q.NotificationTimeoutMinutes <= 0 {
		q.NotificationTimeoutMinutes = DefaultTimeoutMinutes
	}
	if q.Name == "" {
		var buffer BufferZone
		var pickup PickupZone
		if err := tx.Session(&gorm.Session{NewDB: true}).First(&buffer, q.BufferZoneID).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).First(&pickup, q.PickupZoneID).Error; err != nil {
			return err
		}
		q.Name = fmt.Sprintf("%s --> %s", buffer.Name, pickup.Name)
	}
	return nil
}
