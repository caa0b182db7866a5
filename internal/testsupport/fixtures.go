package testsupport

import (
	"fmt"
	"sync/atomic"
	"testing"

	"taxi_buffer/internal/models"

	"gorm.io/gorm"
)

var fixtureSeq atomic.Int64

// Zone создаёт пару буферная зона / зона посадки.
func Zone(t testing.TB, db *gorm.DB) (models.BufferZone, models.PickupZone) {
	t.Helper()
	n := fixtureSeq.Add(1)
	buffer := models.BufferZone{Name: fmt.Sprintf("Buffer %d", n), Active: true}
	if err := db.Create(&buffer).Error; err != nil {
		t.Fatalf("create buffer zone: %v", err)
	}
	pickup := models.PickupZone{Name: fmt.Sprintf("Pickup %d", n), Active: true}
	if err := db.Create(&pickup).Error; err != nil {
		t.Fatalf("create pickup zone: %v", err)
	}
	return buffer, pickup
}

// Queue создаёт активную очередь в новой буферной зоне, ведущую в pickup.
func Queue(t testing.TB, db *gorm.DB, pickupZoneID uint, timeoutMinutes int) models.TaxiQueue {
	t.Helper()
	n := fixtureSeq.Add(1)
	buffer := models.BufferZone{Name: fmt.Sprintf("Buffer %d", n), Active: true}
	if err := db.Create(&buffer).Error; err != nil {
		t.Fatalf("create buffer zone: %v", err)
	}
	q := models.TaxiQueue{
		BufferZoneID:               buffer.ID,
		PickupZoneID:               pickupZoneID,
		NotificationTimeoutMinutes: timeoutMinutes,
		Active:                     true,
	}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("create queue: %v", err)
	}
	return q
}

// Chauffeur создаёт водителя с заданным типом машины.
func Chauffeur(t testing.TB, db *gorm.DB, vehicle models.VehicleType) models.Chauffeur {
	t.Helper()
	n := fixtureSeq.Add(1)
	c := models.Chauffeur{
		LicensePlate:      fmt.Sprintf("%d-ABC-1", n%100),
		TaxiLicenseNumber: fmt.Sprintf("RTX%06d", n),
		VehicleType:       vehicle,
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create chauffeur: %v", err)
	}
	return c
}

// Sensor создаёт активный датчик в зоне посадки.
func Sensor(t testing.TB, db *gorm.DB, pickupZoneID uint, serial string) models.Sensor {
	t.Helper()
	s := models.Sensor{SerialNumber: serial, PickupZoneID: pickupZoneID, Active: true}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create sensor: %v", err)
	}
	return s
}
