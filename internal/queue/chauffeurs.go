package queue

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"taxi_buffer/internal/models"

	"gorm.io/gorm"
)

var (
	licensePlatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{1,2}-[A-Z]{2,3}-\d{1,2}$`), // 1-ABC-23
		regexp.MustCompile(`^[A-Z]{2}-\d{3}-[A-Z]$`),       // AB-123-C
		regexp.MustCompile(`^\d{3}-[A-Z]{2}-\d{1,2}$`),     // 123-AB-1
		regexp.MustCompile(`^[A-Z]{3}-\d{2}-\d{1,2}$`),     // ABC-12-3
	}
	taxiLicensePattern = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)
)

// ValidLicensePlate проверяет формат номерного знака.
func ValidLicensePlate(plate string) bool {
	for _, p := range licensePlatePatterns {
		if p.MatchString(plate) {
			return true
		}
	}
	return false
}

// Identify находит водителя по номеру лицензии такси или регистрирует нового.
// Номерной знак должен совпадать с ранее сохранённым.
func (s *Service) Identify(ctx context.Context, plate, taxiLicense string, vehicle models.VehicleType) (*models.Chauffeur, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	taxiLicense = strings.ToUpper(strings.TrimSpace(taxiLicense))

	if !ValidLicensePlate(plate) {
		return nil, &ValidationError{Reason: "неверный формат номерного знака"}
	}
	if !taxiLicensePattern.MatchString(taxiLicense) {
		return nil, &ValidationError{Reason: "неверный формат номера лицензии такси"}
	}
	switch vehicle {
	case "":
		vehicle = models.VehicleCar
	case models.VehicleCar, models.VehicleVan:
	default:
		return nil, &ValidationError{Reason: "неизвестный тип машины"}
	}

	var chauffeur models.Chauffeur
	err := s.db.WithContext(ctx).Where("taxi_license_number = ?", taxiLicense).First(&chauffeur).Error
	if err == nil {
		if chauffeur.LicensePlate != plate {
			return nil, &ValidationError{Reason: "номерной знак не совпадает с лицензией такси"}
		}
		return &chauffeur, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	chauffeur = models.Chauffeur{
		LicensePlate:      plate,
		TaxiLicenseNumber: taxiLicense,
		VehicleType:       vehicle,
	}
	if err := s.db.WithContext(ctx).Create(&chauffeur).Error; err != nil {
		return nil, err
	}
	return &chauffeur, nil
}
