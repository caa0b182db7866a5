package sensors

import (
	"context"
	"errors"
	"fmt"

	"taxi_buffer/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("неверные учётные данные датчика")

// Authenticate проверяет ключ интеграции по метке. Неактивные и просроченные ключи отклоняются.
func (s *Service) Authenticate(ctx context.Context, label, rawKey string) (*models.ApiKey, error) {
	if label == "" || rawKey == "" {
		return nil, ErrInvalidCredentials
	}

	var key models.ApiKey
	if err := s.db.WithContext(ctx).Where("label = ?", label).First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("поиск ключа: %w", err)
	}
	if !key.Active {
		return nil, ErrInvalidCredentials
	}
	if key.ExpiresAt != nil && s.now().After(*key.ExpiresAt) {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &key, nil
}

// CreateApiKey сохраняет новый ключ интеграции, храня только bcrypt-хэш.
func (s *Service) CreateApiKey(ctx context.Context, label, rawKey, description string) (*models.ApiKey, error) {
	if label == "" || len(rawKey) < 8 {
		return nil, errors.New("метка обязательна, ключ не короче 8 символов")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	key := models.ApiKey{
		Label:       label,
		KeyHash:     string(hash),
		Active:      true,
		Description: description,
	}
	if err := s.db.WithContext(ctx).Create(&key).Error; err != nil {
		return nil, err
	}
	return &key, nil
}
