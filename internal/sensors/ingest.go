package sensors

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"taxi_buffer/internal/models"
	"taxi_buffer/internal/queue"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Result обозначает исход приёма показания.
type Result string

const (
	ResultSuccess  Result = "success"
	ResultNoChange Result = "no_change"
)

// TimestampLayout задаёт формат времени, который присылают датчики (UTC).
const TimestampLayout = "2006-01-02 15:04:05"

// Свободным считается только явно перечисленный статус, всё остальное означает «занято»:
// лучше недовызвать водителя, чем отправить его на занятое место.
var freeStatuses = map[string]bool{
	"FREE":   true,
	"VACANT": true,
	"EMPTY":  true,
	"OPEN":   true,
}

// MapStatus возвращает true, если статус датчика означает занятое место.
func MapStatus(status string) bool {
	return !freeStatuses[strings.ToUpper(strings.TrimSpace(status))]
}

// ParseTimestamp разбирает время показания; при пустом или неразборчивом значении возвращает now.
func ParseTimestamp(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC()
	}
	if t, err := time.ParseInLocation(TimestampLayout, raw, time.UTC); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}
	return now.UTC()
}

// Reading хранит входящее показание датчика.
type Reading struct {
	Serial    string
	Status    string
	Timestamp string
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, now: now}
}

// Ingest сохраняет показание. Если предыдущее показание датчика попадает в ту же минуту
// и имеет тот же статус, новое не сохраняется и возвращается ResultNoChange.
func (s *Service) Ingest(ctx context.Context, r Reading) (Result, error) {
	serial := strings.TrimSpace(r.Serial)
	if serial == "" {
		return "", &queue.ValidationError{Reason: "не указан серийный номер датчика"}
	}

	occupied := MapStatus(r.Status)
	date := ParseTimestamp(r.Timestamp, s.now())
	result := ResultSuccess

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sensor models.Sensor
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("serial_number = ? AND active = ?", serial, true).
			First(&sensor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &queue.NotFoundError{Kind: "датчик", ID: serial}
			}
			return fmt.Errorf("поиск датчика: %w", err)
		}

		var last models.SensorReading
		err := tx.Where("sensor_id = ?", sensor.ID).Order("date DESC").Order("id DESC").First(&last).Error
		switch {
		case err == nil:
			if sameMinute(last.Date, date) && last.Occupied == occupied {
				result = ResultNoChange
				return nil
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("последнее показание: %w", err)
		}

		return tx.Create(&models.SensorReading{
			SensorID:  sensor.ID,
			Date:      date,
			Occupied:  occupied,
			CreatedAt: s.now().UTC(),
		}).Error
	})
	if err != nil {
		return "", err
	}

	if result == ResultNoChange {
		log.Printf("Датчик %s: повтор показания в ту же минуту, пропущено", serial)
	}
	return result, nil
}

func sameMinute(a, b time.Time) bool {
	return a.UTC().Truncate(time.Minute).Equal(b.UTC().Truncate(time.Minute))
}
