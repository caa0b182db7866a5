package storage

import (
	"fmt"
	"log"
	"time"

	"taxi_buffer/internal/config"
	"taxi_buffer/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// GormConfig возвращает общие настройки gorm: ошибки уникальности транслируются в gorm.ErrDuplicatedKey,
// время пишется в UTC.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// ConnectDatabase открывает соединение с базой данных по настройкам.
func ConnectDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath + "?_busy_timeout=5000")
	default:
		dialector = postgres.Open(cfg.PostgresDSN())
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("подключение к базе данных: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// SQLite не умеет блокировать строки, транзакции сериализуются одним соединением.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Println("Подключение к базе данных успешно!")
	return db, nil
}

// Migrate создаёт таблицы и частичные уникальные индексы, на которых держатся инварианты очереди.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("миграция: %w", err)
	}

	statements := []string{
		// Не более одной незавершённой записи на водителя во всей системе.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_entry_active_chauffeur
			ON queue_entries (chauffeur_id)
			WHERE status IN ('waiting', 'notified') AND deleted_at IS NULL`,
		// Не более одного ожидающего ответа предложения на запись.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_notification_pending_entry
			ON queue_notifications (queue_entry_id)
			WHERE response = 'pending' AND deleted_at IS NULL`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("создание индекса: %w", err)
		}
	}
	return nil
}
