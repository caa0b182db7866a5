package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueueEntry хранит участие одного водителя в одной очереди.
// Не более одной записи на водителя в статусе waiting/notified (частичный уникальный индекс, см. storage.Migrate).
type QueueEntry struct {
	gorm.Model
	UUID        uuid.UUID   `gorm:"type:uuid;uniqueIndex;not null"`
	QueueID     uint        `gorm:"index:idx_entry_queue_status;not null"`
	Queue       TaxiQueue   `gorm:"foreignKey:QueueID"`
	ChauffeurID uint        `gorm:"index;not null"`
	Chauffeur   Chauffeur   `gorm:"foreignKey:ChauffeurID"`
	Status      EntryStatus `gorm:"type:varchar(20);index:idx_entry_queue_status;not null"`
	NotifiedAt  *time.Time  `gorm:"index"`
	TerminalAt  *time.Time  `gorm:"index"` // Время перехода в конечный статус
	SignupLat   *float64
	SignupLon   *float64
}

// QueueNotification хранит одно предложение места конкретной записи.
type QueueNotification struct {
	gorm.Model
	UUID         uuid.UUID            `gorm:"type:uuid;uniqueIndex;not null"`
	QueueEntryID uint                 `gorm:"index;not null"`
	QueueEntry   QueueEntry           `gorm:"foreignKey:QueueEntryID"`
	SentAt       time.Time            `gorm:"index;not null"`
	RespondedAt  *time.Time
	Response     NotificationResponse `gorm:"type:varchar(20);index;not null"`
}

func (e *QueueEntry) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	return nil
}

func (n *QueueNotification) BeforeCreate(tx *gorm.DB) error {
	if n.UUID == uuid.Nil {
		n.UUID = uuid.New()
	}
	return nil
}

// ExpiresAt возвращает крайний срок ответа на предложение.
func (n *QueueNotification) ExpiresAt(timeoutMinutes int) time.Time {
	return n.SentAt.Add(time.Duration(timeoutMinutes) * time.Minute)
}
