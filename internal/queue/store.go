package queue

import (
	"time"

	"taxi_buffer/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Запросы к хранилищу записей. Все функции принимают tx, чтобы работать внутри транзакции
// под блокировкой очереди.

// lockQueue берёт строку очереди FOR UPDATE: все переходы внутри одной очереди сериализуются.
func lockQueue(tx *gorm.DB, queueID uint) (*models.TaxiQueue, error) {
	var q models.TaxiQueue
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, queueID).Error; err != nil {
		return nil, lookupErr(err, "очередь", queueID)
	}
	return &q, nil
}

func entryByUUID(tx *gorm.DB, id uuid.UUID) (*models.QueueEntry, error) {
	var e models.QueueEntry
	if err := tx.Where("uuid = ?", id).First(&e).Error; err != nil {
		return nil, lookupErr(err, "запись", id)
	}
	return &e, nil
}

func notificationByUUID(tx *gorm.DB, id uuid.UUID) (*models.QueueNotification, error) {
	var n models.QueueNotification
	if err := tx.Where("uuid = ?", id).First(&n).Error; err != nil {
		return nil, lookupErr(err, "уведомление", id)
	}
	return &n, nil
}

func activeEntryOf(tx *gorm.DB, chauffeurID uint) (*models.QueueEntry, error) {
	var e models.QueueEntry
	err := tx.Where("chauffeur_id = ? AND status IN ?", chauffeurID, models.ActiveStatuses).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// waitingQuery выбирает ожидающие записи очереди в порядке допуска (время создания, затем id).
func waitingQuery(tx *gorm.DB, queueID uint) *gorm.DB {
	return tx.Model(&models.QueueEntry{}).
		Where("queue_entries.queue_id = ? AND queue_entries.status = ?", queueID, models.EntryWaiting).
		Order("queue_entries.created_at ASC").
		Order("queue_entries.id ASC")
}

func waitingIDs(tx *gorm.DB, queueID uint) ([]uint, error) {
	var ids []uint
	err := waitingQuery(tx, queueID).Pluck("queue_entries.id", &ids).Error
	return ids, err
}

// positionOf возвращает позицию записи среди ожидающих (с 1) и их общее число.
// Для записи не в статусе waiting позиция 0.
func positionOf(tx *gorm.DB, entry *models.QueueEntry) (int, int, error) {
	ids, err := waitingIDs(tx, entry.QueueID)
	if err != nil {
		return 0, 0, err
	}
	for i, id := range ids {
		if id == entry.ID {
			return i + 1, len(ids), nil
		}
	}
	return 0, len(ids), nil
}

func pendingNotificationOf(tx *gorm.DB, entryID uint) (*models.QueueNotification, error) {
	var n models.QueueNotification
	err := tx.Where("queue_entry_id = ? AND response = ?", entryID, models.ResponsePending).
		Order("sent_at DESC").
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// closeNotification закрывает ожидающее предложение; ноль затронутых строк значит,
// что его уже закрыл конкурентный вызов.
func closeNotification(tx *gorm.DB, n *models.QueueNotification, to models.NotificationResponse, at time.Time) (bool, error) {
	closed, err := n.Response.Close(to)
	if err != nil {
		return false, transitionErr(err)
	}
	res := tx.Model(&models.QueueNotification{}).
		Where("id = ? AND response = ?", n.ID, models.ResponsePending).
		Updates(map[string]interface{}{"response": closed, "responded_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// moveEntry переводит запись в новый статус, если она всё ещё в ожидаемом исходном.
func moveEntry(tx *gorm.DB, e *models.QueueEntry, to models.EntryStatus, fields map[string]interface{}) (bool, error) {
	next, err := e.Status.Next(to)
	if err != nil {
		return false, transitionErr(err)
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["status"] = next
	res := tx.Model(&models.QueueEntry{}).
		Where("id = ? AND status = ?", e.ID, e.Status).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
