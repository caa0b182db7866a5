package queue

import (
	"context"
	"errors"
	"math"
	"time"

	"taxi_buffer/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Чтение состояния: опрос водителя, экраны офицера, статистика. Без блокировок.

// DequeuedLimit ограничивает, сколько последних допущенных записей показывать офицеру.
const DequeuedLimit = 20

type PendingView struct {
	UUID             uuid.UUID `json:"uuid"`
	SentAt           time.Time `json:"sent_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Expired          bool      `json:"is_expired"`
}

type EntryView struct {
	UUID         uuid.UUID          `json:"uuid"`
	QueueID      uint               `json:"queue_id"`
	QueueName    string             `json:"queue_name,omitempty"`
	ChauffeurID  uint               `json:"chauffeur_id"`
	LicensePlate string             `json:"license_plate,omitempty"`
	VehicleType  models.VehicleType `json:"vehicle_type,omitempty"`
	Status       models.EntryStatus `json:"status"`
	Position     int                `json:"position"`
	TotalWaiting int                `json:"total_waiting"`
	CreatedAt    time.Time          `json:"created_at"`
	NotifiedAt   *time.Time         `json:"notified_at,omitempty"`
	TerminalAt   *time.Time         `json:"terminal_at,omitempty"`
	Notification *PendingView       `json:"notification,omitempty"`
}

func entryView(e models.QueueEntry) EntryView {
	return EntryView{
		UUID:         e.UUID,
		QueueID:      e.QueueID,
		QueueName:    e.Queue.Name,
		ChauffeurID:  e.ChauffeurID,
		LicensePlate: e.Chauffeur.LicensePlate,
		VehicleType:  e.Chauffeur.VehicleType,
		Status:       e.Status,
		CreatedAt:    e.CreatedAt,
		NotifiedAt:   e.NotifiedAt,
		TerminalAt:   e.TerminalAt,
	}
}

// EntryStatus возвращает статус и позицию записи и ожидающее ответа предложение, если оно есть.
func (s *Service) EntryStatus(ctx context.Context, entryUUID uuid.UUID) (*EntryView, error) {
	db := s.db.WithContext(ctx)

	var entry models.QueueEntry
	if err := db.Preload("Queue").Preload("Chauffeur").Where("uuid = ?", entryUUID).First(&entry).Error; err != nil {
		return nil, lookupErr(err, "запись", entryUUID)
	}

	view := entryView(entry)
	position, total, err := positionOf(db, &entry)
	if err != nil {
		return nil, err
	}
	view.Position = position
	view.TotalWaiting = total

	n, err := pendingNotificationOf(db, entry.ID)
	switch {
	case err == nil:
		expiresAt := n.ExpiresAt(entry.Queue.NotificationTimeoutMinutes)
		remaining := expiresAt.Sub(s.clock())
		if remaining < 0 {
			remaining = 0
		}
		view.Notification = &PendingView{
			UUID:             n.UUID,
			SentAt:           n.SentAt,
			ExpiresAt:        expiresAt,
			RemainingSeconds: int(remaining / time.Second),
			Expired:          s.clock().After(expiresAt),
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return &view, nil
}

// Window задаёт интервал времени для экранов офицера; нулевой To означает «по сей момент».
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) apply(db *gorm.DB, column string) *gorm.DB {
	if !w.From.IsZero() {
		db = db.Where(column+" >= ?", w.From.UTC())
	}
	if !w.To.IsZero() {
		db = db.Where(column+" <= ?", w.To.UTC())
	}
	return db
}

type QueueSummary struct {
	ID             uint      `json:"id"`
	UUID           uuid.UUID `json:"uuid"`
	Name           string    `json:"name"`
	PickupZoneID   uint      `json:"pickup_zone_id"`
	TimeoutMinutes int       `json:"timeout_minutes"`
	Active         bool      `json:"active"`
	WaitingCount   int64     `json:"waiting_count"`
}

type Snapshot struct {
	Queue    QueueSummary `json:"queue"`
	Waiting  []EntryView  `json:"waiting_entries"`
	Notified []EntryView  `json:"notified_entries"`
	Dequeued []EntryView  `json:"dequeued_entries"`
}

func summary(q models.TaxiQueue, waiting int64) QueueSummary {
	return QueueSummary{
		ID:             q.ID,
		UUID:           q.UUID,
		Name:           q.Name,
		PickupZoneID:   q.PickupZoneID,
		TimeoutMinutes: q.NotificationTimeoutMinutes,
		Active:         q.Active,
		WaitingCount:   waiting,
	}
}

// QueueSnapshot собирает ожидающие (по позиции), вызванные и допущенные записи очереди в окне времени.
func (s *Service) QueueSnapshot(ctx context.Context, queueID uint, w Window) (*Snapshot, error) {
	db := s.db.WithContext(ctx)

	var q models.TaxiQueue
	if err := db.First(&q, queueID).Error; err != nil {
		return nil, lookupErr(err, "очередь", queueID)
	}

	ids, err := waitingIDs(db, queueID)
	if err != nil {
		return nil, err
	}
	positions := make(map[uint]int, len(ids))
	for i, id := range ids {
		positions[id] = i + 1
	}

	var waiting []models.QueueEntry
	if err := w.apply(waitingQuery(db, queueID), "queue_entries.created_at").
		Preload("Chauffeur").Find(&waiting).Error; err != nil {
		return nil, err
	}

	var notified []models.QueueEntry
	if err := w.apply(db.Where("queue_id = ? AND status = ?", queueID, models.EntryNotified), "notified_at").
		Preload("Chauffeur").Order("notified_at DESC").Find(&notified).Error; err != nil {
		return nil, err
	}

	var dequeued []models.QueueEntry
	if err := w.apply(db.Where("queue_id = ? AND status = ?", queueID, models.EntryDequeued), "terminal_at").
		Preload("Chauffeur").Order("terminal_at DESC").Limit(DequeuedLimit).Find(&dequeued).Error; err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Queue:    summary(q, int64(len(ids))),
		Waiting:  make([]EntryView, 0, len(waiting)),
		Notified: make([]EntryView, 0, len(notified)),
		Dequeued: make([]EntryView, 0, len(dequeued)),
	}
	for _, e := range waiting {
		v := entryView(e)
		v.Position = positions[e.ID]
		v.TotalWaiting = len(ids)
		snap.Waiting = append(snap.Waiting, v)
	}
	for _, e := range notified {
		snap.Notified = append(snap.Notified, entryView(e))
	}
	for _, e := range dequeued {
		snap.Dequeued = append(snap.Dequeued, entryView(e))
	}
	return snap, nil
}

type Stats struct {
	QueueName          string    `json:"queue_name"`
	Waiting            int64     `json:"waiting"`
	Notified           int64     `json:"notified"`
	RecentlyDequeued   int64     `json:"recently_dequeued"`
	AverageWaitMinutes float64   `json:"average_wait_minutes"`
	LastUpdated        time.Time `json:"last_updated"`
}

// Statistics считает сводку по очереди; среднее ожидание считается от вступления до вызова у допущенных.
func (s *Service) Statistics(ctx context.Context, queueID uint, recentWindow time.Duration) (*Stats, error) {
	db := s.db.WithContext(ctx)
	now := s.clock()

	var q models.TaxiQueue
	if err := db.First(&q, queueID).Error; err != nil {
		return nil, lookupErr(err, "очередь", queueID)
	}

	stats := &Stats{QueueName: q.Name, LastUpdated: now}
	if err := db.Model(&models.QueueEntry{}).Where("queue_id = ? AND status = ?", queueID, models.EntryWaiting).
		Count(&stats.Waiting).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.QueueEntry{}).Where("queue_id = ? AND status = ?", queueID, models.EntryNotified).
		Count(&stats.Notified).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.QueueEntry{}).
		Where("queue_id = ? AND status = ? AND terminal_at >= ?", queueID, models.EntryDequeued, now.Add(-recentWindow)).
		Count(&stats.RecentlyDequeued).Error; err != nil {
		return nil, err
	}

	var dequeued []models.QueueEntry
	if err := db.Select([]string{"created_at", "notified_at"}).
		Where("queue_id = ? AND status = ? AND notified_at IS NOT NULL", queueID, models.EntryDequeued).
		Find(&dequeued).Error; err != nil {
		return nil, err
	}
	if len(dequeued) > 0 {
		var total time.Duration
		for _, e := range dequeued {
			total += e.NotifiedAt.Sub(e.CreatedAt)
		}
		avg := total.Minutes() / float64(len(dequeued))
		stats.AverageWaitMinutes = math.Round(avg*10) / 10
	}
	return stats, nil
}

// ActiveQueues перечисляет активные очереди с числом ожидающих, для выбора водителем.
func (s *Service) ActiveQueues(ctx context.Context) ([]QueueSummary, error) {
	db := s.db.WithContext(ctx)

	var queues []models.TaxiQueue
	if err := db.Where("active = ?", true).Order("id ASC").Find(&queues).Error; err != nil {
		return nil, err
	}
	out := make([]QueueSummary, 0, len(queues))
	for _, q := range queues {
		count, err := s.WaitingCount(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, summary(q, count))
	}
	return out, nil
}

func (s *Service) WaitingCount(ctx context.Context, queueID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("queue_id = ? AND status = ?", queueID, models.EntryWaiting).
		Count(&count).Error
	return count, err
}

// PendingOffer хранит ожидающее ответа предложение вместе с таймаутом его очереди.
type PendingOffer struct {
	NotificationID uint
	QueueID        uint
	SentAt         time.Time
	TimeoutMinutes int
}

func (p PendingOffer) ExpiresAt() time.Time {
	return p.SentAt.Add(time.Duration(p.TimeoutMinutes) * time.Minute)
}

// PendingOffers перечисляет все предложения в статусе pending, старые первыми.
func (s *Service) PendingOffers(ctx context.Context) ([]PendingOffer, error) {
	var offers []PendingOffer
	err := s.db.WithContext(ctx).
		Table("queue_notifications").
		Select("queue_notifications.id AS notification_id, queue_entries.queue_id AS queue_id, "+
			"queue_notifications.sent_at AS sent_at, taxi_queues.notification_timeout_minutes AS timeout_minutes").
		Joins("JOIN queue_entries ON queue_entries.id = queue_notifications.queue_entry_id").
		Joins("JOIN taxi_queues ON taxi_queues.id = queue_entries.queue_id").
		Where("queue_notifications.response = ? AND queue_notifications.deleted_at IS NULL", models.ResponsePending).
		Order("queue_notifications.sent_at ASC").
		Scan(&offers).Error
	return offers, err
}
