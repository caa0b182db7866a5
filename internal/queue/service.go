package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"taxi_buffer/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Message содержит уведомление водителю о свободном месте.
type Message struct {
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	URL              string    `json:"url"`
	Tag              string    `json:"tag"`
	EntryUUID        uuid.UUID `json:"entry_uuid"`
	NotificationUUID uuid.UUID `json:"notification_uuid"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Dispatcher доставляет сообщение водителю. Ошибка доставки не откатывает переход состояния.
type Dispatcher interface {
	Deliver(ctx context.Context, chauffeurID uint, msg Message) error
}

// Events получает события очереди для экранов офицеров.
type Events interface {
	BroadcastQueueEvent(queueID uint, eventType string, data map[string]interface{})
}

type nopDispatcher struct{}

func (nopDispatcher) Deliver(context.Context, uint, Message) error { return nil }

// Service остаётся единственным компонентом, меняющим состояние записей и уведомлений.
type Service struct {
	db         *gorm.DB
	dispatcher Dispatcher
	events     Events
	now        func() time.Time
	messageURL string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithEvents(e Events) Option {
	return func(s *Service) { s.events = e }
}

// WithMessageURL задаёт базовый адрес страницы записи в уведомлениях.
func WithMessageURL(base string) Option {
	return func(s *Service) { s.messageURL = base }
}

func NewService(db *gorm.DB, dispatcher Dispatcher, opts ...Option) *Service {
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	s := &Service{
		db:         db,
		dispatcher: dispatcher,
		now:        time.Now,
		messageURL: "/queueing/queue",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) broadcast(queueID uint, eventType string, data map[string]interface{}) {
	if s.events != nil {
		s.events.BroadcastQueueEvent(queueID, eventType, data)
	}
}

type EnqueueRequest struct {
	QueueID     uint
	ChauffeurID uint
	Location    *Location
}

type EnqueueResult struct {
	Entry    models.QueueEntry
	Position int
}

// Enqueue ставит водителя в очередь. Проверка на конфликт и вставка выполняются
// в одной транзакции под блокировкой очереди и водителя.
func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (*EnqueueResult, error) {
	now := s.clock()
	var result EnqueueResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := lockQueue(tx, req.QueueID)
		if err != nil {
			return err
		}
		if !q.Active {
			return &ValidationError{Reason: "очередь не активна"}
		}

		var chauffeur models.Chauffeur
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&chauffeur, req.ChauffeurID).Error; err != nil {
			return lookupErr(err, "водитель", req.ChauffeurID)
		}

		existing, err := activeEntryOf(tx, chauffeur.ID)
		if err == nil {
			return &ConflictError{EntryUUID: existing.UUID, QueueID: existing.QueueID}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var buffer models.BufferZone
		if err := tx.First(&buffer, q.BufferZoneID).Error; err != nil {
			return lookupErr(err, "буферная зона", q.BufferZoneID)
		}
		if !InBufferZone(req.Location, buffer) {
			return &ValidationError{Reason: "чтобы встать в очередь, нужно находиться в буферной зоне"}
		}

		entry := models.QueueEntry{
			Model:       gorm.Model{CreatedAt: now, UpdatedAt: now},
			QueueID:     q.ID,
			ChauffeurID: chauffeur.ID,
			Status:      models.EntryWaiting,
		}
		if req.Location != nil {
			lat, lon := req.Location.Lat, req.Location.Lon
			entry.SignupLat = &lat
			entry.SignupLon = &lon
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		position, _, err := positionOf(tx, &entry)
		if err != nil {
			return err
		}
		result = EnqueueResult{Entry: entry, Position: position}
		return nil
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Параллельное вступление того же водителя в другую очередь успело зафиксироваться первым.
		if existing, lerr := activeEntryOf(s.db.WithContext(ctx), req.ChauffeurID); lerr == nil {
			return nil, &ConflictError{EntryUUID: existing.UUID, QueueID: existing.QueueID}
		}
		return nil, fmt.Errorf("вступление в очередь: %w", err)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Водитель %d встал в очередь %d, позиция %d", req.ChauffeurID, req.QueueID, result.Position)
	s.broadcast(req.QueueID, "entry_joined", map[string]interface{}{
		"entry_uuid": result.Entry.UUID,
		"position":   result.Position,
	})
	return &result, nil
}

// NotifyResult описывает итог вызова водителей.
type NotifyResult struct {
	Requested        int
	Notified         int
	Entries          []models.QueueEntry
	DispatchFailures int
	DispatchErrors   []error
}

type offer struct {
	entry        models.QueueEntry
	notification models.QueueNotification
}

// Notify вызывает до n самых ранних ожидающих водителей очереди.
// В неактивной очереди никого не вызывает и возвращает ValidationError.
func (s *Service) Notify(ctx context.Context, queueID uint, n int) (*NotifyResult, error) {
	return s.notify(ctx, queueID, n, "")
}

// NotifyVehicle вызывает до n первых ожидающих водителей с машиной заданного типа,
// в обход общего порядка очереди. Используется офицером.
func (s *Service) NotifyVehicle(ctx context.Context, queueID uint, n int, vehicle models.VehicleType) (*NotifyResult, error) {
	if vehicle == "" {
		return nil, &ValidationError{Reason: "не указан тип машины"}
	}
	return s.notify(ctx, queueID, n, vehicle)
}

func (s *Service) notify(ctx context.Context, queueID uint, n int, vehicle models.VehicleType) (*NotifyResult, error) {
	result := &NotifyResult{Requested: n}
	if n <= 0 {
		return result, nil
	}

	now := s.clock()
	var q *models.TaxiQueue
	var offers []offer

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		q, err = lockQueue(tx, queueID)
		if err != nil {
			return err
		}
		if !q.Active {
			return &ValidationError{Reason: "очередь не активна"}
		}

		query := waitingQuery(tx, q.ID).Limit(n)
		if vehicle != "" {
			query = query.
				Joins("JOIN chauffeurs ON chauffeurs.id = queue_entries.chauffeur_id").
				Where("chauffeurs.vehicle_type = ?", vehicle)
		}
		var candidates []models.QueueEntry
		if err := query.Find(&candidates).Error; err != nil {
			return fmt.Errorf("выборка ожидающих: %w", err)
		}

		for i := range candidates {
			entry := candidates[i]
			notifiedAt := now
			moved, err := moveEntry(tx, &entry, models.EntryNotified, map[string]interface{}{"notified_at": notifiedAt})
			if err != nil {
				return err
			}
			if !moved {
				continue
			}
			notification := models.QueueNotification{
				QueueEntryID: entry.ID,
				SentAt:       notifiedAt,
				Response:     models.ResponsePending,
			}
			if err := tx.Create(&notification).Error; err != nil {
				return fmt.Errorf("создание уведомления: %w", err)
			}
			entry.Status = models.EntryNotified
			entry.NotifiedAt = &notifiedAt
			offers = append(offers, offer{entry: entry, notification: notification})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Доставка только после фиксации перехода, её результат носит справочный характер.
	pickupName := s.pickupZoneName(ctx, q.PickupZoneID)
	for _, o := range offers {
		result.Entries = append(result.Entries, o.entry)
		msg := s.offerMessage(q, pickupName, o)
		if err := s.dispatcher.Deliver(ctx, o.entry.ChauffeurID, msg); err != nil {
			derr := &ExternalDispatchError{ChauffeurID: o.entry.ChauffeurID, EntryUUID: o.entry.UUID, Err: err}
			result.DispatchFailures++
			result.DispatchErrors = append(result.DispatchErrors, derr)
			log.Printf("Не удалось доставить уведомление: %v", derr)
		}
		s.broadcast(q.ID, "entry_notified", map[string]interface{}{
			"entry_uuid":        o.entry.UUID,
			"notification_uuid": o.notification.UUID,
		})
	}
	result.Notified = len(offers)

	log.Printf("Очередь %d: вызвано %d из %d запрошенных", q.ID, result.Notified, n)
	return result, nil
}

func (s *Service) pickupZoneName(ctx context.Context, zoneID uint) string {
	var zone models.PickupZone
	if err := s.db.WithContext(ctx).Select("name").First(&zone, zoneID).Error; err != nil {
		return ""
	}
	return zone.Name
}

func (s *Service) offerMessage(q *models.TaxiQueue, pickupName string, o offer) Message {
	url := fmt.Sprintf("%s/%s/", s.messageURL, o.entry.UUID)
	return Message{
		Title:            "Ваша очередь",
		Body:             fmt.Sprintf("Проезжайте в зону посадки: %s", pickupName),
		URL:              url,
		Tag:              fmt.Sprintf("queue-%d", q.ID),
		EntryUUID:        o.entry.UUID,
		NotificationUUID: o.notification.UUID,
		ExpiresAt:        o.notification.ExpiresAt(q.NotificationTimeoutMinutes),
	}
}

type RespondResult struct {
	Entry        models.QueueEntry
	Notification models.QueueNotification
	// Reoffer заполняется повторным вызовом следующего водителя после отказа.
	Reoffer *NotifyResult
}

// Respond фиксирует ответ водителя на предложение места.
// Просроченное предложение не принимается (ExpiredError) и остаётся на закрытие чистильщику.
func (s *Service) Respond(ctx context.Context, notificationUUID uuid.UUID, response models.NotificationResponse) (*RespondResult, error) {
	if response != models.ResponseAccepted && response != models.ResponseDeclined {
		return nil, &ValidationError{Reason: "ответ должен быть accepted или declined"}
	}

	now := s.clock()
	var result RespondResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := notificationByUUID(tx, notificationUUID)
		if err != nil {
			return err
		}
		entry, err := entryByID(tx, n.QueueEntryID)
		if err != nil {
			return err
		}
		q, err := lockQueue(tx, entry.QueueID)
		if err != nil {
			return err
		}

		// Перечитываем под блокировкой очереди.
		if n, err = notificationByUUID(tx, notificationUUID); err != nil {
			return err
		}
		if entry, err = entryByID(tx, n.QueueEntryID); err != nil {
			return err
		}

		if n.Response != models.ResponsePending {
			return &ValidationError{Reason: fmt.Sprintf("на уведомление уже получен ответ (%s)", n.Response)}
		}
		if expiresAt := n.ExpiresAt(q.NotificationTimeoutMinutes); now.After(expiresAt) {
			return &ExpiredError{NotificationUUID: n.UUID, ExpiredAt: expiresAt}
		}

		closed, err := closeNotification(tx, n, response, now)
		if err != nil {
			return err
		}
		if !closed {
			return &ValidationError{Reason: "на уведомление уже получен ответ"}
		}
		moved, err := moveEntry(tx, entry, response.EntryStatus(), map[string]interface{}{"terminal_at": now})
		if err != nil {
			return err
		}
		if !moved {
			return &ValidationError{Reason: fmt.Sprintf("запись в статусе %s", entry.Status)}
		}

		n.Response = response
		n.RespondedAt = &now
		entry.Status = response.EntryStatus()
		entry.TerminalAt = &now
		result.Notification = *n
		result.Entry = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Ответ на уведомление %s: %s", notificationUUID, response)
	s.broadcast(result.Entry.QueueID, "entry_"+string(result.Entry.Status), map[string]interface{}{
		"entry_uuid": result.Entry.UUID,
	})

	if response == models.ResponseDeclined {
		// Освободившееся место предлагается следующему; отказавшийся уже не в статусе waiting.
		reoffer, err := s.Notify(ctx, result.Entry.QueueID, 1)
		if err != nil {
			log.Printf("Ошибка повторного вызова в очереди %d: %v", result.Entry.QueueID, err)
		}
		result.Reoffer = reoffer
	}
	return &result, nil
}

type LeaveResult struct {
	Entry              models.QueueEntry
	ClosedNotification *models.QueueNotification
	Reoffer            *NotifyResult
}

// Leave выводит водителя из очереди по его желанию. Если у записи было ожидающее ответа предложение,
// оно закрывается как declined, и место сразу предлагается следующему.
func (s *Service) Leave(ctx context.Context, entryUUID uuid.UUID) (*LeaveResult, error) {
	now := s.clock()
	var result LeaveResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := entryByUUID(tx, entryUUID)
		if err != nil {
			return err
		}
		if _, err := lockQueue(tx, entry.QueueID); err != nil {
			return err
		}
		if entry, err = entryByUUID(tx, entryUUID); err != nil {
			return err
		}

		wasNotified := entry.Status == models.EntryNotified
		moved, err := moveEntry(tx, entry, models.EntryLeftZone, map[string]interface{}{"terminal_at": now})
		if err != nil {
			return err
		}
		if !moved {
			return &ValidationError{Reason: fmt.Sprintf("запись в статусе %s", entry.Status)}
		}
		entry.Status = models.EntryLeftZone
		entry.TerminalAt = &now
		result.Entry = *entry

		if !wasNotified {
			return nil
		}
		n, err := pendingNotificationOf(tx, entry.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		closed, err := closeNotification(tx, n, models.ResponseDeclined, now)
		if err != nil {
			return err
		}
		if closed {
			n.Response = models.ResponseDeclined
			n.RespondedAt = &now
			result.ClosedNotification = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Запись %s покинула очередь %d", entryUUID, result.Entry.QueueID)
	s.broadcast(result.Entry.QueueID, "entry_left", map[string]interface{}{
		"entry_uuid": result.Entry.UUID,
	})

	if result.ClosedNotification != nil {
		reoffer, err := s.Notify(ctx, result.Entry.QueueID, 1)
		if err != nil {
			log.Printf("Ошибка повторного вызова в очереди %d: %v", result.Entry.QueueID, err)
		}
		result.Reoffer = reoffer
	}
	return &result, nil
}

type ExpireResult struct {
	Expired bool
	QueueID uint
	Entry   models.QueueEntry
}

// ExpireNotification закрывает предложение как timeout, если оно всё ещё ожидает ответа
// и его срок истёк. Повторный вызов для закрытого предложения ничего не делает.
func (s *Service) ExpireNotification(ctx context.Context, notificationID uint) (*ExpireResult, error) {
	now := s.clock()
	var result ExpireResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n models.QueueNotification
		if err := tx.First(&n, notificationID).Error; err != nil {
			return lookupErr(err, "уведомление", notificationID)
		}
		entry, err := entryByID(tx, n.QueueEntryID)
		if err != nil {
			return err
		}
		q, err := lockQueue(tx, entry.QueueID)
		if err != nil {
			return err
		}
		result.QueueID = q.ID

		var fresh models.QueueNotification
		if err := tx.First(&fresh, notificationID).Error; err != nil {
			return lookupErr(err, "уведомление", notificationID)
		}
		if fresh.Response != models.ResponsePending || !now.After(fresh.ExpiresAt(q.NotificationTimeoutMinutes)) {
			return nil
		}
		if entry, err = entryByID(tx, fresh.QueueEntryID); err != nil {
			return err
		}

		closed, err := closeNotification(tx, &fresh, models.ResponseTimeout, now)
		if err != nil || !closed {
			return err
		}
		moved, err := moveEntry(tx, entry, models.EntryTimeout, map[string]interface{}{"terminal_at": now})
		if err != nil {
			return err
		}
		if !moved {
			return &ValidationError{Reason: fmt.Sprintf("запись в статусе %s", entry.Status)}
		}
		entry.Status = models.EntryTimeout
		entry.TerminalAt = &now
		result.Entry = *entry
		result.Expired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Expired {
		log.Printf("Истёк срок уведомления %d (очередь %d)", notificationID, result.QueueID)
		s.broadcast(result.QueueID, "entry_timeout", map[string]interface{}{
			"entry_uuid": result.Entry.UUID,
		})
	}
	return &result, nil
}

func entryByID(tx *gorm.DB, id uint) (*models.QueueEntry, error) {
	var e models.QueueEntry
	if err := tx.First(&e, id).Error; err != nil {
		return nil, lookupErr(err, "запись", id)
	}
	return &e, nil
}

// Now возвращает текущее время по часам сервиса.
func (s *Service) Now() time.Time {
	return s.clock()
}

// PurgeTerminal удаляет завершённые записи с terminal_at раньше before вместе с их уведомлениями.
func (s *Service) PurgeTerminal(ctx context.Context, before time.Time) (int64, error) {
	terminal := []models.EntryStatus{models.EntryDequeued, models.EntryDeclined, models.EntryTimeout, models.EntryLeftZone}
	var purged int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old := tx.Model(&models.QueueEntry{}).Select("id").
			Where("status IN ? AND terminal_at < ?", terminal, before.UTC())
		if err := tx.Unscoped().Where("queue_entry_id IN (?)", old).
			Delete(&models.QueueNotification{}).Error; err != nil {
			return fmt.Errorf("удаление уведомлений: %w", err)
		}
		res := tx.Unscoped().Where("status IN ? AND terminal_at < ?", terminal, before.UTC()).
			Delete(&models.QueueEntry{})
		if res.Error != nil {
			return fmt.Errorf("удаление записей: %w", res.Error)
		}
		purged = res.RowsAffected
		return nil
	})
	return purged, err
}
