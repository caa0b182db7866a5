package models

import "fmt"

// EntryStatus обозначает состояние записи в очереди.
// waiting -> notified -> {dequeued | declined | timeout}, waiting|notified -> left_zone.
type EntryStatus string

const (
	EntryWaiting  EntryStatus = "waiting"
	EntryNotified EntryStatus = "notified"
	EntryDequeued EntryStatus = "dequeued"
	EntryDeclined EntryStatus = "declined"
	EntryTimeout  EntryStatus = "timeout"
	EntryLeftZone EntryStatus = "left_zone"
)

// ActiveStatuses перечисляет незавершённые статусы записи.
var ActiveStatuses = []EntryStatus{EntryWaiting, EntryNotified}

var entryTransitions = map[EntryStatus][]EntryStatus{
	EntryWaiting:  {EntryNotified, EntryLeftZone},
	EntryNotified: {EntryDequeued, EntryDeclined, EntryTimeout, EntryLeftZone},
}

// TransitionError возвращается при попытке перехода из недопустимого исходного состояния.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("недопустимый переход %s -> %s", e.From, e.To)
}

func (s EntryStatus) Active() bool {
	return s == EntryWaiting || s == EntryNotified
}

func (s EntryStatus) Terminal() bool {
	switch s {
	case EntryDequeued, EntryDeclined, EntryTimeout, EntryLeftZone:
		return true
	}
	return false
}

// Next проверяет переход и возвращает новое состояние.
func (s EntryStatus) Next(to EntryStatus) (EntryStatus, error) {
	for _, allowed := range entryTransitions[s] {
		if allowed == to {
			return to, nil
		}
	}
	return s, &TransitionError{From: string(s), To: string(to)}
}

// NotificationResponse обозначает исход предложения места.
type NotificationResponse string

const (
	ResponsePending  NotificationResponse = "pending"
	ResponseAccepted NotificationResponse = "accepted"
	ResponseDeclined NotificationResponse = "declined"
	ResponseTimeout  NotificationResponse = "timeout"
)

// ParseResponse разбирает ответ водителя; допустимы только accepted и declined.
func ParseResponse(s string) (NotificationResponse, bool) {
	switch NotificationResponse(s) {
	case ResponseAccepted:
		return ResponseAccepted, true
	case ResponseDeclined:
		return ResponseDeclined, true
	}
	return "", false
}

// Close закрывает предложение. Закрыть можно только pending и только один раз.
func (r NotificationResponse) Close(to NotificationResponse) (NotificationResponse, error) {
	if r != ResponsePending || to == ResponsePending {
		return r, &TransitionError{From: string(r), To: string(to)}
	}
	switch to {
	case ResponseAccepted, ResponseDeclined, ResponseTimeout:
		return to, nil
	}
	return r, &TransitionError{From: string(r), To: string(to)}
}

// EntryStatus возвращает статус записи, соответствующий закрытию предложения.
func (r NotificationResponse) EntryStatus() EntryStatus {
	switch r {
	case ResponseAccepted:
		return EntryDequeued
	case ResponseDeclined:
		return EntryDeclined
	case ResponseTimeout:
		return EntryTimeout
	}
	return EntryNotified
}
