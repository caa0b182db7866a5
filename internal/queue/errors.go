package queue

import (
	"errors"
	"fmt"
	"time"

	"taxi_buffer/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConflictError означает, что у водителя уже есть незавершённая запись; EntryUUID указывает на неё.
type ConflictError struct {
	EntryUUID uuid.UUID
	QueueID   uint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("водитель уже стоит в очереди %d (запись %s)", e.QueueID, e.EntryUUID)
}

// ValidationError сообщает о переходе из недопустимого состояния или о неверных входных данных.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ExpiredError возвращается, если ответ на предложение пришёл после истечения срока.
type ExpiredError struct {
	NotificationUUID uuid.UUID
	ExpiredAt        time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("срок предложения %s истёк в %s", e.NotificationUUID, e.ExpiredAt.Format(time.RFC3339))
}

// NotFoundError сообщает, что очередь, запись, уведомление или водитель не найдены.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s не найден(а)", e.Kind, e.ID)
}

// ExternalDispatchError описывает неудачную доставку уведомления. Переход состояния при этом не откатывается.
type ExternalDispatchError struct {
	ChauffeurID uint
	EntryUUID   uuid.UUID
	Err         error
}

func (e *ExternalDispatchError) Error() string {
	return fmt.Sprintf("доставка уведомления водителю %d: %v", e.ChauffeurID, e.Err)
}

func (e *ExternalDispatchError) Unwrap() error {
	return e.Err
}

func notFound(kind string, id interface{}) error {
	return &NotFoundError{Kind: kind, ID: fmt.Sprint(id)}
}

// lookupErr превращает gorm.ErrRecordNotFound в NotFoundError.
func lookupErr(err error, kind string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(kind, id)
	}
	return fmt.Errorf("загрузка %s %v: %w", kind, id, err)
}

func transitionErr(err error) error {
	var te *models.TransitionError
	if errors.As(err, &te) {
		return &ValidationError{Reason: te.Error()}
	}
	return err
}
