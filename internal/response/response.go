package response

import (
	"errors"
	"log"
	"net/http"

	"taxi_buffer/internal/queue"

	"github.com/gin-gonic/gin"
)

// SuccessResponse представляет успешный ответ API
type SuccessResponse struct {
	Message string `json:"message" example:"Операция успешно выполнена"`
}

// ErrorResponse представляет ответ с ошибкой API
type ErrorResponse struct {
	// Код ошибки для программной обработки
	// example: INVALID_TRANSITION
	Code string `json:"code"`

	// Человекочитаемое сообщение об ошибке
	// example: Недопустимый переход состояния
	Message string `json:"message"`

	// Дополнительные детали об ошибке (опционально)
	// example: на уведомление уже получен ответ (accepted)
	Details string `json:"details,omitempty"`

	// Запись, в которой водитель уже стоит (только для ALREADY_IN_QUEUE)
	ExistingEntryUUID string `json:"existing_entry_uuid,omitempty"`
}

// TokenResponse представляет ответ с токеном офицера
type TokenResponse struct {
	// JWT токен для доступа к защищенным эндпоинтам
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"access_token"`
}

// WriteError переводит ошибку движка очереди в HTTP-ответ.
func WriteError(c *gin.Context, err error) {
	var (
		conflict   *queue.ConflictError
		validation *queue.ValidationError
		expired    *queue.ExpiredError
		notFound   *queue.NotFoundError
	)

	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:              "ALREADY_IN_QUEUE",
			Message:           "Водитель уже стоит в очереди",
			Details:           err.Error(),
			ExistingEntryUUID: conflict.EntryUUID.String(),
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_TRANSITION",
			Message: "Операция недопустима в текущем состоянии",
			Details: validation.Reason,
		})
	case errors.As(err, &expired):
		c.JSON(http.StatusGone, ErrorResponse{
			Code:    "NOTIFICATION_EXPIRED",
			Message: "Срок предложения истёк",
			Details: err.Error(),
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Объект не найден",
			Details: err.Error(),
		})
	default:
		log.Println("Внутренняя ошибка:", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка сервера",
		})
	}
}

// BadRequest отвечает на неразборчивый запрос.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Ошибка валидации данных",
		Details: err.Error(),
	})
}
