package handlers

import (
	"net/http"
	"strconv"
	"time"

	"taxi_buffer/internal/queue"
	"taxi_buffer/internal/response"
	"taxi_buffer/internal/sensors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecentWindow задаёт, за какой период считаются «недавно допущенные» в статистике.
const RecentWindow = 30 * time.Minute

// Handler собирает зависимости HTTP-обработчиков.
type Handler struct {
	DB        *gorm.DB
	Queues    *queue.Service
	Sensors   *sensors.Service
	Adapter   *sensors.Adapter
	JWTSecret []byte
	TokenTTL  time.Duration
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ID",
			Message: "Неверный идентификатор",
		})
		return 0, false
	}
	return uint(id), true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ID",
			Message: "Неверный идентификатор",
			Details: err.Error(),
		})
		return uuid.Nil, false
	}
	return id, true
}
