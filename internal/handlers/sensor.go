package handlers

import (
	"net/http"

	"taxi_buffer/internal/response"
	"taxi_buffer/internal/sensors"

	"github.com/gin-gonic/gin"
)

type SensorInfo struct {
	SerialNumber string `json:"serial_number" binding:"required"`
}

type SensorReadingRequest struct {
	SensorInfo SensorInfo `json:"sensor_info" binding:"required"`
	Status     string     `json:"status" example:"FREE"`
	Timestamp  string     `json:"timestamp" example:"2025-03-01 08:00:05"`
}

type SensorReadingResponse struct {
	Status sensors.Result `json:"status" example:"success"`
}

// SensorReadingHandler принимает показание датчика
// @Summary		Показание датчика
// @Description	Сохраняет показание; повтор того же статуса в ту же минуту не сохраняется (no_change)
// @Tags			sensors
// @Accept			json
// @Produce		json
// @Param			reading	body		SensorReadingRequest	true	"Показание"
// @Security		BasicAuth
// @Success		200		{object}	SensorReadingResponse	"success или no_change"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, INVALID_BASIC_AUTH)"
// @Failure		401		{object}	response.ErrorResponse	"Неверный ключ (NO_AUTH_HEADER, INVALID_API_KEY)"
// @Failure		404		{object}	response.ErrorResponse	"Датчик не найден (NOT_FOUND)"
// @Router			/api/sensors/readings [post]
func (h *Handler) SensorReadingHandler(c *gin.Context) {
	var req SensorReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.Sensors.Ingest(c.Request.Context(), sensors.Reading{
		Serial:    req.SensorInfo.SerialNumber,
		Status:    req.Status,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, SensorReadingResponse{Status: result})
}
