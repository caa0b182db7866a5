package handlers

import (
	"fmt"
	"net/http"
	"time"

	"taxi_buffer/internal/models"
	"taxi_buffer/internal/queue"
	"taxi_buffer/internal/response"
	"taxi_buffer/internal/sensors"

	"github.com/gin-gonic/gin"
)

type NotifyRequest struct {
	Count       int                `json:"count" example:"1"`
	VehicleType models.VehicleType `json:"vehicle_type" example:"busje"`
}

type NotifyResponse struct {
	Notified         int `json:"notified"`
	DispatchFailures int `json:"dispatch_failures"`
}

type PollRequest struct {
	PickupZoneID uint     `json:"pickup_zone_id"`
	Serials      []string `json:"serials"`
	DryRun       bool     `json:"dry_run"`
}

// window разбирает from/to (RFC3339). Без from окно начинается с местной полуночи.
func (h *Handler) window(c *gin.Context) (queue.Window, error) {
	var w queue.Window
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return w, fmt.Errorf("from: %w", err)
		}
		w.From = t
	} else {
		now := h.Queues.Now().In(time.Local)
		w.From = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return w, fmt.Errorf("to: %w", err)
		}
		w.To = t
	}
	return w, nil
}

// QueueSnapshotHandler возвращает экран офицера по очереди
// @Summary		Состояние очереди
// @Description	Ожидающие (по позиции), вызванные и последние допущенные водители за период
// @Tags			officer
// @Produce		json
// @Param			id		path		int						true	"ID очереди"
// @Param			from	query		string					false	"Начало периода (RFC3339), по умолчанию полночь"
// @Param			to		query		string					false	"Конец периода (RFC3339)"
// @Security		BearerAuth
// @Success		200		{object}	queue.Snapshot			"Состояние очереди"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (INVALID_ID, VALIDATION_ERROR)"
// @Failure		404		{object}	response.ErrorResponse	"Очередь не найдена (NOT_FOUND)"
// @Router			/api/officer/queues/{id} [get]
func (h *Handler) QueueSnapshotHandler(c *gin.Context) {
	queueID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	w, err := h.window(c)
	if err != nil {
		response.BadRequest(c, err)
		return
	}
	snap, err := h.Queues.QueueSnapshot(c.Request.Context(), queueID, w)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// QueueStatsHandler возвращает статистику очереди
// @Summary		Статистика очереди
// @Description	Ожидающие, вызванные, допущенные за последние 30 минут и среднее время ожидания
// @Tags			officer
// @Produce		json
// @Param			id	path		int						true	"ID очереди"
// @Security		BearerAuth
// @Success		200	{object}	queue.Stats				"Статистика"
// @Failure		404	{object}	response.ErrorResponse	"Очередь не найдена (NOT_FOUND)"
// @Router			/api/officer/queues/{id}/stats [get]
func (h *Handler) QueueStatsHandler(c *gin.Context) {
	queueID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	stats, err := h.Queues.Statistics(c.Request.Context(), queueID, RecentWindow)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ManualNotifyHandler вызывает водителей вручную
// @Summary		Ручной вызов
// @Description	Вызывает count первых ожидающих; если задан vehicle_type, то первых ожидающих с машиной этого типа
// @Tags			officer
// @Accept			json
// @Produce		json
// @Param			id		path		int						true	"ID очереди"
// @Param			body	body		NotifyRequest			false	"Сколько и кого вызвать"
// @Security		BearerAuth
// @Success		200		{object}	NotifyResponse			"Итог вызова"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (INVALID_ID, VALIDATION_ERROR)"
// @Failure		404		{object}	response.ErrorResponse	"Очередь не найдена (NOT_FOUND)"
// @Router			/api/officer/queues/{id}/notify [post]
func (h *Handler) ManualNotifyHandler(c *gin.Context) {
	queueID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req NotifyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err)
			return
		}
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Count < 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "count должен быть положительным",
		})
		return
	}

	var (
		res *queue.NotifyResult
		err error
	)
	if req.VehicleType != "" {
		res, err = h.Queues.NotifyVehicle(c.Request.Context(), queueID, req.Count, req.VehicleType)
	} else {
		res, err = h.Queues.Notify(c.Request.Context(), queueID, req.Count)
	}
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, NotifyResponse{Notified: res.Notified, DispatchFailures: res.DispatchFailures})
}

// PollHandler запускает один цикл опроса датчиков
// @Summary		Опрос датчиков
// @Description	Пересчитывает свободные места по зонам и вызывает водителей при изменении
// @Tags			officer
// @Accept			json
// @Produce		json
// @Param			body	body		PollRequest				false	"Фильтры опроса"
// @Security		BearerAuth
// @Success		200		{array}		sensors.ZoneReport		"Итог по зонам"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/officer/poll [post]
func (h *Handler) PollHandler(c *gin.Context) {
	var req PollRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err)
			return
		}
	}
	reports, err := h.Adapter.Poll(c.Request.Context(), sensors.PollOptions{
		ZoneID:  req.PickupZoneID,
		Serials: req.Serials,
		DryRun:  req.DryRun,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if reports == nil {
		reports = []sensors.ZoneReport{}
	}
	c.JSON(http.StatusOK, reports)
}
