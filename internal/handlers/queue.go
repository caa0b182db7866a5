package handlers

import (
	"net/http"

	"taxi_buffer/internal/models"
	"taxi_buffer/internal/queue"
	"taxi_buffer/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type IdentifyRequest struct {
	LicensePlate      string             `json:"license_plate" binding:"required"`
	TaxiLicenseNumber string             `json:"taxi_license_number" binding:"required"`
	VehicleType       models.VehicleType `json:"vehicle_type"`
}

type ChauffeurResponse struct {
	ID                uint               `json:"id"`
	UUID              uuid.UUID          `json:"uuid"`
	LicensePlate      string             `json:"license_plate"`
	TaxiLicenseNumber string             `json:"taxi_license_number"`
	VehicleType       models.VehicleType `json:"vehicle_type"`
}

type JoinRequest struct {
	ChauffeurID uint     `json:"chauffeur_id" binding:"required"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

type JoinResponse struct {
	Message   string    `json:"message"`
	EntryUUID uuid.UUID `json:"entry_uuid"`
	Position  int       `json:"position"`
}

type RespondRequest struct {
	Response string `json:"response" binding:"required" example:"accepted"`
}

type RespondResponse struct {
	Status   models.EntryStatus `json:"status"`
	Reoffers int                `json:"reoffered"`
}

// IdentifyHandler находит или регистрирует водителя
// @Summary		Идентификация водителя
// @Description	Находит водителя по номеру лицензии такси или регистрирует нового
// @Tags			chauffeur
// @Accept			json
// @Produce		json
// @Param			chauffeur	body		IdentifyRequest			true	"Номерной знак и лицензия"
// @Success		200			{object}	ChauffeurResponse		"Водитель"
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, INVALID_TRANSITION)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/chauffeurs/identify [post]
func (h *Handler) IdentifyHandler(c *gin.Context) {
	var req IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	chauffeur, err := h.Queues.Identify(c.Request.Context(), req.LicensePlate, req.TaxiLicenseNumber, req.VehicleType)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChauffeurResponse{
		ID:                chauffeur.ID,
		UUID:              chauffeur.UUID,
		LicensePlate:      chauffeur.LicensePlate,
		TaxiLicenseNumber: chauffeur.TaxiLicenseNumber,
		VehicleType:       chauffeur.VehicleType,
	})
}

// ActiveQueuesHandler возвращает активные очереди
// @Summary		Список очередей
// @Description	Активные очереди с числом ожидающих водителей
// @Tags			queue
// @Produce		json
// @Success		200	{array}		queue.QueueSummary		"Очереди"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues [get]
func (h *Handler) ActiveQueuesHandler(c *gin.Context) {
	queues, err := h.Queues.ActiveQueues(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, queues)
}

// JoinQueueHandler обрабатывает запрос на вступление в очередь
// @Summary		Вступление в очередь
// @Description	Ставит водителя в конец очереди буферной зоны
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		int						true	"ID очереди"
// @Param			body	body		JoinRequest				true	"Водитель и его координаты"
// @Success		201		{object}	JoinResponse			"Запись и позиция в очереди"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (INVALID_ID, VALIDATION_ERROR, INVALID_TRANSITION)"
// @Failure		404		{object}	response.ErrorResponse	"Очередь или водитель не найдены (NOT_FOUND)"
// @Failure		409		{object}	response.ErrorResponse	"Водитель уже стоит в очереди (ALREADY_IN_QUEUE)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/{id}/join [post]
func (h *Handler) JoinQueueHandler(c *gin.Context) {
	queueID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	enq := queue.EnqueueRequest{QueueID: queueID, ChauffeurID: req.ChauffeurID}
	if req.Lat != nil && req.Lon != nil {
		enq.Location = &queue.Location{Lat: *req.Lat, Lon: *req.Lon}
	}
	res, err := h.Queues.Enqueue(c.Request.Context(), enq)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, JoinResponse{
		Message:   "Вступление в очередь прошло успешно",
		EntryUUID: res.Entry.UUID,
		Position:  res.Position,
	})
}

// EntryStatusHandler возвращает состояние записи
// @Summary		Статус записи
// @Description	Статус, позиция в очереди и ожидающее ответа предложение, если есть
// @Tags			queue
// @Produce		json
// @Param			uuid	path		string					true	"UUID записи"
// @Success		200		{object}	queue.EntryView			"Состояние записи"
// @Failure		400		{object}	response.ErrorResponse	"Неверный идентификатор (INVALID_ID)"
// @Failure		404		{object}	response.ErrorResponse	"Запись не найдена (NOT_FOUND)"
// @Router			/api/entries/{uuid} [get]
func (h *Handler) EntryStatusHandler(c *gin.Context) {
	id, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	view, err := h.Queues.EntryStatus(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// LeaveQueueHandler обрабатывает запрос на выход из очереди
// @Summary		Выход из очереди
// @Description	Водитель покидает очередь; ожидающее предложение закрывается и передаётся следующему
// @Tags			queue
// @Produce		json
// @Param			uuid	path		string					true	"UUID записи"
// @Success		200		{object}	response.SuccessResponse	"Выход выполнен"
// @Failure		400		{object}	response.ErrorResponse	"Запись уже завершена (INVALID_TRANSITION)"
// @Failure		404		{object}	response.ErrorResponse	"Запись не найдена (NOT_FOUND)"
// @Router			/api/entries/{uuid}/leave [post]
func (h *Handler) LeaveQueueHandler(c *gin.Context) {
	id, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	if _, err := h.Queues.Leave(c.Request.Context(), id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Вы покинули очередь"})
}

// RespondHandler принимает ответ водителя на предложение места
// @Summary		Ответ на предложение
// @Description	accepted: водитель едет в зону посадки; declined: место передаётся следующему
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			uuid	path		string					true	"UUID уведомления"
// @Param			body	body		RespondRequest			true	"Ответ"
// @Success		200		{object}	RespondResponse			"Новый статус записи"
// @Failure		400		{object}	response.ErrorResponse	"Недопустимый ответ (VALIDATION_ERROR, INVALID_TRANSITION)"
// @Failure		404		{object}	response.ErrorResponse	"Уведомление не найдено (NOT_FOUND)"
// @Failure		410		{object}	response.ErrorResponse	"Срок предложения истёк (NOTIFICATION_EXPIRED)"
// @Router			/api/notifications/{uuid}/respond [post]
func (h *Handler) RespondHandler(c *gin.Context) {
	id, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	outcome, ok := models.ParseResponse(req.Response)
	if !ok {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ответ должен быть accepted или declined",
		})
		return
	}

	res, err := h.Queues.Respond(c.Request.Context(), id, outcome)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	out := RespondResponse{Status: res.Entry.Status}
	if res.Reoffer != nil {
		out.Reoffers = res.Reoffer.Notified
	}
	c.JSON(http.StatusOK, out)
}
