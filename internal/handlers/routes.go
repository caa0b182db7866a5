package handlers

import (
	"taxi_buffer/internal/auth"
	"taxi_buffer/internal/ws"

	"github.com/gin-gonic/gin"
)

// Routes регистрирует маршруты API. hub может быть nil, тогда WebSocket-маршруты не подключаются.
func (h *Handler) Routes(r *gin.Engine, hub *ws.Hub) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
	}

	api := r.Group("/api")

	chauffeurs := api.Group("/chauffeurs")
	{
		chauffeurs.POST("/identify", h.IdentifyHandler)
	}

	queues := api.Group("/queues")
	{
		queues.GET("", h.ActiveQueuesHandler)
		queues.POST("/:id/join", h.JoinQueueHandler)
	}

	entries := api.Group("/entries")
	{
		entries.GET("/:uuid", h.EntryStatusHandler)
		entries.POST("/:uuid/leave", h.LeaveQueueHandler)
	}

	api.POST("/notifications/:uuid/respond", h.RespondHandler)

	api.POST("/sensors/readings", auth.SensorAuthMiddleware(h.Sensors), h.SensorReadingHandler)

	officer := api.Group("/officer", auth.AuthMiddleware(h.JWTSecret))
	{
		officer.GET("/queues/:id", h.QueueSnapshotHandler)
		officer.GET("/queues/:id/stats", h.QueueStatsHandler)
		officer.POST("/queues/:id/notify", h.ManualNotifyHandler)
		officer.POST("/poll", h.PollHandler)
	}

	if hub != nil {
		chauffeurs.GET("/:id/ws", hub.ChauffeurWebSocketHandler)
		queues.GET("/:id/ws", hub.QueueWebSocketHandler)
	}
}
