package main

import (
	"context"
	"log"

	_ "taxi_buffer/docs"
	"taxi_buffer/internal/config"
	"taxi_buffer/internal/handlers"
	"taxi_buffer/internal/queue"
	"taxi_buffer/internal/sensors"
	"taxi_buffer/internal/storage"
	"taxi_buffer/internal/tasks"
	"taxi_buffer/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						Очередь такси буферной зоны
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @securityDefinitions.basic	BasicAuth
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Ошибка конфигурации: ", err)
	}

	db, err := storage.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal("Ошибка подключения к базе данных: ", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}

	freeCounts, err := storage.NewFreeCountStore(cfg)
	if err != nil {
		log.Fatal("Ошибка подключения к Redis: ", err)
	}

	ctx := context.Background()
	hub := ws.NewHub()
	go hub.Run(ctx)

	queues := queue.NewService(db, hub,
		queue.WithEvents(hub),
		queue.WithMessageURL(cfg.DispatchBaseURL),
	)
	sensorSvc := sensors.NewService(db, nil)
	adapter := sensors.NewAdapter(db, freeCounts, queues)

	if _, err := tasks.InitScheduler(cfg, tasks.Jobs{
		Queues:  queues,
		Sweeper: tasks.NewSweeper(queues),
		Adapter: adapter,
	}); err != nil {
		log.Fatal("Ошибка запуска cron-задач: ", err)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "label"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h := &handlers.Handler{
		DB:        db,
		Queues:    queues,
		Sensors:   sensorSvc,
		Adapter:   adapter,
		JWTSecret: cfg.JWTAccessSecret,
		TokenTTL:  cfg.AccessTokenTTL,
	}
	h.Routes(r, hub)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("Ошибка запуска сервера...", err.Error())
	}
}
