package tasks

import (
	"context"
	"errors"
	"log"
	"time"

	"taxi_buffer/internal/config"
	"taxi_buffer/internal/queue"
	"taxi_buffer/internal/sensors"

	"github.com/robfig/cron/v3"
)

// OfferQueue описывает операции очереди, которые нужны чистильщику.
type OfferQueue interface {
	Now() time.Time
	PendingOffers(ctx context.Context) ([]queue.PendingOffer, error)
	ExpireNotification(ctx context.Context, notificationID uint) (*queue.ExpireResult, error)
	WaitingCount(ctx context.Context, queueID uint) (int64, error)
	Notify(ctx context.Context, queueID uint, n int) (*queue.NotifyResult, error)
}

// Sweeper закрывает просроченные предложения и передаёт освободившееся место следующему.
type Sweeper struct {
	queues OfferQueue
}

func NewSweeper(queues OfferQueue) *Sweeper {
	return &Sweeper{queues: queues}
}

type SweepReport struct {
	Scanned   int
	Expired   int
	Reoffered int
	Failed    int
}

// Run выполняет один проход. Ошибка по одному предложению не останавливает остальные:
// оно остаётся pending и будет подобрано следующим проходом.
func (s *Sweeper) Run(ctx context.Context) (*SweepReport, error) {
	offers, err := s.queues.PendingOffers(ctx)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Scanned: len(offers)}
	now := s.queues.Now()
	for _, o := range offers {
		if !now.After(o.ExpiresAt()) {
			continue
		}

		res, err := s.queues.ExpireNotification(ctx, o.NotificationID)
		if err != nil {
			log.Printf("Ошибка закрытия просроченного уведомления %d: %v", o.NotificationID, err)
			report.Failed++
			continue
		}
		if !res.Expired {
			continue
		}
		report.Expired++

		waiting, err := s.queues.WaitingCount(ctx, res.QueueID)
		if err != nil {
			log.Printf("Ошибка подсчёта ожидающих в очереди %d: %v", res.QueueID, err)
			report.Failed++
			continue
		}
		if waiting == 0 {
			log.Printf("Очередь %d: ожидающих нет, место возвращается зоне", res.QueueID)
			continue
		}

		// Просроченная запись уже в статусе timeout, повторно ей место не предлагается.
		next, err := s.queues.Notify(ctx, res.QueueID, 1)
		var invalid *queue.ValidationError
		if errors.As(err, &invalid) {
			log.Printf("Очередь %d: место не передаётся: %v", res.QueueID, err)
			continue
		}
		if err != nil {
			log.Printf("Ошибка повторного вызова в очереди %d: %v", res.QueueID, err)
			report.Failed++
			continue
		}
		report.Reoffered += next.Notified
	}

	if report.Expired > 0 || report.Failed > 0 {
		log.Printf("Проход по уведомлениям: просмотрено %d, истекло %d, передано %d, ошибок %d",
			report.Scanned, report.Expired, report.Reoffered, report.Failed)
	}
	return report, nil
}

// CleanTerminalEntries удаляет завершённые записи старше retention.
func CleanTerminalEntries(ctx context.Context, queues *queue.Service, retention time.Duration) {
	purged, err := queues.PurgeTerminal(ctx, queues.Now().Add(-retention))
	if err != nil {
		log.Println("Ошибка при удалении завершённых записей:", err)
		return
	}
	log.Printf("Удалено завершённых записей: %d", purged)
}

// Jobs собирает зависимости периодических задач.
type Jobs struct {
	Queues  *queue.Service
	Sweeper *Sweeper
	Adapter *sensors.Adapter
}

// InitScheduler инициализирует планировщик cron-задач.
// Запуск задачи пропускается, если предыдущий ещё не завершился.
func InitScheduler(cfg *config.Config, jobs Jobs) (*cron.Cron, error) {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	if _, err := c.AddFunc(cfg.SweepSpec, func() {
		if _, err := jobs.Sweeper.Run(context.Background()); err != nil {
			log.Println("Ошибка прохода по уведомлениям:", err)
		}
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(cfg.SlotPollSpec, func() {
		if _, err := jobs.Adapter.Poll(context.Background(), sensors.PollOptions{}); err != nil {
			log.Println("Ошибка опроса датчиков:", err)
		}
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(cfg.CleanupSpec, func() {
		CleanTerminalEntries(context.Background(), jobs.Queues, cfg.TerminalRetention)
	}); err != nil {
		return nil, err
	}

	c.Start()
	log.Println("Cron-планировщик запущен.")
	return c, nil
}
