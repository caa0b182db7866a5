package sensors

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"taxi_buffer/internal/models"
	"taxi_buffer/internal/queue"

	"gorm.io/gorm"
)

// FreeCountCache хранит последнего числа свободных мест по зонам.
// Swap должен атомарно записать новое значение и вернуть предыдущее.
type FreeCountCache interface {
	Swap(ctx context.Context, zoneID uint, free int) (prev int, found bool, err error)
	Get(ctx context.Context, zoneID uint) (free int, found bool, err error)
}

// Notifier вызывает водителей очереди.
type Notifier interface {
	Notify(ctx context.Context, queueID uint, n int) (*queue.NotifyResult, error)
}

// Adapter пересчитывает свободные места по последним показаниям датчиков
// и при изменении раздаёт их очередям зоны.
type Adapter struct {
	db       *gorm.DB
	cache    FreeCountCache
	notifier Notifier
}

func NewAdapter(db *gorm.DB, cache FreeCountCache, notifier Notifier) *Adapter {
	return &Adapter{db: db, cache: cache, notifier: notifier}
}

type PollOptions struct {
	ZoneID  uint
	Serials []string
	// DryRun только считает и пишет в лог: ни вызовов, ни обновления кэша.
	DryRun bool
}

type ZoneReport struct {
	ZoneID   uint `json:"zone_id"`
	Sensors  int  `json:"sensors"`
	Free     int  `json:"free"`
	Previous *int `json:"previous,omitempty"`
	Changed  bool `json:"changed"`
	Notified int  `json:"notified"`
	Queues   int  `json:"queues"`
}

// Poll выполняет один цикл опроса. Ошибка по одной зоне или очереди пишется в лог
// и не прерывает обработку остальных.
func (a *Adapter) Poll(ctx context.Context, opts PollOptions) ([]ZoneReport, error) {
	query := a.db.WithContext(ctx).Where("active = ?", true)
	if opts.ZoneID != 0 {
		query = query.Where("pickup_zone_id = ?", opts.ZoneID)
	}
	if len(opts.Serials) > 0 {
		query = query.Where("serial_number IN ?", opts.Serials)
	}
	var sensors []models.Sensor
	if err := query.Order("id ASC").Find(&sensors).Error; err != nil {
		return nil, fmt.Errorf("выборка датчиков: %w", err)
	}
	if len(sensors) == 0 {
		log.Println("Нет активных датчиков для заданных фильтров")
		return nil, nil
	}

	zones := make(map[uint][]models.Sensor)
	for _, s := range sensors {
		zones[s.PickupZoneID] = append(zones[s.PickupZoneID], s)
	}
	zoneIDs := make([]uint, 0, len(zones))
	for id := range zones {
		zoneIDs = append(zoneIDs, id)
	}
	sort.Slice(zoneIDs, func(i, j int) bool { return zoneIDs[i] < zoneIDs[j] })

	reports := make([]ZoneReport, 0, len(zoneIDs))
	for _, zoneID := range zoneIDs {
		report, err := a.pollZone(ctx, zoneID, zones[zoneID], opts.DryRun)
		if err != nil {
			log.Printf("Ошибка опроса зоны %d: %v", zoneID, err)
			continue
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

func (a *Adapter) pollZone(ctx context.Context, zoneID uint, sensors []models.Sensor, dryRun bool) (*ZoneReport, error) {
	report := &ZoneReport{ZoneID: zoneID, Sensors: len(sensors)}

	free, err := a.FreeCount(ctx, sensors)
	if err != nil {
		return nil, err
	}
	report.Free = free

	var queues []models.TaxiQueue
	if err := a.db.WithContext(ctx).
		Where("pickup_zone_id = ? AND active = ?", zoneID, true).
		Order("id ASC").Find(&queues).Error; err != nil {
		return nil, fmt.Errorf("очереди зоны: %w", err)
	}
	report.Queues = len(queues)
	if len(queues) == 0 {
		log.Printf("Зона %d: нет активных очередей, пропуск", zoneID)
		return report, nil
	}

	var prev int
	var found bool
	if dryRun {
		prev, found, err = a.cache.Get(ctx, zoneID)
	} else {
		prev, found, err = a.cache.Swap(ctx, zoneID, free)
	}
	if err != nil {
		return nil, fmt.Errorf("кэш свободных мест: %w", err)
	}
	if found {
		report.Previous = &prev
	}
	if found && prev == free {
		log.Printf("Зона %d: число свободных мест не изменилось (%d)", zoneID, free)
		return report, nil
	}
	report.Changed = true

	if dryRun {
		if found {
			log.Printf("[dry-run] Зона %d: свободно %d, было %d, вызов не выполняется", zoneID, free, prev)
		} else {
			log.Printf("[dry-run] Зона %d: свободно %d, первое наблюдение, вызов не выполняется", zoneID, free)
		}
		return report, nil
	}

	remaining := free
	for _, q := range queues {
		if remaining <= 0 {
			break
		}
		res, err := a.notifier.Notify(ctx, q.ID, remaining)
		if err != nil {
			log.Printf("Ошибка вызова в очереди %d: %v", q.ID, err)
			continue
		}
		remaining -= res.Notified
		report.Notified += res.Notified
	}

	log.Printf("Зона %d: вызвано %d (свободно %d)", zoneID, report.Notified, free)
	return report, nil
}

// FreeCount считает датчики, последнее показание которых «свободно».
// Датчик без показаний считается занятым.
func (a *Adapter) FreeCount(ctx context.Context, sensors []models.Sensor) (int, error) {
	free := 0
	for _, s := range sensors {
		var last models.SensorReading
		err := a.db.WithContext(ctx).Where("sensor_id = ?", s.ID).
			Order("date DESC").Order("id DESC").First(&last).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("показание датчика %s: %w", s.SerialNumber, err)
		}
		if !last.Occupied {
			free++
		}
	}
	return free, nil
}
