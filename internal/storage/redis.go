package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"taxi_buffer/internal/config"

	"github.com/go-redis/redis/v8"
)

// FreeCountPrefix задаёт префикс ключей кэша числа свободных мест по зонам посадки.
const FreeCountPrefix = "pickup_zone_free_count_v1"

func InitRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

type freeCountValue struct {
	Free int       `json:"free"`
	TS   time.Time `json:"ts"`
}

// RedisFreeCounts хранит последнее вычисленное число свободных мест по зонам.
// Может разделяться несколькими экземплярами опросчика.
type RedisFreeCounts struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisFreeCounts(client *redis.Client) *RedisFreeCounts {
	return &RedisFreeCounts{client: client, now: time.Now}
}

func freeCountKey(zoneID uint) string {
	return fmt.Sprintf("%s:%d", FreeCountPrefix, zoneID)
}

// Swap атомарно (GETSET) записывает новое значение и возвращает предыдущее.
// found=false, если значения ещё не было.
func (r *RedisFreeCounts) Swap(ctx context.Context, zoneID uint, free int) (int, bool, error) {
	payload, err := json.Marshal(freeCountValue{Free: free, TS: r.now().UTC()})
	if err != nil {
		return 0, false, err
	}

	prev, err := r.client.GetSet(ctx, freeCountKey(zoneID), payload).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis getset: %w", err)
	}

	var old freeCountValue
	if err := json.Unmarshal([]byte(prev), &old); err != nil {
		// Испорченное значение считаем отсутствующим.
		return 0, false, nil
	}
	return old.Free, true, nil
}

// Get возвращает закэшированное значение без изменения.
func (r *RedisFreeCounts) Get(ctx context.Context, zoneID uint) (int, bool, error) {
	raw, err := r.client.Get(ctx, freeCountKey(zoneID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var v freeCountValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return 0, false, nil
	}
	return v.Free, true, nil
}

// FreeCountStore хранит число свободных мест, общее для опросчиков.
type FreeCountStore interface {
	Swap(ctx context.Context, zoneID uint, free int) (int, bool, error)
	Get(ctx context.Context, zoneID uint) (int, bool, error)
}

// NewFreeCountStore выбирает хранилище по FREE_COUNT_STORE. Для redis проверяет соединение.
func NewFreeCountStore(cfg *config.Config) (FreeCountStore, error) {
	if cfg.FreeCountStore == "memory" {
		log.Println("Кэш свободных мест хранится в памяти процесса")
		return NewMemoryFreeCounts(), nil
	}
	client := InitRedis(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	log.Println("Подключение к Redis успешно")
	return NewRedisFreeCounts(client), nil
}
