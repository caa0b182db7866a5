package storage

import (
	"context"
	"sync"
)

// MemoryFreeCounts держит кэш свободных мест в памяти процесса, когда Redis не настроен
// (локальный запуск на SQLite, тесты).
type MemoryFreeCounts struct {
	mu     sync.Mutex
	counts map[uint]int
}

func NewMemoryFreeCounts() *MemoryFreeCounts {
	return &MemoryFreeCounts{counts: make(map[uint]int)}
}

func (m *MemoryFreeCounts) Swap(_ context.Context, zoneID uint, free int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, found := m.counts[zoneID]
	m.counts[zoneID] = free
	return prev, found, nil
}

func (m *MemoryFreeCounts) Get(_ context.Context, zoneID uint) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, found := m.counts[zoneID]
	return v, found, nil
}
