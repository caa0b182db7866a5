package sensors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"taxi_buffer/internal/models"
	"taxi_buffer/internal/queue"
	"taxi_buffer/internal/storage"
	"taxi_buffer/internal/testsupport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type adapterEnv struct {
	db      *gorm.DB
	clock   *testsupport.Clock
	ingest  *Service
	queues  *queue.Service
	cache   *storage.MemoryFreeCounts
	adapter *Adapter
	pickup  models.PickupZone
	sensors []models.Sensor
}

func newAdapterEnv(t *testing.T, sensorCount int) *adapterEnv {
	t.Helper()
	db := testsupport.NewDB(t)
	clock := testsupport.NewClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	_, pickup := testsupport.Zone(t, db)
	env := &adapterEnv{
		db:     db,
		clock:  clock,
		ingest: NewService(db, clock.Now),
		queues: queue.NewService(db, nil, queue.WithClock(clock.Now)),
		cache:  storage.NewMemoryFreeCounts(),
		pickup: pickup,
	}
	env.adapter = NewAdapter(db, env.cache, env.queues)
	for i := 0; i < sensorCount; i++ {
		env.sensors = append(env.sensors, testsupport.Sensor(t, db, pickup.ID, fmt.Sprintf("SN-%d-%d", pickup.ID, i)))
	}
	return env
}

func (e *adapterEnv) report(t *testing.T, serial, status string) {
	t.Helper()
	_, err := e.ingest.Ingest(context.Background(), Reading{Serial: serial, Status: status})
	require.NoError(t, err)
}

func (e *adapterEnv) fill(t *testing.T, q models.TaxiQueue, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		c := testsupport.Chauffeur(t, e.db, models.VehicleCar)
		_, err := e.queues.Enqueue(context.Background(), queue.EnqueueRequest{QueueID: q.ID, ChauffeurID: c.ID})
		require.NoError(t, err)
		e.clock.Advance(time.Second)
	}
}

func (e *adapterEnv) notifiedIn(t *testing.T, queueID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.QueueEntry{}).
		Where("queue_id = ? AND status = ?", queueID, models.EntryNotified).Count(&n).Error)
	return n
}

func TestPollDistributesFreeSlotsAcrossQueues(t *testing.T) {
	env := newAdapterEnv(t, 3)
	ctx := context.Background()
	q1 := testsupport.Queue(t, env.db, env.pickup.ID, 2)
	q2 := testsupport.Queue(t, env.db, env.pickup.ID, 2)
	env.fill(t, q1, 1)
	env.fill(t, q2, 3)

	for _, s := range env.sensors {
		env.report(t, s.SerialNumber, "BUSY")
	}
	reports, err := env.adapter.Poll(ctx, PollOptions{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 0, reports[0].Free)
	assert.True(t, reports[0].Changed, "первое наблюдение зоны")
	assert.Zero(t, reports[0].Notified)

	env.clock.Advance(time.Minute)
	env.report(t, env.sensors[0].SerialNumber, "FREE")
	env.report(t, env.sensors[1].SerialNumber, "FREE")

	reports, err = env.adapter.Poll(ctx, PollOptions{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 2, reports[0].Free)
	require.NotNil(t, reports[0].Previous)
	assert.Equal(t, 0, *reports[0].Previous)
	assert.Equal(t, 2, reports[0].Notified)
	assert.EqualValues(t, 1, env.notifiedIn(t, q1.ID), "первая очередь получает сколько может")
	assert.EqualValues(t, 1, env.notifiedIn(t, q2.ID), "остаток бюджета переходит ко второй")

	cached, found, err := env.cache.Get(ctx, env.pickup.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, cached)

	reports, err = env.adapter.Poll(ctx, PollOptions{})
	require.NoError(t, err)
	assert.False(t, reports[0].Changed)
	assert.Zero(t, reports[0].Notified)
	assert.EqualValues(t, 1, env.notifiedIn(t, q2.ID))
}

func TestPollTreatsSilentSensorsAsOccupied(t *testing.T) {
	env := newAdapterEnv(t, 3)
	q := testsupport.Queue(t, env.db, env.pickup.ID, 2)
	env.fill(t, q, 3)
	env.report(t, env.sensors[0].SerialNumber, "FREE")

	reports, err := env.adapter.Poll(context.Background(), PollOptions{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Free)
	assert.Equal(t, 1, reports[0].Notified)
}

func TestPollDryRunChangesNothing(t *testing.T) {
	env := newAdapterEnv(t, 2)
	q := testsupport.Queue(t, env.db, env.pickup.ID, 2)
	env.fill(t, q, 2)
	env.report(t, env.sensors[0].SerialNumber, "FREE")

	reports, err := env.adapter.Poll(context.Background(), PollOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Changed)
	assert.Zero(t, reports[0].Notified)
	assert.Zero(t, env.notifiedIn(t, q.ID))

	_, found, err := env.cache.Get(context.Background(), env.pickup.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPollFilters(t *testing.T) {
	env := newAdapterEnv(t, 2)
	ctx := context.Background()
	q := testsupport.Queue(t, env.db, env.pickup.ID, 2)
	env.fill(t, q, 2)
	for _, s := range env.sensors {
		env.report(t, s.SerialNumber, "FREE")
	}

	reports, err := env.adapter.Poll(ctx, PollOptions{ZoneID: env.pickup.ID + 100})
	require.NoError(t, err)
	assert.Empty(t, reports)

	reports, err = env.adapter.Poll(ctx, PollOptions{Serials: []string{env.sensors[0].SerialNumber}, DryRun: true})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Sensors)
	assert.Equal(t, 1, reports[0].Free)
}

func TestPollSkipsZoneWithoutQueues(t *testing.T) {
	env := newAdapterEnv(t, 1)
	env.report(t, env.sensors[0].SerialNumber, "FREE")

	reports, err := env.adapter.Poll(context.Background(), PollOptions{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Changed)

	_, found, _ := env.cache.Get(context.Background(), env.pickup.ID)
	assert.False(t, found)
}

type failingNotifier struct {
	failQueue uint
	inner     Notifier
	calls     []uint
}

func (f *failingNotifier) Notify(ctx context.Context, queueID uint, n int) (*queue.NotifyResult, error) {
	f.calls = append(f.calls, queueID)
	if queueID == f.failQueue {
		return nil, errors.New("очередь недоступна")
	}
	return f.inner.Notify(ctx, queueID, n)
}

func TestPollContinuesAfterQueueFailure(t *testing.T) {
	env := newAdapterEnv(t, 1)
	q1 := testsupport.Queue(t, env.db, env.pickup.ID, 2)
	q2 := testsupport.Queue(t, env.db, env.pickup.ID, 2)
	env.fill(t, q2, 1)
	env.report(t, env.sensors[0].SerialNumber, "FREE")

	notifier := &failingNotifier{failQueue: q1.ID, inner: env.queues}
	adapter := NewAdapter(env.db, env.cache, notifier)

	reports, err := adapter.Poll(context.Background(), PollOptions{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, []uint{q1.ID, q2.ID}, notifier.calls)
	assert.Equal(t, 1, reports[0].Notified)
	assert.EqualValues(t, 1, env.notifiedIn(t, q2.ID))
}
