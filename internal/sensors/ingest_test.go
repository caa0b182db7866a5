package sensors

import (
	"context"
	"testing"
	"time"

	"taxi_buffer/internal/models"
	"taxi_buffer/internal/queue"
	"taxi_buffer/internal/testsupport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStatus(t *testing.T) {
	for _, s := range []string{"FREE", "free", " Vacant ", "EMPTY", "open"} {
		assert.False(t, MapStatus(s), s)
	}
	for _, s := range []string{"BUSY", "OCCUPIED", "NOT_CALIBRATED", "UNKNOWN", "N/A", "", "garbage"} {
		assert.True(t, MapStatus(s), s)
	}
}

func TestParseTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	got := ParseTimestamp("2025-03-01 10:15:42", now)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 15, 42, 0, time.UTC), got)

	got = ParseTimestamp("2025-03-01T11:15:42+01:00", now)
	assert.True(t, got.Equal(time.Date(2025, 3, 1, 10, 15, 42, 0, time.UTC)))

	assert.Equal(t, now, ParseTimestamp("", now))
	assert.Equal(t, now, ParseTimestamp("вчера", now))
}

func TestIngestDeduplicatesSameMinute(t *testing.T) {
	db := testsupport.NewDB(t)
	clock := testsupport.NewClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	_, pickup := testsupport.Zone(t, db)
	sensor := testsupport.Sensor(t, db, pickup.ID, "SN-001")
	svc := NewService(db, clock.Now)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, Reading{Serial: "SN-001", Status: "FREE", Timestamp: "2025-03-01 08:00:05"})
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, res)

	res, err = svc.Ingest(ctx, Reading{Serial: "SN-001", Status: "FREE", Timestamp: "2025-03-01 08:00:50"})
	require.NoError(t, err)
	assert.Equal(t, ResultNoChange, res)

	res, err = svc.Ingest(ctx, Reading{Serial: "SN-001", Status: "BUSY", Timestamp: "2025-03-01 08:00:55"})
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, res, "смена статуса в ту же минуту сохраняется")

	res, err = svc.Ingest(ctx, Reading{Serial: "SN-001", Status: "BUSY", Timestamp: "2025-03-01 08:01:02"})
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, res, "следующая минута")

	var count int64
	require.NoError(t, db.Model(&models.SensorReading{}).Where("sensor_id = ?", sensor.ID).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestIngestDuplicateDoesNotChangeFreeCount(t *testing.T) {
	db := testsupport.NewDB(t)
	clock := testsupport.NewClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	_, pickup := testsupport.Zone(t, db)
	sensor := testsupport.Sensor(t, db, pickup.ID, "SN-002")
	svc := NewService(db, clock.Now)
	adapter := NewAdapter(db, nil, nil)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, Reading{Serial: "SN-002", Status: "FREE"})
	require.NoError(t, err)
	free, err := adapter.FreeCount(ctx, []models.Sensor{sensor})
	require.NoError(t, err)
	assert.Equal(t, 1, free)

	res, err := svc.Ingest(ctx, Reading{Serial: "SN-002", Status: "FREE"})
	require.NoError(t, err)
	assert.Equal(t, ResultNoChange, res)
	free, err = adapter.FreeCount(ctx, []models.Sensor{sensor})
	require.NoError(t, err)
	assert.Equal(t, 1, free)
}

func TestIngestUnknownOrInactiveSensor(t *testing.T) {
	db := testsupport.NewDB(t)
	_, pickup := testsupport.Zone(t, db)
	sensor := testsupport.Sensor(t, db, pickup.ID, "SN-003")
	require.NoError(t, db.Model(&sensor).Update("active", false).Error)
	svc := NewService(db, nil)

	var notFound *queue.NotFoundError
	_, err := svc.Ingest(context.Background(), Reading{Serial: "SN-003", Status: "FREE"})
	assert.ErrorAs(t, err, &notFound)

	_, err = svc.Ingest(context.Background(), Reading{Serial: "missing", Status: "FREE"})
	assert.ErrorAs(t, err, &notFound)

	var invalid *queue.ValidationError
	_, err = svc.Ingest(context.Background(), Reading{Status: "FREE"})
	assert.ErrorAs(t, err, &invalid)
}

func TestAuthenticate(t *testing.T) {
	db := testsupport.NewDB(t)
	clock := testsupport.NewClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := NewService(db, clock.Now)
	ctx := context.Background()

	key, err := svc.CreateApiKey(ctx, "parking-vendor", "s3cret-key", "основной поставщик")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-key", key.KeyHash)

	got, err := svc.Authenticate(ctx, "parking-vendor", "s3cret-key")
	require.NoError(t, err)
	assert.Equal(t, key.ID, got.ID)

	_, err = svc.Authenticate(ctx, "parking-vendor", "wrong-key")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "s3cret-key")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	expires := clock.Now().Add(time.Hour)
	require.NoError(t, db.Model(key).Update("expires_at", expires).Error)
	_, err = svc.Authenticate(ctx, "parking-vendor", "s3cret-key")
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)
	_, err = svc.Authenticate(ctx, "parking-vendor", "s3cret-key")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "просроченный ключ")

	require.NoError(t, db.Model(key).Updates(map[string]interface{}{"expires_at": nil, "active": false}).Error)
	_, err = svc.Authenticate(ctx, "parking-vendor", "s3cret-key")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "отключённый ключ")
}
