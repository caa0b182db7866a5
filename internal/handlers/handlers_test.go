package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taxi_buffer/internal/auth"
	"taxi_buffer/internal/models"
	"taxi_buffer/internal/queue"
	"taxi_buffer/internal/response"
	"taxi_buffer/internal/sensors"
	"taxi_buffer/internal/storage"
	"taxi_buffer/internal/testsupport"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("handlers-secret")

type server struct {
	db     *gorm.DB
	clock  *testsupport.Clock
	router *gin.Engine
	queues *queue.Service
	pickup models.PickupZone
	queue  models.TaxiQueue
	token  string
}

func setupServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testsupport.NewDB(t)
	clock := testsupport.NewClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	queues := queue.NewService(db, nil, queue.WithClock(clock.Now))
	sensorSvc := sensors.NewService(db, clock.Now)

	h := &Handler{
		DB:        db,
		Queues:    queues,
		Sensors:   sensorSvc,
		Adapter:   sensors.NewAdapter(db, storage.NewMemoryFreeCounts(), queues),
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
	}
	r := gin.New()
	h.Routes(r, nil)

	_, pickup := testsupport.Zone(t, db)
	q := testsupport.Queue(t, db, pickup.ID, 2)

	officer, err := auth.CreateOfficer(context.Background(), db, "officer", "password1")
	require.NoError(t, err)
	token, err := auth.GenerateToken(officer.ID, time.Hour, testSecret)
	require.NoError(t, err)

	return &server{db: db, clock: clock, router: r, queues: queues, pickup: pickup, queue: q, token: token}
}

func (s *server) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) officer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.token}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *server) join(t *testing.T, chauffeurID uint) JoinResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, fmt.Sprintf("/api/queues/%d/join", s.queue.ID), JoinRequest{ChauffeurID: chauffeurID}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out JoinResponse
	decode(t, w, &out)
	s.clock.Advance(time.Second)
	return out
}

func TestIdentifyAndJoinFlow(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodPost, "/api/chauffeurs/identify", IdentifyRequest{
		LicensePlate: "AB-123-C", TaxiLicenseNumber: "RTX777",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var chauffeur ChauffeurResponse
	decode(t, w, &chauffeur)
	assert.Equal(t, models.VehicleCar, chauffeur.VehicleType)

	joined := s.join(t, chauffeur.ID)
	assert.Equal(t, 1, joined.Position)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/queues/%d/join", s.queue.ID), JoinRequest{ChauffeurID: chauffeur.ID}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var conflict response.ErrorResponse
	decode(t, w, &conflict)
	assert.Equal(t, "ALREADY_IN_QUEUE", conflict.Code)
	assert.Equal(t, joined.EntryUUID.String(), conflict.ExistingEntryUUID)

	w = s.do(t, http.MethodGet, "/api/queues", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []queue.QueueSummary
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, list[0].WaitingCount)

	w = s.do(t, http.MethodGet, "/api/entries/"+joined.EntryUUID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view queue.EntryView
	decode(t, w, &view)
	assert.Equal(t, models.EntryWaiting, view.Status)
	assert.Equal(t, 1, view.Position)

	w = s.do(t, http.MethodPost, "/api/entries/"+joined.EntryUUID.String()+"/leave", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/entries/"+joined.EntryUUID.String()+"/leave", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinValidation(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodPost, "/api/queues/abc/join", JoinRequest{ChauffeurID: 1}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/queues/%d/join", s.queue.ID), map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/queues/999/join", JoinRequest{ChauffeurID: 1}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/entries/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondFlow(t *testing.T) {
	s := setupServer(t)
	a := testsupport.Chauffeur(t, s.db, models.VehicleCar)
	b := testsupport.Chauffeur(t, s.db, models.VehicleCar)
	entryA := s.join(t, a.ID)
	entryB := s.join(t, b.ID)

	w := s.do(t, http.MethodPost, fmt.Sprintf("/api/officer/queues/%d/notify", s.queue.ID), NotifyRequest{Count: 1}, s.officer())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var notified NotifyResponse
	decode(t, w, &notified)
	assert.Equal(t, 1, notified.Notified)

	w = s.do(t, http.MethodGet, "/api/entries/"+entryA.EntryUUID.String(), nil, nil)
	var view queue.EntryView
	decode(t, w, &view)
	require.NotNil(t, view.Notification)
	offer := view.Notification.UUID

	w = s.do(t, http.MethodPost, "/api/notifications/"+offer.String()+"/respond", RespondRequest{Response: "maybe"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/notifications/"+offer.String()+"/respond", RespondRequest{Response: "declined"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out RespondResponse
	decode(t, w, &out)
	assert.Equal(t, models.EntryDeclined, out.Status)
	assert.Equal(t, 1, out.Reoffers)

	w = s.do(t, http.MethodGet, "/api/entries/"+entryB.EntryUUID.String(), nil, nil)
	decode(t, w, &view)
	assert.Equal(t, models.EntryNotified, view.Status)
	require.NotNil(t, view.Notification)

	s.clock.Advance(3 * time.Minute)
	w = s.do(t, http.MethodPost, "/api/notifications/"+view.Notification.UUID.String()+"/respond", RespondRequest{Response: "accepted"}, nil)
	assert.Equal(t, http.StatusGone, w.Code)
	var expired response.ErrorResponse
	decode(t, w, &expired)
	assert.Equal(t, "NOTIFICATION_EXPIRED", expired.Code)
}

func TestOfficerRoutesRequireToken(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodGet, fmt.Sprintf("/api/officer/queues/%d", s.queue.ID), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", LoginRequest{Username: "officer", Password: "password1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var token response.TokenResponse
	decode(t, w, &token)
	assert.NotEmpty(t, token.AccessToken)

	w = s.do(t, http.MethodPost, "/auth/login", LoginRequest{Username: "officer", Password: "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/officer/queues/%d", s.queue.ID), nil,
		map[string]string{"Authorization": "Bearer " + token.AccessToken})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOfficerSnapshotAndStats(t *testing.T) {
	s := setupServer(t)
	car := testsupport.Chauffeur(t, s.db, models.VehicleCar)
	van := testsupport.Chauffeur(t, s.db, models.VehicleVan)
	s.join(t, car.ID)
	vanEntry := s.join(t, van.ID)

	w := s.do(t, http.MethodPost, fmt.Sprintf("/api/officer/queues/%d/notify", s.queue.ID),
		NotifyRequest{Count: 1, VehicleType: models.VehicleVan}, s.officer())
	require.Equal(t, http.StatusOK, w.Code)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/officer/queues/%d?from=%s", s.queue.ID, from), nil, s.officer())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var snap queue.Snapshot
	decode(t, w, &snap)
	require.Len(t, snap.Waiting, 1)
	assert.Equal(t, 1, snap.Waiting[0].Position)
	require.Len(t, snap.Notified, 1)
	assert.Equal(t, vanEntry.EntryUUID, snap.Notified[0].UUID)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/officer/queues/%d?from=yesterday", s.queue.ID), nil, s.officer())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/officer/queues/%d/stats", s.queue.ID), nil, s.officer())
	require.Equal(t, http.StatusOK, w.Code)
	var stats queue.Stats
	decode(t, w, &stats)
	assert.EqualValues(t, 1, stats.Waiting)
	assert.EqualValues(t, 1, stats.Notified)
	assert.Equal(t, s.queue.Name, stats.QueueName)
}

func TestSensorReadingAndPoll(t *testing.T) {
	s := setupServer(t)
	sensorSvc := sensors.NewService(s.db, s.clock.Now)
	_, err := sensorSvc.CreateApiKey(context.Background(), "vendor", "vendor-key-1", "")
	require.NoError(t, err)
	testsupport.Sensor(t, s.db, s.pickup.ID, "SN-100")
	c := testsupport.Chauffeur(t, s.db, models.VehicleCar)
	s.join(t, c.ID)

	creds := map[string]string{"Authorization": "vendor-key-1", "label": "vendor"}
	reading := SensorReadingRequest{SensorInfo: SensorInfo{SerialNumber: "SN-100"}, Status: "FREE"}

	w := s.do(t, http.MethodPost, "/api/sensors/readings", reading, creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out SensorReadingResponse
	decode(t, w, &out)
	assert.Equal(t, sensors.ResultSuccess, out.Status)

	w = s.do(t, http.MethodPost, "/api/sensors/readings", reading, creds)
	decode(t, w, &out)
	assert.Equal(t, sensors.ResultNoChange, out.Status)

	w = s.do(t, http.MethodPost, "/api/sensors/readings",
		SensorReadingRequest{SensorInfo: SensorInfo{SerialNumber: "SN-404"}, Status: "FREE"}, creds)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/sensors/readings", reading, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/officer/poll", PollRequest{}, s.officer())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reports []sensors.ZoneReport
	decode(t, w, &reports)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Free)
	assert.Equal(t, 1, reports[0].Notified)
}
