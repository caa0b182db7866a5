package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taxi_buffer/internal/sensors"
	"taxi_buffer/internal/testsupport"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func officerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"officer_id": c.GetUint("officerID")})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := officerRouter()

	token, err := GenerateToken(5, time.Hour, secret)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"officer_id":5}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := GenerateToken(5, -time.Minute, secret)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	foreign, err := GenerateToken(5, time.Hour, []byte("other"))
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSensorAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testsupport.NewDB(t)
	svc := sensors.NewService(db, nil)
	_, err := svc.CreateApiKey(context.Background(), "vendor", "vendor-key-1", "")
	require.NoError(t, err)

	r := gin.New()
	r.POST("/readings", SensorAuthMiddleware(svc), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("apiKeyLabel"))
	})

	send := func(setup func(*http.Request)) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/readings", nil)
		setup(req)
		r.ServeHTTP(w, req)
		return w
	}

	w := send(func(req *http.Request) { req.SetBasicAuth("vendor", "vendor-key-1") })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vendor", w.Body.String())

	w = send(func(req *http.Request) {
		req.Header.Set("Authorization", "vendor-key-1")
		req.Header.Set("label", "vendor")
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(func(req *http.Request) { req.SetBasicAuth("vendor", "wrong") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(func(req *http.Request) { req.Header.Set("Authorization", "Basic !!!") })
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(func(*http.Request) {})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOfficerCredentials(t *testing.T) {
	db := testsupport.NewDB(t)
	ctx := context.Background()

	created, err := CreateOfficer(ctx, db, "inspector", "hunter22")
	require.NoError(t, err)

	got, err := CheckOfficer(ctx, db, "inspector", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = CheckOfficer(ctx, db, "inspector", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = CheckOfficer(ctx, db, "ghost", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = CreateOfficer(ctx, db, "short", "123")
	assert.Error(t, err)
}
