package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taxi_buffer/internal/queue"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/queues/:id/ws", hub.QueueWebSocketHandler)
	r.GET("/chauffeurs/:id/ws", hub.ChauffeurWebSocketHandler)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestDeliverWithoutConnection(t *testing.T) {
	hub := NewHub()
	err := hub.Deliver(context.Background(), 42, queue.Message{Title: "Ваша очередь"})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestDeliverToChauffeur(t *testing.T) {
	hub, srv := setupHub(t)
	conn := dial(t, srv, "/chauffeurs/7/ws")

	require.Eventually(t, func() bool { return hub.Connected(7) }, 2*time.Second, 10*time.Millisecond)

	entry := uuid.New()
	require.NoError(t, hub.Deliver(context.Background(), 7, queue.Message{Title: "Ваша очередь", EntryUUID: entry}))

	msg := readMessage(t, conn)
	assert.Equal(t, "slot_offer", msg.EventType)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, entry.String(), data["entry_uuid"])

	assert.ErrorIs(t, hub.Deliver(context.Background(), 8, queue.Message{}), ErrNotConnected)
}

func TestBroadcastQueueEvent(t *testing.T) {
	hub, srv := setupHub(t)
	screen := dial(t, srv, "/queues/3/ws")
	other := dial(t, srv, "/queues/4/ws")

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.queues[3]) == 1 && len(hub.queues[4]) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastQueueEvent(3, "entry_joined", map[string]interface{}{"position": 1})

	msg := readMessage(t, screen)
	assert.Equal(t, "entry_joined", msg.EventType)
	assert.EqualValues(t, 3, msg.QueueID)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "событие другой очереди не приходит")
}

func TestInvalidIDRejected(t *testing.T) {
	_, srv := setupHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chauffeurs/abc/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandlersReturnAfterHubStops(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	returned := make(chan struct{}, 2)
	r := gin.New()
	r.GET("/chauffeurs/:id/ws", func(c *gin.Context) {
		hub.ChauffeurWebSocketHandler(c)
		returned <- struct{}{}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn := dial(t, srv, "/chauffeurs/5/ws")
	require.Eventually(t, func() bool { return hub.Connected(5) }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-hub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("хаб не остановился")
	}

	require.NoError(t, conn.Close())
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("обработчик завис на отписке после остановки хаба")
	}

	// Новое подключение после остановки не регистрируется и не блокирует обработчик.
	late := dial(t, srv, "/chauffeurs/6/ws")
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("обработчик завис на регистрации после остановки хаба")
	}
	assert.False(t, hub.Connected(6))
	late.Close()
}
