package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taxi_buffer/internal/queue"
	"taxi_buffer/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	ErrNotConnected = errors.New("у водителя нет активного подключения")
	ErrSendBuffer   = errors.New("буфер отправки переполнен")
)

// WSMessage описывает сообщение, отправляемое клиентам.
type WSMessage struct {
	EventType string      `json:"event_type"`
	QueueID   uint        `json:"queue_id,omitempty"`
	Data      interface{} `json:"data"`
}

// BroadcastMessage несёт сообщение для рассылки подписчикам очереди.
type BroadcastMessage struct {
	QueueID uint
	Message []byte
}

// Hub хранит подключения: экраны офицеров по очередям и водителей по их id.
type Hub struct {
	queues     map[uint]map[*Client]bool
	chauffeurs map[uint]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan BroadcastMessage
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		queues:     make(map[uint]map[*Client]bool),
		chauffeurs: make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) group(c *Client) map[uint]map[*Client]bool {
	if c.ChauffeurID != 0 {
		return h.chauffeurs
	}
	return h.queues
}

func (c *Client) key() uint {
	if c.ChauffeurID != 0 {
		return c.ChauffeurID
	}
	return c.QueueID
}

// Run запускает цикл обработки каналов хаба. После остановки хаб новых подключений
// не принимает, а уже открытые закрываются без ожидания цикла.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			g := h.group(client)
			if g[client.key()] == nil {
				g[client.key()] = make(map[*Client]bool)
			}
			g[client.key()][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.queues[message.QueueID] {
				select {
				case client.Send <- message.Message:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove вызывается под h.mu.
func (h *Hub) remove(client *Client) {
	g := h.group(client)
	clients, ok := g[client.key()]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.Send)
		if len(clients) == 0 {
			delete(g, client.key())
		}
	}
}

// Connected сообщает, есть ли у водителя хотя бы одно подключение.
func (h *Hub) Connected(chauffeurID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.chauffeurs[chauffeurID]) > 0
}

// Deliver отправляет предложение места всем подключениям водителя.
func (h *Hub) Deliver(_ context.Context, chauffeurID uint, msg queue.Message) error {
	payload, err := json.Marshal(WSMessage{EventType: "slot_offer", Data: msg})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := h.chauffeurs[chauffeurID]
	if len(clients) == 0 {
		return ErrNotConnected
	}
	sent := 0
	for client := range clients {
		select {
		case client.Send <- payload:
			sent++
		default:
		}
	}
	if sent == 0 {
		return ErrSendBuffer
	}
	return nil
}

// BroadcastQueueEvent рассылает событие очереди подписанным экранам.
// Если хаб не успевает, событие отбрасывается: состояние всегда можно перечитать.
func (h *Hub) BroadcastQueueEvent(queueID uint, eventType string, data map[string]interface{}) {
	payload, err := json.Marshal(WSMessage{EventType: eventType, QueueID: queueID, Data: data})
	if err != nil {
		log.Println("Ошибка сериализации события очереди:", err)
		return
	}
	select {
	case h.broadcast <- BroadcastMessage{QueueID: queueID, Message: payload}:
	default:
		log.Printf("Очередь событий переполнена, событие %s очереди %d отброшено", eventType, queueID)
	}
}

// Client представляет одно подключение через WebSocket.
type Client struct {
	Hub         *Hub
	Conn        *websocket.Conn
	Send        chan []byte
	QueueID     uint
	ChauffeurID uint
}

// readPump только отслеживает разрыв соединения, входящие сообщения не обрабатываются.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump отправляет сообщения клиенту из канала Send.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Hub) serve(c *gin.Context, client *Client) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("Ошибка обновления до WebSocket:", err)
		return
	}
	client.Hub = h
	client.Conn = conn
	client.Send = make(chan []byte, 256)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ID",
			Message: "Неверный идентификатор",
		})
		return 0, false
	}
	return uint(id), true
}

// QueueWebSocketHandler подписывает экран офицера на события очереди.
// URL-пример: /api/queues/{id}/ws
func (h *Hub) QueueWebSocketHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.serve(c, &Client{QueueID: id})
}

// ChauffeurWebSocketHandler принимает подключение водителя для получения предложений места.
// URL-пример: /api/chauffeurs/{id}/ws
func (h *Hub) ChauffeurWebSocketHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.serve(c, &Client{ChauffeurID: id})
}
