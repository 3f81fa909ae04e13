package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"coursehub-backend/internal/models"
)

const writeWait = 10 * time.Second

// Conn serialises writes to one websocket connection.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

func (c *Conn) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(data)
}

func (c *Conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

// Hub fans user notifications out to that user's open connections. With a
// Redis client, notifications travel over the user_updates:<userID>
// channel so every instance of the service delivers them; without one they
// are delivered in-process.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*Conn
	redisClient *redis.Client
	cancelFuncs map[string]context.CancelFunc
	logger      zerolog.Logger
	wg          sync.WaitGroup
}

func NewHub(redisClient *redis.Client, logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string][]*Conn),
		redisClient: redisClient,
		cancelFuncs: make(map[string]context.CancelFunc),
		logger:      logger,
	}
}

func userChannel(userID string) string {
	return "user_updates:" + userID
}

func (h *Hub) register(userID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[userID] = append(h.connections[userID], conn)

	// Subscribe on the user's first connection.
	if h.redisClient != nil && len(h.connections[userID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[userID] = cancel
		h.wg.Add(1)
		go h.subscribeToPubSub(ctx, userID)
	}

	h.logger.Debug().Str("user_id", userID).Int("connections", len(h.connections[userID])).Msg("websocket connected")
}

func (h *Hub) unregister(userID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[userID]
	for i, c := range conns {
		if c == conn {
			h.connections[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
			delete(h.cancelFuncs, userID)
		}
	}

	h.logger.Debug().Str("user_id", userID).Msg("websocket disconnected")
}

func (h *Hub) subscribeToPubSub(ctx context.Context, userID string) {
	defer h.wg.Done()

	pubsub := h.redisClient.Subscribe(ctx, userChannel(userID))
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before delivering.
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() == nil {
			h.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to subscribe to user updates")
		}
		return
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(userID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[userID] {
		if err := conn.write(data); err != nil {
			h.logger.Debug().Err(err).Str("user_id", userID).Msg("failed to write to websocket")
		}
	}
}

// PublishUserUpdate delivers msg to every open connection of userID.
func (h *Hub) PublishUserUpdate(ctx context.Context, userID string, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}
	if h.redisClient == nil {
		h.broadcast(userID, data)
		return nil
	}
	return h.redisClient.Publish(ctx, userChannel(userID), data).Err()
}

// Connections returns the number of open connections of userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// Close stops every subscription and closes every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	for userID, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, userID)
	}
	for _, conns := range h.connections {
		for _, c := range conns {
			c.Close()
		}
	}
	h.mu.Unlock()
	h.wg.Wait()
}
