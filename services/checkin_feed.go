package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"churchhub/config"
	"churchhub/models"
)

const (
	// Redis key for connected feed watchers.
	keyFeedWatchers = "churchhub:feed_watchers"
)

// Upgrader upgrades HTTP requests to websocket connections.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedClient is one connected check-in dashboard.
type FeedClient struct {
	ID       uint // staff account id
	ChurchID uint
	Conn     *websocket.Conn
	Send     chan []byte
}

// WritePump drains the send channel onto the websocket connection.
func (c *FeedClient) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
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

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush anything already queued.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
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

// ReadPump keeps the connection's read side alive. The feed is one-way;
// anything the client sends is discarded.
func (c *FeedClient) ReadPump(hub *FeedHub) {
	defer func() {
		hub.UnregisterClient(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("feed connection error: %v", err)
			}
			break
		}
	}
}

// FeedHub fans check-in events out to connected dashboards. With Kafka
// available, events travel through the church's topic so dashboards on
// every instance see them; without it the hub broadcasts locally.
type FeedHub struct {
	clients map[uint]*FeedClient
	mu      sync.RWMutex

	rdb   *redis.Client
	kafka *KafkaService

	// churches with an active topic subscription
	subscribed map[uint]bool
	subMu      sync.Mutex

	connectionCount int32
	maxConnections  int32
	stopCh          chan struct{}
}

// NewFeedHub creates a check-in feed hub. kafka may be nil.
func NewFeedHub(rdb *redis.Client, kafka *KafkaService) *FeedHub {
	return &FeedHub{
		clients:        make(map[uint]*FeedClient),
		rdb:            rdb,
		kafka:          kafka,
		subscribed:     make(map[uint]bool),
		maxConnections: int32(config.AppConfig.MaxConnections),
		stopCh:         make(chan struct{}),
	}
}

// Run cleans up dead connections until Stop is called.
func (h *FeedHub) Run() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.cleanupExpiredConnections()
		case <-h.stopCh:
			return
		}
	}
}

// Stop shuts the hub down, closing the Kafka connection if it owns one.
func (h *FeedHub) Stop() {
	close(h.stopCh)
	if h.kafka != nil {
		h.kafka.Close()
	}
}

// RegisterClient adds a dashboard connection and subscribes the hub to
// its church's check-in topic. Returns false when the connection limit
// is reached.
func (h *FeedHub) RegisterClient(client *FeedClient) bool {
	if atomic.LoadInt32(&h.connectionCount) >= h.maxConnections {
		log.Println("feed connection limit reached, rejecting connection")
		return false
	}

	h.mu.Lock()
	if oldClient, exists := h.clients[client.ID]; exists {
		close(oldClient.Send)
		oldClient.Conn.Close()
		atomic.AddInt32(&h.connectionCount, -1)
	}
	h.clients[client.ID] = client
	atomic.AddInt32(&h.connectionCount, 1)
	h.mu.Unlock()

	if h.rdb != nil {
		h.rdb.SAdd(context.Background(), keyFeedWatchers, client.ID)
	}

	h.subscribeChurch(client.ChurchID)

	log.Printf("feed client connected: account %d (church %d), connections: %d",
		client.ID, client.ChurchID, atomic.LoadInt32(&h.connectionCount))
	return true
}

// UnregisterClient removes a dashboard connection.
func (h *FeedHub) UnregisterClient(client *FeedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
		atomic.AddInt32(&h.connectionCount, -1)

		if h.rdb != nil {
			h.rdb.SRem(context.Background(), keyFeedWatchers, client.ID)
		}

		log.Printf("feed client disconnected: account %d, connections: %d",
			client.ID, atomic.LoadInt32(&h.connectionCount))
	}
}

// Broadcast delivers one check-in event to the church's dashboards,
// through Kafka when available, directly otherwise.
func (h *FeedHub) Broadcast(event models.CheckInEvent) {
	if h.kafka != nil {
		if err := h.kafka.PublishCheckInEvent(event); err != nil {
			log.Printf("publishing check-in event: %v", err)
		}
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("encoding check-in event: %v", err)
		return
	}
	h.broadcastToChurch(event.ChurchID, payload)
}

// subscribeChurch starts consuming the church's check-in topic once.
func (h *FeedHub) subscribeChurch(churchID uint) {
	if h.kafka == nil {
		return
	}

	h.subMu.Lock()
	defer h.subMu.Unlock()
	if h.subscribed[churchID] {
		return
	}

	topic := h.kafka.BuildTopicName("checkin", churchID)
	err := h.kafka.SubscribeTopic(topic, func(message []byte) {
		h.broadcastToChurch(churchID, message)
	})
	if err != nil {
		log.Printf("subscribing to check-in topic: %v", err)
		return
	}
	h.subscribed[churchID] = true
}

// broadcastToChurch sends a message to every client in one church.
func (h *FeedHub) broadcastToChurch(churchID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.ChurchID != churchID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			// slow client, skip
		}
	}
}

// cleanupExpiredConnections drops connections that no longer answer pings.
func (h *FeedHub) cleanupExpiredConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
			log.Printf("dropping dead feed connection: account %d, error: %v", id, err)
			delete(h.clients, id)
			close(client.Send)
			atomic.AddInt32(&h.connectionCount, -1)

			if h.rdb != nil {
				h.rdb.SRem(context.Background(), keyFeedWatchers, id)
			}
		}
	}
}

// GetConnectionCount returns the number of connected dashboards.
func (h *FeedHub) GetConnectionCount() int32 {
	return atomic.LoadInt32(&h.connectionCount)
}

// GetKafkaService returns the hub's Kafka service, nil when running
// without a stream.
func (h *FeedHub) GetKafkaService() *KafkaService {
	return h.kafka
}
