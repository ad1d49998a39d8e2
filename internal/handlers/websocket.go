package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"golang.org/x/time/rate"
)

// Message types
const (
	MessageHello     = "hello"
	MessageJobUpdate = "job_update"
)

const defaultWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type HelloMessage struct {
	ServerInstanceID string `json:"server_instance_id"` // Clients clear cached job state when this changes
	Version          string `json:"version"`
}

// wsClient is one connection and the filter it subscribed with
type wsClient struct {
	mu        sync.Mutex // Serializes writes
	projectID string
	jobID     string
}

func (c *wsClient) wants(job *models.IngestionJob) bool {
	if c.projectID != "" && job.ProjectID != c.projectID {
		return false
	}
	if c.jobID != "" && job.ID != c.jobID {
		return false
	}
	return true
}

// jobThrottle limits running updates for one job. A status change always passes.
type jobThrottle struct {
	status  models.JobStatus
	limiter *rate.Limiter
}

// WebSocketHandler streams ingestion job updates to connected clients
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]*wsClient
	mu               sync.RWMutex
	throttles        map[string]*jobThrottle
	throttleMu       sync.Mutex
	progressInterval time.Duration
	writeTimeout     time.Duration
	serverInstanceID string
	unsubscribe      func()
}

func NewWebSocketHandler(ingestion interfaces.IngestionService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]*wsClient),
		throttles:        make(map[string]*jobThrottle),
		writeTimeout:     defaultWriteTimeout,
		serverInstanceID: uuid.New().String(),
	}
	if config != nil {
		h.progressInterval = config.ProgressInterval.Duration()
		if config.WriteTimeout > 0 {
			h.writeTimeout = config.WriteTimeout.Duration()
		}
	}

	logger.Info().
		Str("server_instance_id", h.serverInstanceID).
		Dur("progress_interval", h.progressInterval).
		Msg("WebSocket handler initialized")

	if ingestion != nil {
		h.unsubscribe = ingestion.Subscribe(h.onJobUpdate)
	}
	return h
}

// HandleWebSocket upgrades the connection. Optional project_id and job_id query
// parameters restrict which job updates the client receives.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := &wsClient{
		projectID: r.URL.Query().Get("project_id"),
		jobID:     r.URL.Query().Get("job_id"),
	}

	h.mu.Lock()
	h.clients[conn] = client
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	h.send(conn, client, WSMessage{
		Type: MessageHello,
		Payload: HelloMessage{
			ServerInstanceID: h.serverInstanceID,
			Version:          common.GetVersion(),
		},
	})

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// onJobUpdate runs on the publishing goroutine, so every write is bounded by a deadline
func (h *WebSocketHandler) onJobUpdate(job *models.IngestionJob) {
	if !h.allow(job) {
		return
	}
	msg := WSMessage{Type: MessageJobUpdate, Payload: job}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	clients := make([]*wsClient, 0, len(h.clients))
	for conn, client := range h.clients {
		if client.wants(job) {
			conns = append(conns, conn)
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		h.send(conn, clients[i], msg)
	}
}

// allow applies the per-job progress throttle
func (h *WebSocketHandler) allow(job *models.IngestionJob) bool {
	h.throttleMu.Lock()
	defer h.throttleMu.Unlock()

	if job.IsTerminal() {
		delete(h.throttles, job.ID)
		return true
	}
	if h.progressInterval <= 0 {
		return true
	}

	t, ok := h.throttles[job.ID]
	if !ok || t.status != job.Status {
		limiter := rate.NewLimiter(rate.Every(h.progressInterval), 1)
		limiter.Allow()
		h.throttles[job.ID] = &jobThrottle{status: job.Status, limiter: limiter}
		return true
	}
	return t.limiter.Allow()
}

func (h *WebSocketHandler) send(conn *websocket.Conn, client *wsClient, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send message to client")
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops receiving job updates and disconnects every client
func (h *WebSocketHandler) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, client := range h.clients {
		client.mu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		client.mu.Unlock()
		conn.Close()
	}
}
