package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event оборачивает полезную нагрузку для фронтенда.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub держит открытые websocket-сессии, сгруппированные по пользователю.
// У одного пользователя может быть несколько вкладок, значит несколько клиентов.
type Hub struct {
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	byUser  map[int]map[*Client]bool
	logger  *slog.Logger
	closing chan struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		byUser:     make(map[int]map[*Client]bool),
		logger:     logger,
		closing:    make(chan struct{}),
	}
}

// Run обслуживает регистрацию и отключение клиентов. Запускается одной
// горутиной из composition root.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.byUser[client.userID]; !ok {
				h.byUser[client.userID] = make(map[*Client]bool)
			}
			h.byUser[client.userID][client] = true
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", slog.Int("user_id", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if sessions, ok := h.byUser[client.userID]; ok {
				if _, okClient := sessions[client]; okClient {
					client.closeSend()
					delete(sessions, client)
					if len(sessions) == 0 {
						delete(h.byUser, client.userID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client unregistered", slog.Int("user_id", client.userID))

		case <-h.closing:
			return
		}
	}
}

// Close останавливает цикл Run. Открытые соединения закрываются своими pump'ами.
func (h *Hub) Close() {
	close(h.closing)
}

// PushToUser отправляет событие во все сессии пользователя. Если пользователь
// не подключён, событие молча отбрасывается: персистентная копия уже в базе.
func (h *Hub) PushToUser(userID int, payload any) {
	message, err := json.Marshal(Event{Type: "notification", Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal websocket event",
			slog.Int("user_id", userID), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.byUser[userID] {
		if !client.trySend(message) {
			h.logger.Warn("websocket send buffer full, dropping event",
				slog.Int("user_id", userID))
		}
	}
}
