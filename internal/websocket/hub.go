package websocket

import (
	"encoding/json"
	"sync"
)

type PortfolioUpdate struct {
	Type       string `json:"type"`
	INRBalance string `json:"inr_balance"`
	USDHeld    string `json:"usd_held"`
}

type RateTick struct {
	Type      string `json:"type"`
	Rate      string `json:"rate"`
	Timestamp string `json:"timestamp"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// BroadcastPortfolio pushes a balance snapshot to one user's connections.
// Slow clients are skipped rather than blocking the trade path.
func (h *Hub) BroadcastPortfolio(userID string, update PortfolioUpdate) {
	update.Type = "portfolio"
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}

// BroadcastRate pushes a rate tick to every connected client.
func (h *Hub) BroadcastRate(tick RateTick) {
	tick.Type = "rate"
	payload, _ := json.Marshal(tick)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- payload:
			default:
			}
		}
	}
}
