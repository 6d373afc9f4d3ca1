package ws

import (
	"encoding/json"
	"sync"

	"cloudmine_backend/internal/logger"

	"github.com/shopspring/decimal"
)

// Hub fans accrual events out to a user's open dashboard connections. A user
// may have several tabs open; each is its own Client.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[c.UserID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.clients, c.UserID)
		}
	}
}

// BalanceChanged pushes the new balance to the user's connections. Called by
// the accrual scheduler after cycles are credited; must never block it.
func (h *Hub) BalanceChanged(userID int64, balance decimal.Decimal) {
	h.push(userID, map[string]any{
		"type":    "balance",
		"balance": balance.String(),
	})
}

func (h *Hub) push(userID int64, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		logger.Error("ws payload marshal", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.Send <- msg:
		default:
			// slow consumer, drop the update instead of blocking the engine
		}
	}
}
