// README: WebSocket registry pushing pending offers to connected drivers.
package dispatch

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"safar/internal/modules/ride"
	"safar/internal/types"
)

// session serializes writes; gorilla connections allow one concurrent writer.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// WSRegistry tracks one socket per connected driver and implements
// ride.OfferNotifier. Offer push is best effort: a driver without a socket,
// or with a broken one, still sees the offer through polling.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[types.ID]*session
	logger   *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	return &WSRegistry{sessions: make(map[types.ID]*session), logger: logger}
}

// Add registers the driver's socket, replacing and closing any previous one.
func (r *WSRegistry) Add(driverID types.ID, conn *websocket.Conn) {
	r.mu.Lock()
	prev := r.sessions[driverID]
	r.sessions[driverID] = &session{conn: conn}
	r.mu.Unlock()
	if prev != nil {
		_ = prev.conn.Close()
	}
}

// Remove drops the driver's socket if it is still the registered one.
func (r *WSRegistry) Remove(driverID types.ID, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[driverID]; ok && s.conn == conn {
		delete(r.sessions, driverID)
	}
}

func (r *WSRegistry) NotifyOffer(driverID types.ID, o ride.Offer) {
	r.mu.RLock()
	s, ok := r.sessions[driverID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if err := s.send(o); err != nil {
		r.logger.Warn("ws offer push failed", "driver_id", driverID, "error", err)
	}
}
