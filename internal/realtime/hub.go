package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/message"
)

// Subscriber is a live connection that can accept room payloads.
// Deliver must not block; it reports false when the subscriber cannot
// keep up, and the hub drops it.
type Subscriber interface {
	Deliver(payload []byte) bool
}

// Hub is the room registry. It tracks which local subscribers belong to
// which project room and holds one NATS subscription per room that has at
// least one local subscriber, so remote publishes reach local
// connections and local publishes reach remote processes.
//
// The hub implements message.Publisher; it is handed to the message
// service at wiring time.
type Hub struct {
	nc     *nats.Conn
	logger *zap.Logger

	mu    sync.Mutex
	rooms map[string]map[Subscriber]struct{}
	subs  map[string]*nats.Subscription

	metrics *metrics
}

func NewHub(nc *nats.Conn, logger *zap.Logger) *Hub {
	return &Hub{
		nc:      nc,
		logger:  logger.Named("realtime"),
		rooms:   make(map[string]map[Subscriber]struct{}),
		subs:    make(map[string]*nats.Subscription),
		metrics: newMetrics(),
	}
}

// Join subscribes sub to the project's room. Idempotent; a subscriber may
// belong to any number of rooms at once.
func (h *Hub) Join(sub Subscriber, projectID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[projectID]
	if !ok {
		room = make(map[Subscriber]struct{})
		h.rooms[projectID] = room

		// First local member: bridge the room in from NATS.
		natsSub, err := h.nc.Subscribe(Subject(projectID), func(m *nats.Msg) {
			h.deliver(projectID, m.Data)
		})
		if err != nil {
			delete(h.rooms, projectID)
			return fmt.Errorf("subscribing to room %s: %w", projectID, err)
		}
		h.subs[projectID] = natsSub
	}
	room[sub] = struct{}{}
	return nil
}

// Leave removes sub from the project's room. No-op if absent. The room's
// NATS subscription is torn down when the last local member leaves.
func (h *Hub) Leave(sub Subscriber, projectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(sub, projectID)
}

// Drop removes sub from every room it belongs to. Called on disconnect.
func (h *Hub) Drop(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for projectID := range h.rooms {
		h.leaveLocked(sub, projectID)
	}
}

func (h *Hub) leaveLocked(sub Subscriber, projectID string) {
	room, ok := h.rooms[projectID]
	if !ok {
		return
	}
	if _, ok := room[sub]; !ok {
		return
	}
	delete(room, sub)
	if len(room) == 0 {
		delete(h.rooms, projectID)
		if natsSub, ok := h.subs[projectID]; ok {
			if err := natsSub.Unsubscribe(); err != nil {
				h.logger.Warn("room unsubscribe failed",
					zap.String("project_id", projectID), zap.Error(err))
			}
			delete(h.subs, projectID)
		}
	}
}

// Publish sends a resolved message to the project's room via NATS, which
// loops it back to local subscribers and out to any peer processes.
// There is no buffering: subscribers joining after a publish do not
// receive it.
func (h *Hub) Publish(ctx context.Context, projectID, event string, msg message.Resolved) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message %s: %w", msg.ID, err)
	}
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}
	if err := h.nc.Publish(Subject(projectID), payload); err != nil {
		return fmt.Errorf("publishing to room %s: %w", projectID, err)
	}
	return nil
}

// deliver fans a payload out to the room's local subscribers. Subscribers
// that cannot keep up are dropped from all rooms rather than backing up
// the fan-out.
func (h *Hub) deliver(projectID string, payload []byte) {
	h.mu.Lock()
	room := h.rooms[projectID]
	subs := make([]Subscriber, 0, len(room))
	for s := range room {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	var slow []Subscriber
	for _, s := range subs {
		if !s.Deliver(payload) {
			slow = append(slow, s)
		}
	}
	for _, s := range slow {
		h.logger.Warn("dropping slow room subscriber", zap.String("project_id", projectID))
		h.metrics.dropped.Inc()
		h.Drop(s)
	}
	h.metrics.delivered.Add(float64(len(subs) - len(slow)))
}

// RoomSize returns the number of local subscribers in a room.
func (h *Hub) RoomSize(projectID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[projectID])
}
