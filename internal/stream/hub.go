// Package stream expone las suscripciones en tiempo real: un watcher por
// colección sobre change streams de Mongo y un hub de fan-out hacia los
// clientes SSE. La suscripción se desarma explícitamente cuando la vista
// que la creó deja de existir; no hacerlo filtra un listener vivo.
package stream

import "sync"

// Topics, uno por colección observada.
const (
	TopicOrders        = "orders"
	TopicConversations = "conversations"
	TopicMessages      = "messages"
	TopicNotifications = "notifications"
)

// Event es la invalidación que viaja al cliente. Lleva lo mínimo para que
// el consumidor decida si le incumbe y refresque su vista.
type Event struct {
	Collection     string `json:"collection"`
	Operation      string `json:"operation"`
	DocumentID     string `json:"documentId,omitempty"`
	UserID         string `json:"userId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Event)}
}

// Subscribe devuelve el canal de eventos y la función de teardown.
// El canal tiene buffer: un consumidor lento pierde eventos en vez de
// frenar al watcher (el evento es solo una invalidación, se puede perder).
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan Event, 16)

	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan Event)
	}
	h.subs[topic][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[topic][id]; ok {
			delete(h.subs[topic], id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish entrega sin bloquear; si el buffer del suscriptor está lleno
// el evento se descarta para ese suscriptor.
func (h *Hub) Publish(topic string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}
