package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mrbaitop40-blip/veo/internal/model"
)

type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan model.GenerationEvent
}

func NewHub() *Hub {
	return &Hub{
		subs: map[string]map[string]chan model.GenerationEvent{},
	}
}

func (h *Hub) Subscribe(generationID string, buf int) (string, <-chan model.GenerationEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subID := uuid.NewString()
	if _, ok := h.subs[generationID]; !ok {
		h.subs[generationID] = map[string]chan model.GenerationEvent{}
	}
	ch := make(chan model.GenerationEvent, buf)
	h.subs[generationID][subID] = ch

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		genSubs, ok := h.subs[generationID]
		if !ok {
			return
		}
		c, ok := genSubs[subID]
		if !ok {
			return
		}
		delete(genSubs, subID)
		close(c)
		if len(genSubs) == 0 {
			delete(h.subs, generationID)
		}
	}
	return subID, ch, unsubscribe
}

func (h *Hub) Publish(generationID string, evt model.GenerationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	genSubs, ok := h.subs[generationID]
	if !ok {
		return
	}
	for _, ch := range genSubs {
		select {
		case ch <- evt:
		default:
			// Drop stale subscribers to keep producer non-blocking.
		}
	}
}
