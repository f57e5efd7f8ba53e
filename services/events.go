package services

import (
	"slices"
	"sync"

	"taskmanager/models"
)

type EventType string

const (
	EventTaskCreated EventType = "task.created"
	EventTaskUpdated EventType = "task.updated"
	EventTaskDeleted EventType = "task.deleted"
)

type TaskEvent struct {
	Type EventType   `json:"type"`
	Task models.Task `json:"task"`
	// FormerAssignees also receive the event so their clients learn they
	// were removed from the task.
	FormerAssignees []string `json:"-"`
}

// visibleTo applies the same visibility rule as task listing, extended to
// users who were assigned before this change.
func (e TaskEvent) visibleTo(r Requester) bool {
	return canViewAllTasks(r) || e.Task.IsAssignee(r.ID) || slices.Contains(e.FormerAssignees, r.ID)
}

type subscriber struct {
	requester Requester
	ch        chan TaskEvent
}

// EventHub fans task events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type EventHub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	buffer int
}

func NewEventHub(buffer int) *EventHub {
	if buffer <= 0 {
		buffer = 16
	}
	return &EventHub{subs: make(map[*subscriber]struct{}), buffer: buffer}
}

// Subscribe registers r and returns its event channel plus a cancel func
// that unregisters and closes the channel.
func (h *EventHub) Subscribe(r Requester) (<-chan TaskEvent, func()) {
	sub := &subscriber{requester: r, ch: make(chan TaskEvent, h.buffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

func (h *EventHub) Publish(e TaskEvent) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if !e.visibleTo(sub.requester) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
		}
	}
}

func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
