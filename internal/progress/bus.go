// Package progress carries generation progress events from the engine to
// the UI over a fixed channel name.
package progress

import (
	"encoding/json"
	"sync"
)

// ChannelName is the event channel the frontend subscribes to
const ChannelName = "generation-progress"

// Progress describes the current stage of a generation run and its
// completion percentage. The percentage is reported as emitted; clamping
// for display is the renderer's concern.
type Progress struct {
	Stage    string  `json:"stage"`
	Progress float64 `json:"progress"`
}

// Handler receives decoded progress records
type Handler func(Progress)

// Bus is a process-lifetime progress event channel. Handlers are invoked
// in subscription order, synchronously with Publish, so delivery follows
// emission order. A subscription outlives any single generation request;
// it is released through the disposer returned by Subscribe.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	order    []int
	handlers map[int]Handler
}

// NewBus creates an empty progress bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers a handler and returns its disposer. Disposal is
// idempotent and must be called on teardown to release the subscription.
func (b *Bus) Subscribe(h Handler) (dispose func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.handlers[id]; !ok {
			return
		}
		delete(b.handlers, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Publish decodes a raw payload and delivers it to every subscriber.
// Payloads that do not decode as a progress record are dropped without
// any visible effect.
func (b *Bus) Publish(payload interface{}) {
	p, ok := Decode(payload)
	if !ok {
		return
	}
	b.Emit(p)
}

// Emit delivers an already-typed progress record to every subscriber
func (b *Bus) Emit(p Progress) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(p)
	}
}

// SubscriberCount reports the number of live subscriptions
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// alternate wire encoding: a JSON-stringified {"progress": n, "text": s}
type altEncoding struct {
	Progress *float64 `json:"progress"`
	Text     string   `json:"text"`
}

// Decode converts a raw event payload into a Progress record. Two
// encodings are accepted: the native {stage, progress} shape (as a struct,
// map, or raw JSON) and the stringified {progress, text} form. Anything
// else is rejected.
func Decode(payload interface{}) (Progress, bool) {
	switch v := payload.(type) {
	case Progress:
		return v, true
	case *Progress:
		if v == nil {
			return Progress{}, false
		}
		return *v, true
	case string:
		return decodeJSON([]byte(v))
	case []byte:
		return decodeJSON(v)
	case map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return Progress{}, false
		}
		return decodeJSON(data)
	default:
		return Progress{}, false
	}
}

func decodeJSON(data []byte) (Progress, bool) {
	var native struct {
		Stage    *string  `json:"stage"`
		Progress *float64 `json:"progress"`
	}
	if err := json.Unmarshal(data, &native); err == nil && native.Stage != nil && native.Progress != nil {
		return Progress{Stage: *native.Stage, Progress: *native.Progress}, true
	}

	var alt altEncoding
	if err := json.Unmarshal(data, &alt); err == nil && alt.Progress != nil && alt.Text != "" {
		return Progress{Stage: alt.Text, Progress: *alt.Progress}, true
	}

	return Progress{}, false
}
