package events

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore keeps one ordered log of every session event with a per-stream index.
// Subscribers run synchronously, in subscription order, before AppendEvent returns; a
// failing handler is logged and does not stop the others.
type InMemoryEventStore struct {
	mu          sync.RWMutex
	log         []Envelope
	streams     map[string][]int
	subscribers map[string][]EventHandler
	logger      *zap.Logger
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]int),
		subscribers: make(map[string][]EventHandler),
		logger:      logger,
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mu.Lock()
	env := sealed(streamID, event, len(s.streams[streamID])+1)
	s.streams[streamID] = append(s.streams[streamID], len(s.log))
	s.log = append(s.log, env)
	handlers := append([]EventHandler(nil), s.subscribers[env.Kind]...)
	s.mu.Unlock()

	for _, h := range handlers {
		if !h.CanHandle(env.Kind) {
			continue
		}
		if err := h.Handle(env); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event", env.Kind),
				zap.String("stream", streamID),
				zap.Int("version", env.Seq),
				zap.Error(err))
		}
	}
	return nil
}

// ReadEvents returns the events of one stream starting at fromVersion (1-based)
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.streams[streamID]
	if fromVersion < 1 {
		fromVersion = 1
	}
	out := []Event{}
	for _, pos := range positions[min(fromVersion-1, len(positions)):] {
		out = append(out, s.log[pos])
	}
	return out, nil
}

// ReadAllEvents returns the global log starting at fromPosition (0-based)
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fromPosition = max(0, min(fromPosition, len(s.log)))
	out := make([]Event, 0, len(s.log)-fromPosition)
	for _, env := range s.log[fromPosition:] {
		out = append(out, env)
	}
	return out, nil
}

// Subscribe registers handler for eventTypes. Handlers are identified by value on
// Unsubscribe, so their dynamic type must be comparable (typically a pointer).
func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	if handler == nil {
		return fmt.Errorf("event handler cannot be nil")
	}
	if t := reflect.TypeOf(handler); !t.Comparable() {
		return fmt.Errorf("event handler of type %s is not comparable; subscribe a pointer", t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}

// Unsubscribe removes every subscription of handler
func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := handlers[:0]
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}
	return nil
}
