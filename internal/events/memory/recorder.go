package memory

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
)

// Message is one published event.
type Message struct {
	Topic string
	Key   string
	Event any
}

// Recorder keeps published events in memory. It stands in for kafka when no brokers
// are configured.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, topic string, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Topic: topic, Key: key, Event: event})
	return nil
}

// Messages returns a copy of everything published so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

var _ interfaces.EventPublisher = (*Recorder)(nil)
