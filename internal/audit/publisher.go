package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher delivers audit events to a sink. Emit must be cheap and safe to
// call on the request path; slow sinks belong behind the channel worker.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// MemoryPublisher collects events in memory for tests and local development.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// ChannelPublisher decouples emitters from the sink: Emit enqueues and
// returns immediately, and a Worker drains the channel. When the buffer is
// full the event is dropped with a warning; audit must never block or fail
// a coordination mutation.
type ChannelPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelPublisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"type", string(event.Type), "match_id", event.MatchID)
	}
	return nil
}

// Inbox exposes the drain side for the Worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.inbox
}

// Worker consumes buffered events and forwards them to the real sink.
type Worker struct {
	sink   Publisher
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Publisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled. Sink failures are logged and
// the worker keeps going; losing one audit record beats stalling the stream.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Emit(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit sink rejected event",
					"type", string(event.Type), "error", err)
			}
		}
	}
}
