package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/monatur/concierge/pkg/logging"
)

// ErrDispatcherClosed indicates the dispatcher is no longer accepting work.
var ErrDispatcherClosed = errors.New("conversation: dispatcher closed")

const defaultLaneBuffer = 32

type job struct {
	id             string
	conversationID string
	text           string
}

// Dispatcher serializes message handling per conversation: each conversation
// gets its own lane (a buffered channel drained by one goroutine), so the
// router's session mutations never race while unrelated conversations proceed
// in parallel.
type Dispatcher struct {
	router    *Router
	messenger Messenger
	apology   string
	logger    *logging.Logger
	buffer    int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	lanes  map[string]chan job
	closed bool
}

// DispatcherOption configures the dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLaneBuffer overrides how many messages a single conversation may have
// queued before new ones are dropped.
func WithLaneBuffer(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.buffer = n
		}
	}
}

// NewDispatcher wires a per-conversation dispatcher around the router.
func NewDispatcher(router *Router, messenger Messenger, msgs Messages, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if router == nil {
		panic("conversation: router cannot be nil")
	}
	if messenger == nil {
		panic("conversation: messenger cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		router:    router,
		messenger: messenger,
		apology:   msgs.Apology(),
		logger:    logger,
		buffer:    defaultLaneBuffer,
		ctx:       ctx,
		cancel:    cancel,
		lanes:     make(map[string]chan job),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue accepts one inbound message for asynchronous handling. When the
// conversation's lane is full the message is dropped with a warning rather
// than blocking the webhook response.
func (d *Dispatcher) Enqueue(conversationID, text string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	lane, ok := d.lanes[conversationID]
	if !ok {
		lane = make(chan job, d.buffer)
		d.lanes[conversationID] = lane
		d.wg.Add(1)
		go d.drain(conversationID, lane)
	}
	d.mu.Unlock()

	j := job{id: uuid.NewString(), conversationID: conversationID, text: text}
	select {
	case lane <- j:
		return nil
	default:
		d.logger.Warn("conversation lane full, dropping message",
			"conversation_id", conversationID, "job_id", j.id)
		return nil
	}
}

func (d *Dispatcher) drain(conversationID string, lane chan job) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case j := <-lane:
			d.run(j)
		}
	}
}

func (d *Dispatcher) run(j job) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("panic while handling message",
				"conversation_id", j.conversationID, "job_id", j.id, "panic", fmt.Sprint(rec))
			d.sendApology(j.conversationID)
		}
	}()

	if err := d.router.HandleMessage(d.ctx, d.messenger, j.conversationID, j.text); err != nil {
		d.logger.Error("message handling failed",
			"conversation_id", j.conversationID, "job_id", j.id, "error", err)
		d.sendApology(j.conversationID)
	}
}

// sendApology is best-effort: if the transport is the thing that failed the
// apology will fail too, and that is fine.
func (d *Dispatcher) sendApology(conversationID string) {
	if err := d.messenger.SendText(d.ctx, conversationID, d.apology); err != nil {
		d.logger.Warn("apology send failed", "conversation_id", conversationID, "error", err)
	}
}

// Shutdown stops accepting work, cancels in-flight handling, and waits for
// lane goroutines to exit or ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("conversation: dispatcher shutdown: %w", ctx.Err())
	}
}
