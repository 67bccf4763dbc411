// Package channel carries intents from a UI to the lifecycle engine and
// state updates and notifications back.
//
// All intents go through one bounded queue drained by a single worker, so
// handlers never run concurrently and each sees the effects of the one
// before it. The channel owns the session: the branch the UI is looking at.
package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"kllc.dev/kllc/internal/engine"
	kllcerrors "kllc.dev/kllc/internal/errors"
)

// DefaultQueueSize bounds pending intents
const DefaultQueueSize = 16

// ErrChannelBusy is returned by Submit when the queue is full
var ErrChannelBusy = errors.New("channel busy: too many pending intents")

// ErrChannelClosed is returned by Submit after Run has returned
var ErrChannelClosed = errors.New("channel closed")

// Engine is the lifecycle engine surface the channel drives
type Engine interface {
	Definitions() []engine.Step
	CurrentBranch(ctx context.Context) (string, error)
	Resolve(ctx context.Context, branch string) (*engine.State, error)
	CreateCycle(ctx context.Context, req engine.CycleRequest) (*engine.CycleResult, error)
	SaveState(ctx context.Context, session engine.Session, submitted *engine.State) (*engine.State, error)
	DispatchGitAction(ctx context.Context, state *engine.State, action engine.GitAction) (*engine.GitActionResult, error)
}

// Observer is told the outcome of every handled intent. outcome is "ok" or
// the error code of the failure.
type Observer func(command Command, outcome string)

type request struct {
	ctx   context.Context
	msg   Message
	reply chan []Message
}

// Channel serialises intents for one session
type Channel struct {
	engine   Engine
	logger   *slog.Logger
	observer Observer
	queue    chan request
	done     chan struct{}

	mu      sync.RWMutex
	session engine.Session

	subMu  sync.Mutex
	subs   map[int]chan Message
	nextID int
}

// Option configures a Channel
type Option func(*Channel)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithQueueSize sets the number of intents that may wait for the worker
func WithQueueSize(size int) Option {
	return func(c *Channel) {
		if size > 0 {
			c.queue = make(chan request, size)
		}
	}
}

// WithObserver registers an observer of intent outcomes
func WithObserver(observer Observer) Option {
	return func(c *Channel) {
		c.observer = observer
	}
}

// New creates a channel over eng. Call Run to start processing.
func New(eng Engine, opts ...Option) *Channel {
	c := &Channel{
		engine: eng,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		queue:  make(chan request, DefaultQueueSize),
		done:   make(chan struct{}),
		subs:   map[int]chan Message{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Steps returns the stepping sequence of the engine
func (c *Channel) Steps() []engine.Step {
	return c.engine.Definitions()
}

// Session returns the current session
func (c *Channel) Session() engine.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Channel) setSession(branch string) {
	c.mu.Lock()
	c.session = engine.Session{Branch: branch}
	c.mu.Unlock()
}

// Run processes intents until ctx is cancelled
func (c *Channel) Run(ctx context.Context) error {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-c.queue:
			replies := c.handle(req.ctx, req.msg)
			req.reply <- replies
			c.publish(replies)
		}
	}
}

// Submit enqueues msg and waits for the messages it produced. A full queue
// fails fast with ErrChannelBusy.
func (c *Channel) Submit(ctx context.Context, msg Message) ([]Message, error) {
	req := request{ctx: ctx, msg: msg, reply: make(chan []Message, 1)}

	select {
	case <-c.done:
		return nil, ErrChannelClosed
	default:
	}

	select {
	case c.queue <- req:
	default:
		return nil, ErrChannelBusy
	}

	select {
	case replies := <-req.reply:
		return replies, nil
	case <-c.done:
		return nil, ErrChannelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe returns a stream of every outbound message and a function that
// ends the subscription. Slow subscribers miss messages rather than block
// the worker.
func (c *Channel) Subscribe() (<-chan Message, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan Message, 32)
	c.subs[id] = ch

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Channel) publish(msgs []Message) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, msg := range msgs {
		for id, sub := range c.subs {
			select {
			case sub <- msg:
			default:
				c.logger.Warn("dropped message for slow subscriber", "subscriber", id, "command", msg.Command)
			}
		}
	}
}

func (c *Channel) handle(ctx context.Context, msg Message) []Message {
	c.logger.Debug("handling intent", "command", msg.Command, "id", msg.ID)

	var out outbox
	var err error
	switch msg.Command {
	case CommandReady:
		err = c.handleReady(ctx, &out)
	case CommandCreateBranch:
		err = c.handleCreateBranch(ctx, msg, &out)
	case CommandSaveState:
		err = c.handleSaveState(ctx, msg, &out)
	case CommandExecuteGitAction:
		err = c.handleGitAction(ctx, msg, &out)
	default:
		err = fmt.Errorf("%w: unknown command %q", kllcerrors.ErrInvalidRequest, msg.Command)
	}

	outcome := "ok"
	if err != nil {
		outcome = kllcerrors.Code(err)
		c.logger.Debug("intent failed", "command", msg.Command, "code", outcome, "error", err)
		out.notify(LevelError, outcome, userMessage(err))
	}
	if c.observer != nil {
		c.observer(msg.Command, outcome)
	}
	return out.flush(c.logger)
}

// resync re-emits the stored state so a UI that attempted a rejected
// transition shows the authoritative state again.
func (c *Channel) resync(ctx context.Context, out *outbox) {
	branch := c.Session().Branch
	if branch == "" {
		return
	}
	state, err := c.engine.Resolve(ctx, branch)
	if err != nil {
		c.logger.Warn("failed to resync state", "branch", branch, "error", err)
		return
	}
	out.update(state)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, kllcerrors.ErrDirtyWorkingCopy):
		return "Please commit local changes before starting a new cycle."
	case errors.Is(err, kllcerrors.ErrBranchCreation):
		return fmt.Sprintf("Failed to create branch: %v", err)
	case errors.Is(err, kllcerrors.ErrTag), errors.Is(err, kllcerrors.ErrCommit):
		return fmt.Sprintf("Git Action Failed: %v", err)
	default:
		return err.Error()
	}
}
