package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream"
)

// Streamer is the part of the upstream client the transport drives.
type Streamer interface {
	SendMessageStream(ctx context.Context, agentID, sessionRef string, payload upstream.MessagePayload, cb upstream.StreamCallbacks) error
}

// Request addresses one streaming send.
type Request struct {
	AgentID    string
	SessionRef string
	Payload    upstream.MessagePayload
}

// Handlers receive the decoded stream. OnError fires at most once and nothing
// fires after it. OnComplete fires at most once and never after OnError.
type Handlers struct {
	OnChunk    func(model.StreamChunk)
	OnError    func(error)
	OnComplete func()
}

// Transport opens streaming requests and keeps track of them so they can all
// be aborted at once.
type Transport struct {
	streamer Streamer

	mu     sync.Mutex
	next   uint64
	active map[uint64]context.CancelFunc
}

func New(streamer Streamer) *Transport {
	return &Transport{
		streamer: streamer,
		active:   make(map[uint64]context.CancelFunc),
	}
}

// Handle controls one open stream.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel aborts the stream. Safe to call more than once.
func (h *Handle) Cancel() { h.cancel() }

// Wait blocks until the stream has finished and returns its error, if any.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Done is closed once the stream has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Open starts the request in the background.
func (t *Transport) Open(ctx context.Context, req Request, h Handlers) *Handle {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.next++
	id := t.next
	t.active[id] = cancel
	t.mu.Unlock()

	handle := &Handle{cancel: cancel, done: make(chan struct{})}
	g := &guard{h: h}

	go func() {
		defer close(handle.done)
		defer t.release(id)
		defer cancel()

		err := t.streamer.SendMessageStream(ctx, req.AgentID, req.SessionRef, req.Payload, upstream.StreamCallbacks{
			OnChunk:    g.chunk,
			OnError:    g.fail,
			OnComplete: g.complete,
		})
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		if err != nil {
			switch {
			case ctx.Err() != nil:
				err = ctx.Err()
			case !errors.Is(err, app_errors.ErrTransport) && !errors.Is(err, app_errors.ErrUpstream):
				err = fmt.Errorf("%w: %v", app_errors.ErrTransport, err)
			}
			g.fail(err)
			handle.err = g.failure()
			return
		}
		g.complete()
		handle.err = g.failure()
	}()
	return handle
}

// CancelAll aborts every outstanding stream opened by this transport.
func (t *Transport) CancelAll() {
	t.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(t.active))
	for _, c := range t.active {
		cancels = append(cancels, c)
	}
	t.mu.Unlock()

	for _, c := range cancels {
		c()
	}
}

// Active returns the number of streams still running.
func (t *Transport) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

func (t *Transport) release(id uint64) {
	t.mu.Lock()
	delete(t.active, id)
	t.mu.Unlock()
}

// guard enforces the callback ordering contract whatever the streamer does.
type guard struct {
	mu       sync.Mutex
	h        Handlers
	err      error
	finished bool
}

func (g *guard) chunk(c model.StreamChunk) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finished || g.h.OnChunk == nil {
		return
	}
	g.h.OnChunk(c)
}

func (g *guard) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finished {
		return
	}
	g.finished = true
	g.err = err
	if g.h.OnError != nil {
		g.h.OnError(err)
	}
}

func (g *guard) complete() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finished {
		return
	}
	g.finished = true
	if g.h.OnComplete != nil {
		g.h.OnComplete()
	}
}

func (g *guard) failure() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}
