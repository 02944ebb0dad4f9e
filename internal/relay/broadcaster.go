package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatrelay/chat-system/internal/api/metrics"
	"github.com/chatrelay/chat-system/internal/core/domain"
	"github.com/chatrelay/chat-system/internal/core/ports"
)

const (
	defaultQueueSize      = 256
	defaultPersistTimeout = 5 * time.Second
	presenceTimeout       = 2 * time.Second
)

// Presence is the optional online-presence store updated as sessions come and
// go. Every call is best-effort; failures are logged and never affect relay.
type Presence interface {
	Track(ctx context.Context, sessionID, identity string) error
	Untrack(ctx context.Context, sessionID string) error
}

// Options controls broadcast policy.
type Options struct {
	// EchoSender delivers a message back to its own sender, letting the
	// sender's UI confirm receipt over the same channel as everyone else.
	EchoSender bool
	// RequireAuth drops chat events from sessions that never authenticated.
	// When set, the session's verified identity overrides the claimed sender.
	RequireAuth bool
	// QueueSize is the inbound event buffer. Defaults to 256.
	QueueSize int
	// PersistTimeout bounds a single message store write. Defaults to 5s.
	PersistTimeout time.Duration
}

// Broadcaster is the broadcast engine. A single goroutine drains the event
// queue, so each message's stamp → persist → fan-out pass is atomic with
// respect to every other message: all recipients observe one global delivery
// order, and per-sender arrival order is preserved.
type Broadcaster struct {
	registry *Registry
	messages ports.MessageRepository
	presence Presence
	log      zerolog.Logger
	opts     Options

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
}

// NewBroadcaster wires the engine. presence may be nil.
func NewBroadcaster(registry *Registry, messages ports.MessageRepository, presence Presence, log zerolog.Logger, opts Options) *Broadcaster {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	return &Broadcaster{
		registry: registry,
		messages: messages,
		presence: presence,
		log:      log,
		opts:     opts,
		events:   make(chan Event, opts.QueueSize),
		done:     make(chan struct{}),
	}
}

// Start launches the engine loop. The loop exits when ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	go b.run(ctx)
}

// Enqueue forwards an event to the engine. It blocks while the queue is full,
// which back-pressures the connection's read loop and keeps that sender's
// events in arrival order. Returns false once the engine has stopped.
func (b *Broadcaster) Enqueue(ev Event) bool {
	select {
	case b.events <- ev:
		return true
	case <-b.done:
		return false
	}
}

func (b *Broadcaster) run(ctx context.Context) {
	defer b.stopOnce.Do(func() { close(b.done) })

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.events:
			switch ev.Kind {
			case EventConnect:
				b.handleConnect(ctx, ev)
			case EventChatSend:
				b.handleChat(ctx, ev)
			case EventDisconnect:
				b.handleDisconnect(ctx, ev)
			}
		}
	}
}

func (b *Broadcaster) handleConnect(ctx context.Context, ev Event) {
	metrics.SessionsAdmittedTotal.Inc()
	metrics.SessionsLive.Inc()

	b.trackPresence(ctx, ev.Session)

	b.log.Info().
		Str("session_id", ev.Session.ID()).
		Str("state", ev.Session.State().String()).
		Int("live", b.registry.Len()).
		Msg("session admitted")
}

func (b *Broadcaster) handleDisconnect(ctx context.Context, ev Event) {
	if !b.registry.Remove(ev.Session) {
		return
	}
	ev.Session.Conn().Close()
	metrics.SessionsLive.Dec()

	b.untrackPresence(ctx, ev.Session)

	b.log.Info().
		Str("session_id", ev.Session.ID()).
		Int("live", b.registry.Len()).
		Msg("session removed")
}

// handleChat runs the full stamp → persist → fan-out sequence for one inbound
// chat event. Persistence failure never gates delivery.
func (b *Broadcaster) handleChat(ctx context.Context, ev Event) {
	sender := ev.Sender
	if b.opts.RequireAuth {
		if ev.Session == nil || ev.Session.State() != StateAuthenticated {
			metrics.MessagesDroppedTotal.WithLabelValues("unauthenticated").Inc()
			b.log.Warn().Str("sender", ev.Sender).Msg("chat event from unauthenticated session dropped")
			return
		}
		if id := ev.Session.Identity(); id != "" {
			sender = id
		}
	}

	start := time.Now()
	msg := domain.ChatMessage{
		Sender:    sender,
		Content:   ev.Content,
		Timestamp: start.UTC(),
	}

	persistCtx, cancel := context.WithTimeout(ctx, b.opts.PersistTimeout)
	if err := b.messages.Insert(persistCtx, &msg); err != nil {
		metrics.PersistFailuresTotal.Inc()
		b.log.Warn().Err(err).Str("sender", msg.Sender).Msg("message persistence failed, broadcasting anyway")
	}
	cancel()

	b.deliver(ctx, &msg, ev.Session)

	metrics.MessagesBroadcastTotal.Inc()
	metrics.BroadcastDuration.Observe(time.Since(start).Seconds())
}

// deliver fans the message out over a snapshot of the live set. A recipient
// whose send buffer is full is evicted after the pass; its failure never
// aborts delivery to the remaining recipients.
func (b *Broadcaster) deliver(ctx context.Context, msg *domain.ChatMessage, from *Session) {
	payload, err := EncodeMessage(msg)
	if err != nil {
		b.log.Error().Err(err).Msg("encode message")
		return
	}

	var failed []*Session
	for _, s := range b.registry.Snapshot() {
		if !b.opts.EchoSender && s == from {
			continue
		}
		if !s.Conn().Send(payload) {
			failed = append(failed, s)
		}
	}

	for _, s := range failed {
		if !b.registry.Remove(s) {
			continue
		}
		s.Conn().Close()
		metrics.SessionsLive.Dec()
		metrics.SessionsEvictedTotal.Inc()
		b.untrackPresence(ctx, s)
		b.log.Warn().Str("session_id", s.ID()).Msg("session evicted: send buffer full")
	}
}

func (b *Broadcaster) trackPresence(ctx context.Context, s *Session) {
	if b.presence == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()
	if err := b.presence.Track(pctx, s.ID(), s.Identity()); err != nil {
		b.log.Warn().Err(err).Str("session_id", s.ID()).Msg("presence track failed")
	}
}

func (b *Broadcaster) untrackPresence(ctx context.Context, s *Session) {
	if b.presence == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()
	if err := b.presence.Untrack(pctx, s.ID()); err != nil {
		b.log.Warn().Err(err).Str("session_id", s.ID()).Msg("presence untrack failed")
	}
}

// wireMessage is the outbound chat payload.
type wireMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// EncodeMessage renders a chat message as its wire payload. The websocket
// layer reuses it for history replay so live and replayed traffic share one
// encoding.
func EncodeMessage(msg *domain.ChatMessage) ([]byte, error) {
	return json.Marshal(wireMessage{
		Sender:    msg.Sender,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	})
}
