package message

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/citation"
	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/observability"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/storage"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/transport"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream"
)

const (
	defaultHistoryTurns = 20
	backgroundTimeout   = 30 * time.Second
	titleRunes          = 50
)

// ConversationSource exposes the owning instance's conversation selection.
type ConversationSource interface {
	Current(ctx context.Context) (model.Conversation, bool)
	// EnsureConversation returns the current conversation, creating one titled
	// title when there is none. A local conversation should be promoted to the
	// server when possible before it is returned.
	EnsureConversation(ctx context.Context, title string) (model.Conversation, error)
}

// Change describes one message mutation.
type Change struct {
	ConversationID string
	Message        model.ChatMessage
	PreviousID     string // set when the message id was rewritten
	Removed        bool
}

type Options struct {
	AgentID        string
	SessionID      string
	HasCredentials bool
	MergeWindow    time.Duration
	HistoryTurns   int

	Client        upstream.Client
	Transport     *transport.Transport
	Citations     *citation.Resolver
	Cache         *storage.Adapter
	Conversations ConversationSource
	OnChange      func(Change)
	Now           func() time.Time
}

// StreamState is a snapshot of the one outstanding stream of an instance.
type StreamState struct {
	ConversationID string
	Message        model.ChatMessage
	Streaming      bool
}

// run is the bookkeeping of one send.
type run struct {
	seq            uint64
	conversationID string
	userID         string
	assistantID    string
	promptID       int64
	streaming      bool
	cancelled      bool
	handle         *transport.Handle
}

// Store holds the messages of one widget instance keyed by conversation id and
// drives the send/stream/fallback pipeline for it.
type Store struct {
	opts Options
	now  func() time.Time

	mu       sync.Mutex
	messages map[string][]model.ChatMessage
	loaded   map[string]bool
	aliases  map[string]string
	state    State
	active   *run
	seq      uint64

	agentInactive atomic.Bool
	wg            sync.WaitGroup
}

func NewStore(opts Options) *Store {
	if opts.MergeWindow <= 0 {
		opts.MergeWindow = DefaultMergeWindow
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = defaultHistoryTurns
	}
	if opts.Citations == nil && opts.Client != nil {
		opts.Citations = citation.NewResolver(opts.Client)
	}
	if opts.Transport == nil && opts.Client != nil {
		opts.Transport = transport.New(opts.Client)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		opts:     opts,
		now:      now,
		messages: make(map[string][]model.ChatMessage),
		loaded:   make(map[string]bool),
		aliases:  make(map[string]string),
	}
}

// Messages returns a copy of the conversation's messages in timestamp order.
func (s *Store) Messages(conversationID string) []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.messages[conversationID])
}

// Loaded reports whether the conversation's history has been loaded or synthesised.
func (s *Store) Loaded(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[conversationID]
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stream returns the outstanding stream, if any.
func (s *Store) Stream() (StreamState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.active
	if r == nil {
		return StreamState{}, false
	}
	st := StreamState{ConversationID: r.conversationID, Streaming: r.streaming}
	if i := s.indexLocked(r.conversationID, r.assistantID); i >= 0 {
		st.Message = s.messages[r.conversationID][i].Clone()
	}
	return st, true
}

// SetAgentInactive records whether the agent is known to be inactive.
func (s *Store) SetAgentInactive(inactive bool) {
	s.agentInactive.Store(inactive)
}

// Wait blocks until background enrichment and citation resolution finish.
func (s *Store) Wait() {
	s.wg.Wait()
}

// MarkEmpty records a conversation known to have no history yet.
func (s *Store) MarkEmpty(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[conversationID]; !ok {
		s.messages[conversationID] = []model.ChatMessage{}
	}
	s.loaded[conversationID] = true
}

// Forget drops the in-memory messages of a conversation.
func (s *Store) Forget(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, conversationID)
	delete(s.loaded, conversationID)
}

// Rekey moves messages from a local conversation id to its server id.
func (s *Store) Rekey(ctx context.Context, oldID, newID string) {
	s.mu.Lock()
	if msgs, ok := s.messages[oldID]; ok {
		s.messages[newID] = msgs
		delete(s.messages, oldID)
	}
	if s.loaded[oldID] {
		s.loaded[newID] = true
		delete(s.loaded, oldID)
	}
	if s.active != nil && s.active.conversationID == oldID {
		s.active.conversationID = newID
	}
	s.mu.Unlock()

	if s.opts.Cache != nil {
		_ = s.opts.Cache.Delete(ctx, s.opts.SessionID, storage.MessagesName(oldID))
	}
	s.persist(ctx, newID)
}

// LoadMessages replaces the conversation's messages with the server history,
// keeping recent optimistic sends. Local-only conversations and stores without
// credentials skip the network and get an empty entry.
func (s *Store) LoadMessages(ctx context.Context, conv model.Conversation) ([]model.ChatMessage, error) {
	id := conv.ID
	if conv.IsLocal() || !s.opts.HasCredentials || s.opts.Client == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.messages[id]; !ok {
			s.messages[id] = []model.ChatMessage{}
		}
		s.loaded[id] = true
		return cloneAll(s.messages[id]), nil
	}

	log := observability.FromContext(ctx).With("conversation_id", id)
	records, err := s.opts.Client.GetMessages(ctx, s.opts.AgentID, conv.SessionRef)
	if err != nil {
		cached, ok := s.readCache(ctx, id)
		s.mu.Lock()
		defer s.mu.Unlock()
		if ok {
			log.Warn("Failed to load messages, using local cache", "error", err)
			s.messages[id] = MergePending(cached, s.messages[id], s.now(), s.opts.MergeWindow, s.pinnedLocked())
			s.loaded[id] = true
			return cloneAll(s.messages[id]), nil
		}
		log.Error("Failed to load messages", "error", err)
		return cloneAll(s.messages[id]), fmt.Errorf("load messages: %w", err)
	}

	server := make([]model.ChatMessage, 0, 2*len(records))
	for _, rec := range records {
		cits := s.opts.Citations.Resolve(ctx, s.opts.AgentID, rec.CitationIDs)
		user, assistant := recordToMessages(rec, cits)
		server = append(server, user, assistant)
	}
	SortByTimestamp(server)

	s.mu.Lock()
	merged := MergePending(server, s.messages[id], s.now(), s.opts.MergeWindow, s.pinnedLocked())
	s.messages[id] = merged
	s.loaded[id] = true
	out := cloneAll(merged)
	s.mu.Unlock()

	log.Debug("Loaded messages", "server", len(server), "merged", len(out))
	s.persist(ctx, id)
	return out, nil
}

// UpdateMessageFeedback applies feedback locally, then upstream, reverting the
// local change when the upstream call fails.
func (s *Store) UpdateMessageFeedback(ctx context.Context, conv model.Conversation, messageID string, feedback model.Feedback) error {
	s.mu.Lock()
	i := s.indexLocked(conv.ID, messageID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("message %s: %w", messageID, app_errors.ErrNotFound)
	}
	msg := &s.messages[conv.ID][i]
	promptID := promptIDOf(*msg)
	if promptID == 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: message %s is not synced yet", app_errors.ErrValidation, messageID)
	}
	previous := msg.Feedback
	msg.Feedback = feedback
	updated := msg.Clone()
	s.mu.Unlock()
	s.emit(Change{ConversationID: conv.ID, Message: updated})

	if err := s.opts.Client.UpdateMessageFeedback(ctx, s.opts.AgentID, conv.SessionRef, promptID, feedback); err != nil {
		reverted, ok := s.update(conv.ID, updated.ID, func(m *model.ChatMessage) { m.Feedback = previous })
		if ok {
			s.emit(Change{ConversationID: conv.ID, Message: reverted})
		}
		observability.FromContext(ctx).Warn("Feedback update failed, reverted", "message_id", messageID, "error", err)
		return fmt.Errorf("update feedback: %w", err)
	}
	s.persist(ctx, conv.ID)
	return nil
}

// MarkInterrupted flags a message that stopped mid-stream.
func (s *Store) MarkInterrupted(conversationID, messageID, text string) {
	msg, ok := s.update(conversationID, messageID, func(m *model.ChatMessage) {
		if m.Status != model.StatusSending {
			return
		}
		m.Status = model.StatusError
		if m.Content == "" {
			m.Content = text
		}
	})
	if ok {
		s.emit(Change{ConversationID: conversationID, Message: msg})
	}
}

func (s *Store) emit(changes ...Change) {
	if s.opts.OnChange == nil {
		return
	}
	for _, c := range changes {
		s.opts.OnChange(c)
	}
}

// update applies fn to the message and returns its new value.
func (s *Store) update(conversationID, id string, fn func(*model.ChatMessage)) (model.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(conversationID, id, fn)
}

func (s *Store) updateLocked(conversationID, id string, fn func(*model.ChatMessage)) (model.ChatMessage, bool) {
	i := s.indexLocked(conversationID, id)
	if i < 0 {
		return model.ChatMessage{}, false
	}
	fn(&s.messages[conversationID][i])
	return s.messages[conversationID][i].Clone(), true
}

// indexLocked finds a message by id, following id rewrites.
func (s *Store) indexLocked(conversationID, id string) int {
	for hops := 0; hops < 4; hops++ {
		for i, m := range s.messages[conversationID] {
			if m.ID == id {
				return i
			}
		}
		next, ok := s.aliases[id]
		if !ok {
			break
		}
		id = next
	}
	return -1
}

func (s *Store) appendLocked(conversationID string, msg model.ChatMessage) {
	msgs := append(s.messages[conversationID], msg)
	SortByTimestamp(msgs)
	s.messages[conversationID] = msgs
}

func (s *Store) removeLocked(conversationID, id string) (model.ChatMessage, bool) {
	i := s.indexLocked(conversationID, id)
	if i < 0 {
		return model.ChatMessage{}, false
	}
	msgs := s.messages[conversationID]
	removed := msgs[i]
	s.messages[conversationID] = append(msgs[:i:i], msgs[i+1:]...)
	return removed, true
}

func (s *Store) pinnedLocked() map[string]bool {
	if s.active == nil {
		return nil
	}
	return map[string]bool{s.active.userID: true, s.active.assistantID: true}
}

func (s *Store) readCache(ctx context.Context, conversationID string) ([]model.ChatMessage, bool) {
	if s.opts.Cache == nil {
		return nil, false
	}
	var cached []model.ChatMessage
	found, err := s.opts.Cache.GetJSON(ctx, s.opts.SessionID, storage.MessagesName(conversationID), &cached)
	if err != nil || !found {
		return nil, false
	}
	return cached, true
}

// persist writes the conversation's messages to the cache. Failures are logged
// and otherwise ignored.
func (s *Store) persist(ctx context.Context, conversationID string) {
	if s.opts.Cache == nil {
		return
	}
	msgs := s.Messages(conversationID)
	if err := s.opts.Cache.SetJSON(ctx, s.opts.SessionID, storage.MessagesName(conversationID), msgs); err != nil {
		observability.FromContext(ctx).Warn("Failed to cache messages", "conversation_id", conversationID, "error", err)
	}
}

func cloneAll(msgs []model.ChatMessage) []model.ChatMessage {
	out := make([]model.ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// promptIDOf returns the server prompt id of a reconciled message, or 0.
func promptIDOf(m model.ChatMessage) int64 {
	if m.Details != nil && m.Details.PromptID != 0 {
		return m.Details.PromptID
	}
	rest, ok := strings.CutPrefix(m.ID, "msg_")
	if !ok {
		return 0
	}
	num, _, _ := strings.Cut(rest, "_")
	id, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// truncate shortens a string to a specified number of runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
