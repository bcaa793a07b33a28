package widget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/conversation"
	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/message"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/observability"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/session"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/transport"
)

const (
	defaultTitle = "New Conversation"
	stoppedText  = "Response stopped."
)

// ErrDestroyed is returned by operations on a torn-down instance.
var ErrDestroyed = fmt.Errorf("%w: widget instance destroyed", app_errors.ErrNotFound)

// Instance is one chat surface with its own session, conversations and
// outstanding stream.
type Instance struct {
	id        string
	agentID   string
	sessionID string
	scope     session.Scope
	created   time.Time
	seq       uint64

	manager       *Manager
	container     *Container
	conversations *conversation.Store
	messages      *message.Store
	transport     *transport.Transport
	events        *broker

	// convMu orders conversation list mutations issued through this instance.
	convMu sync.Mutex

	mu        sync.Mutex
	cfg       Config
	open      bool
	destroyed bool
	convs     []model.Conversation
	current   string
	settings  *model.AgentSettings
	notified  map[string]bool
}

func newInstance(m *Manager, id string, cfg Config, identity session.Identity, container *Container) *Instance {
	inst := &Instance{
		id:            id,
		agentID:       cfg.AgentID,
		sessionID:     identity.ID,
		scope:         identity.Scope,
		created:       time.Now(),
		manager:       m,
		container:     container,
		conversations: m.conversations,
		events:        newBroker(),
		cfg:           cfg,
		open:          !cfg.floating(),
		notified:      make(map[string]bool),
	}
	if m.deps.Client != nil {
		inst.transport = transport.New(m.deps.Client)
	}
	inst.messages = message.NewStore(message.Options{
		AgentID:        cfg.AgentID,
		SessionID:      identity.ID,
		HasCredentials: m.deps.HasCredentials,
		MergeWindow:    m.deps.MergeWindow,
		Client:         m.deps.Client,
		Transport:      inst.transport,
		Cache:          m.deps.Storage,
		Conversations:  conversationSource{inst},
		OnChange:       inst.onMessageChange,
	})
	return inst
}

func (i *Instance) ID() string { return i.id }

func (i *Instance) SessionID() string { return i.sessionID }

func (i *Instance) Scope() session.Scope { return i.scope }

func (i *Instance) Config() Config {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cfg
}

func (i *Instance) IsOpen() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.open
}

// AgentSettings returns the settings fetched at init, if any.
func (i *Instance) AgentSettings() (model.AgentSettings, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.settings == nil {
		return model.AgentSettings{}, false
	}
	return *i.settings, true
}

// Container returns the host container the instance is mounted in.
func (i *Instance) Container() *Container { return i.container }

// Subscribe streams the instance's events until the returned func is called or
// the instance is destroyed.
func (i *Instance) Subscribe() (<-chan Event, func()) {
	return i.events.subscribe()
}

func (i *Instance) logCtx(ctx context.Context) context.Context {
	return observability.WithInstance(ctx, i.id, i.sessionID)
}

func (i *Instance) alive() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return ErrDestroyed
	}
	return nil
}

// restore loads agent settings, the session's conversations and the
// conversation that was current when the session was last used.
func (i *Instance) restore(ctx context.Context) {
	log := observability.FromContext(ctx)
	deps := i.manager.deps
	if deps.HasCredentials && deps.Client != nil {
		settings, err := deps.Client.GetAgentSettings(ctx, i.agentID)
		if err != nil {
			log.Warn("Failed to load agent settings", "error", err)
		} else if settings != nil {
			i.settings = settings
			i.messages.SetAgentInactive(!settings.IsActive)
		}
	}

	convs := i.conversations.List(ctx, i.sessionID)
	currentID := i.conversations.Current(ctx, i.sessionID)
	i.mu.Lock()
	i.convs = convs
	for _, c := range convs {
		if c.ID == currentID {
			i.current = currentID
		}
	}
	i.mu.Unlock()

	if conv, ok := i.CurrentConversation(); ok {
		if _, err := i.messages.LoadMessages(ctx, conv); err != nil {
			log.Warn("Failed to restore messages", "conversation_id", conv.ID, "error", err)
		}
	}
}

func (i *Instance) render() {
	i.mu.Lock()
	v := View{
		InstanceID: i.id,
		SessionID:  i.sessionID,
		Mode:       i.cfg.DisplayMode,
		Position:   i.cfg.Position,
		Width:      i.cfg.Width,
		Height:     i.cfg.Height,
		Theme:      i.cfg.Theme,
		Open:       i.open,
	}
	i.mu.Unlock()
	i.container.Mount(v)
}

func (i *Instance) Open()  { i.setOpen(true) }
func (i *Instance) Close() { i.setOpen(false) }

// Toggle flips the open flag and returns the new value.
func (i *Instance) Toggle() bool {
	i.mu.Lock()
	next := !i.open
	i.mu.Unlock()
	i.setOpen(next)
	return next
}

// setOpen tracks the flag for every mode; only launcher modes change
// visibility and fire callbacks.
func (i *Instance) setOpen(open bool) {
	i.mu.Lock()
	if i.destroyed || i.open == open {
		i.mu.Unlock()
		return
	}
	i.open = open
	floating := i.cfg.floating()
	cb := i.cfg.OnClose
	typ := EventClose
	if open {
		cb, typ = i.cfg.OnOpen, EventOpen
	}
	i.mu.Unlock()

	if !floating {
		return
	}
	i.container.SetVisible(open)
	i.events.publish(Event{Type: typ, InstanceID: i.id})
	if cb != nil {
		cb()
	}
}

// UpdateConfig applies patch and re-renders.
func (i *Instance) UpdateConfig(patch ConfigPatch) (Config, error) {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return Config{}, ErrDestroyed
	}
	next := patch.apply(i.cfg)
	if err := next.Validate(); err != nil {
		i.mu.Unlock()
		return Config{}, err
	}
	i.cfg = next
	i.mu.Unlock()
	i.render()
	return next, nil
}

// Refresh re-reads the session's conversations and reloads the current one.
func (i *Instance) Refresh(ctx context.Context) error {
	if err := i.alive(); err != nil {
		return err
	}
	ctx = i.logCtx(ctx)
	convs := i.conversations.List(ctx, i.sessionID)
	i.mu.Lock()
	i.convs = convs
	if _, ok := findConversation(convs, i.current); !ok {
		i.current = ""
		if len(convs) > 0 {
			i.current = convs[0].ID
		}
	}
	i.mu.Unlock()

	conv, ok := i.CurrentConversation()
	if !ok {
		return nil
	}
	_, err := i.messages.LoadMessages(ctx, conv)
	return err
}

// Destroy cancels outstanding work, unmounts the instance and removes every
// registration it made. Calling it again is a no-op.
func (i *Instance) Destroy(ctx context.Context) {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return
	}
	i.destroyed = true
	i.mu.Unlock()

	i.messages.CancelStreaming()
	if i.transport != nil {
		i.transport.CancelAll()
	}
	i.container.Unmount()
	if i.container.AutoCreated() {
		i.manager.deps.Host.Remove(i.container.ID())
	}
	i.manager.remove(i)
	i.events.publish(Event{Type: EventDestroyed, InstanceID: i.id})
	i.events.close()

	observability.FromContext(i.logCtx(ctx)).Info("Widget instance destroyed")
}

// Info describes the instance for debugging.
func (i *Instance) Info() InstanceInfo {
	i.mu.Lock()
	info := InstanceInfo{
		InstanceID:          i.id,
		SessionID:           i.sessionID,
		Scope:               i.scope,
		AgentID:             i.cfg.AgentID,
		Mode:                i.cfg.DisplayMode,
		ContainerID:         i.container.ID(),
		Open:                i.open,
		CurrentConversation: i.current,
		Conversations:       len(i.convs),
		CreatedAt:           i.created,
	}
	i.mu.Unlock()
	info.Pipeline = i.messages.State().String()
	if st, ok := i.messages.Stream(); ok {
		info.Streaming = st.Streaming
	}
	return info
}

// GetConversations returns the session's conversations, most recent first.
func (i *Instance) GetConversations(ctx context.Context) []model.Conversation {
	convs := i.conversations.List(i.logCtx(ctx), i.sessionID)
	i.mu.Lock()
	i.convs = convs
	i.mu.Unlock()
	return append([]model.Conversation(nil), convs...)
}

// CurrentConversation returns the selected conversation, if any.
func (i *Instance) CurrentConversation() (model.Conversation, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return findConversation(i.convs, i.current)
}

// SwitchConversation selects a conversation from the instance's cached list
// and loads its history. Unknown ids are ignored and report false.
func (i *Instance) SwitchConversation(ctx context.Context, id string) (bool, error) {
	if err := i.alive(); err != nil {
		return false, err
	}
	ctx = i.logCtx(ctx)

	i.convMu.Lock()
	i.mu.Lock()
	conv, ok := findConversation(i.convs, id)
	i.mu.Unlock()
	if !ok {
		i.convMu.Unlock()
		return false, nil
	}
	i.setCurrent(ctx, conv.ID)
	i.convMu.Unlock()

	i.notifyConversationChange(conv)
	_, err := i.messages.LoadMessages(ctx, conv)
	return true, err
}

// CreateConversation starts a conversation, server-side when possible and as
// a local-only conversation otherwise. A session at its limit gets a
// *errors.LimitError and the list is left untouched.
func (i *Instance) CreateConversation(ctx context.Context, title string) (model.Conversation, error) {
	if err := i.alive(); err != nil {
		return model.Conversation{}, err
	}
	ctx = i.logCtx(ctx)

	i.convMu.Lock()
	conv, err := i.createLocked(ctx, title)
	i.convMu.Unlock()
	if err != nil {
		return model.Conversation{}, err
	}
	i.notifyConversationChange(conv)
	i.syncPeers(ctx, listChange{})
	return conv, nil
}

func (i *Instance) createLocked(ctx context.Context, title string) (model.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}
	max := i.Config().MaxConversations

	convs := i.conversations.List(ctx, i.sessionID)
	if conversation.AtLimit(convs, max) {
		i.mu.Lock()
		i.convs = convs
		i.mu.Unlock()
		return model.Conversation{}, &app_errors.LimitError{SessionID: i.sessionID, Max: max}
	}

	conv := i.newConversation(ctx, title)
	convs, err := i.conversations.Add(ctx, i.sessionID, conv, max)
	i.mu.Lock()
	i.convs = convs
	i.mu.Unlock()
	if err != nil {
		return model.Conversation{}, err
	}
	i.setCurrent(ctx, conv.ID)
	i.messages.MarkEmpty(conv.ID)
	return conv, nil
}

// newConversation creates the conversation upstream, falling back to a local
// placeholder when that is impossible.
func (i *Instance) newConversation(ctx context.Context, title string) model.Conversation {
	now := time.Now().UTC()
	conv := model.Conversation{
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		SessionID: i.sessionID,
		AgentID:   i.agentID,
	}
	deps := i.manager.deps
	if deps.HasCredentials && deps.Client != nil {
		rec, err := deps.Client.CreateConversation(ctx, i.agentID, title)
		if err == nil && rec != nil {
			return applyRecord(conv, rec.ID, rec.SessionRef, rec.CreatedAt)
		}
		observability.FromContext(ctx).Warn("Failed to create conversation upstream, keeping it local", "error", err)
	}
	conv.ID = model.LocalConversationPrefix + uuid.NewString()
	return conv
}

func applyRecord(conv model.Conversation, id int64, sessionRef string, createdAt time.Time) model.Conversation {
	conv.ID = strconv.FormatInt(id, 10)
	if id == 0 {
		conv.ID = sessionRef
	}
	conv.SessionRef = sessionRef
	if !createdAt.IsZero() {
		conv.CreatedAt = createdAt
	}
	return conv
}

// UpdateConversationTitle renames a conversation, upstream first when synced.
func (i *Instance) UpdateConversationTitle(ctx context.Context, id, title string) (model.Conversation, error) {
	if err := i.alive(); err != nil {
		return model.Conversation{}, err
	}
	ctx = i.logCtx(ctx)
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Conversation{}, fmt.Errorf("%w: title cannot be empty", app_errors.ErrValidation)
	}

	updated, err := i.rename(ctx, id, title)
	if err != nil {
		return model.Conversation{}, err
	}
	i.events.publish(Event{Type: EventConversationUpdate, InstanceID: i.id, ConversationID: id, Conversation: &updated})
	i.syncPeers(ctx, listChange{})
	return updated, nil
}

func (i *Instance) rename(ctx context.Context, id, title string) (model.Conversation, error) {
	i.convMu.Lock()
	defer i.convMu.Unlock()

	conv, ok := i.conversations.Get(ctx, i.sessionID, id)
	if !ok {
		return model.Conversation{}, fmt.Errorf("conversation %s: %w", id, app_errors.ErrNotFound)
	}
	if i.synced(conv) {
		if err := i.manager.deps.Client.UpdateConversation(ctx, i.agentID, conv.SessionRef, title); err != nil {
			return model.Conversation{}, fmt.Errorf("rename conversation: %w", err)
		}
	}
	updated, err := i.conversations.Rename(ctx, i.sessionID, id, title)
	if err != nil {
		return model.Conversation{}, err
	}
	i.GetConversations(ctx)
	return updated, nil
}

// DeleteConversation removes a conversation. When it was current the most
// recent remaining conversation becomes current, or a new one is created.
func (i *Instance) DeleteConversation(ctx context.Context, id string) error {
	if err := i.alive(); err != nil {
		return err
	}
	ctx = i.logCtx(ctx)
	log := observability.FromContext(ctx).With("conversation_id", id)

	i.convMu.Lock()
	conv, ok := i.conversations.Get(ctx, i.sessionID, id)
	if !ok {
		i.convMu.Unlock()
		return fmt.Errorf("conversation %s: %w", id, app_errors.ErrNotFound)
	}
	if i.synced(conv) {
		err := i.manager.deps.Client.DeleteConversation(ctx, i.agentID, conv.SessionRef)
		if err != nil && !errors.Is(err, app_errors.ErrNotFound) {
			i.convMu.Unlock()
			return fmt.Errorf("delete conversation: %w", err)
		}
	}
	if st, streaming := i.messages.Stream(); streaming && st.ConversationID == id {
		i.messages.CancelStreaming()
	}

	remaining, err := i.conversations.Remove(ctx, i.sessionID, id)
	if errors.Is(err, app_errors.ErrNotFound) {
		i.convMu.Unlock()
		return err
	}
	if err != nil {
		log.Warn("Failed to persist conversation removal", "error", err)
	}
	i.messages.Forget(id)

	i.mu.Lock()
	i.convs = remaining
	wasCurrent := i.current == id
	i.mu.Unlock()

	var next model.Conversation
	if wasCurrent {
		if len(remaining) > 0 {
			next = remaining[0]
			i.setCurrent(ctx, next.ID)
		} else if next, err = i.createLocked(ctx, ""); err != nil {
			i.convMu.Unlock()
			return err
		}
	}
	i.convMu.Unlock()

	log.Info("Conversation deleted", "was_current", wasCurrent)
	i.syncPeers(ctx, listChange{removed: id})
	if !wasCurrent {
		return nil
	}
	i.notifyConversationChange(next)
	if _, err := i.messages.LoadMessages(ctx, next); err != nil {
		log.Warn("Failed to load messages after delete", "next_conversation_id", next.ID, "error", err)
	}
	return nil
}

func (i *Instance) synced(conv model.Conversation) bool {
	deps := i.manager.deps
	return !conv.IsLocal() && conv.SessionRef != "" && deps.HasCredentials && deps.Client != nil
}

// setCurrent selects id and persists the choice for the session.
func (i *Instance) setCurrent(ctx context.Context, id string) {
	i.mu.Lock()
	i.current = id
	i.mu.Unlock()
	if err := i.conversations.SetCurrent(ctx, i.sessionID, id); err != nil {
		observability.FromContext(ctx).Warn("Failed to persist current conversation", "error", err)
	}
}

func (i *Instance) notifyConversationChange(conv model.Conversation) {
	i.events.publish(Event{Type: EventConversationChange, InstanceID: i.id, ConversationID: conv.ID, Conversation: &conv})
	if cb := i.Config().OnConversationChange; cb != nil {
		cb(conv)
	}
}

// Messages returns the loaded messages of a conversation.
func (i *Instance) Messages(conversationID string) []model.ChatMessage {
	return i.messages.Messages(conversationID)
}

// LoadMessages (re)loads the history of a conversation of this session.
func (i *Instance) LoadMessages(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	ctx = i.logCtx(ctx)
	conv, ok := i.conversations.Get(ctx, i.sessionID, conversationID)
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, app_errors.ErrNotFound)
	}
	return i.messages.LoadMessages(ctx, conv)
}

// SendMessage sends text in the current conversation; see message.Store.SendMessage.
func (i *Instance) SendMessage(ctx context.Context, text string, files []model.Attachment) (model.ChatMessage, error) {
	if err := i.alive(); err != nil {
		return model.ChatMessage{}, err
	}
	return i.messages.SendMessage(i.logCtx(ctx), text, files)
}

// RegenerateLastResponse asks again for the last answer of the current conversation.
func (i *Instance) RegenerateLastResponse(ctx context.Context) (model.ChatMessage, error) {
	if err := i.alive(); err != nil {
		return model.ChatMessage{}, err
	}
	return i.messages.RegenerateLastResponse(i.logCtx(ctx))
}

// UpdateMessageFeedback records a reaction on an assistant message.
func (i *Instance) UpdateMessageFeedback(ctx context.Context, conversationID, messageID string, feedback model.Feedback) error {
	if err := i.alive(); err != nil {
		return err
	}
	ctx = i.logCtx(ctx)
	conv, ok := i.conversations.Get(ctx, i.sessionID, conversationID)
	if !ok {
		return fmt.Errorf("conversation %s: %w", conversationID, app_errors.ErrNotFound)
	}
	return i.messages.UpdateMessageFeedback(ctx, conv, messageID, feedback)
}

// CancelStreaming aborts the outstanding send and marks its assistant message
// as stopped. It reports whether there was anything to cancel.
func (i *Instance) CancelStreaming() bool {
	st, ok := i.messages.Stream()
	if !i.messages.CancelStreaming() {
		return false
	}
	if ok && st.Message.ID != "" {
		i.messages.MarkInterrupted(st.ConversationID, st.Message.ID, stoppedText)
	}
	return true
}

// Stream returns the outstanding stream, if any.
func (i *Instance) Stream() (message.StreamState, bool) {
	return i.messages.Stream()
}

// Wait blocks until background message work has finished.
func (i *Instance) Wait() { i.messages.Wait() }

func (i *Instance) onMessageChange(c message.Change) {
	msg := c.Message
	e := Event{Type: EventMessage, InstanceID: i.id, ConversationID: c.ConversationID, Message: &msg, PreviousID: c.PreviousID}
	if c.Removed {
		e.Type = EventMessageRemoved
	}
	i.events.publish(e)

	if c.Removed || msg.Status == model.StatusSending {
		return
	}
	i.mu.Lock()
	first := !i.notified[msg.ID] && !i.notified[c.PreviousID]
	i.notified[msg.ID] = true
	cb := i.cfg.OnMessage
	i.mu.Unlock()
	if first && cb != nil {
		cb(msg)
	}
}

// ensureConversation backs the message store: it returns the current
// conversation, promoting a local one upstream when possible, or creates one.
func (i *Instance) ensureConversation(ctx context.Context, title string) (model.Conversation, error) {
	i.convMu.Lock()
	conv, ok := i.CurrentConversation()
	if !ok {
		created, err := i.createLocked(ctx, title)
		i.convMu.Unlock()
		if err != nil {
			return model.Conversation{}, err
		}
		i.notifyConversationChange(created)
		i.syncPeers(ctx, listChange{})
		return created, nil
	}
	if !conv.IsLocal() || !i.manager.deps.HasCredentials || i.manager.deps.Client == nil {
		i.convMu.Unlock()
		return conv, nil
	}

	promoted, err := i.promote(ctx, conv)
	i.convMu.Unlock()
	if err != nil {
		observability.FromContext(ctx).Warn("Failed to sync local conversation", "conversation_id", conv.ID, "error", err)
		return conv, nil
	}
	i.events.publish(Event{Type: EventConversationUpdate, InstanceID: i.id, ConversationID: promoted.ID, Conversation: &promoted, PreviousID: conv.ID})
	i.syncPeers(ctx, listChange{renamedFrom: conv.ID, renamedTo: promoted.ID})
	return promoted, nil
}

// promote creates a local conversation upstream and moves its state to the
// server-issued id.
func (i *Instance) promote(ctx context.Context, conv model.Conversation) (model.Conversation, error) {
	rec, err := i.manager.deps.Client.CreateConversation(ctx, i.agentID, conv.Title)
	if err != nil {
		return model.Conversation{}, err
	}
	if rec == nil {
		return model.Conversation{}, fmt.Errorf("%w: empty conversation response", app_errors.ErrUpstream)
	}
	promoted := applyRecord(conv, rec.ID, rec.SessionRef, time.Time{})
	promoted.UpdatedAt = time.Now().UTC()
	if err := i.conversations.Replace(ctx, i.sessionID, conv.ID, promoted); err != nil {
		return model.Conversation{}, err
	}
	i.messages.Rekey(ctx, conv.ID, promoted.ID)
	i.GetConversations(ctx)
	i.setCurrent(ctx, promoted.ID)
	return promoted, nil
}

// listChange describes a conversation list update made by one instance so the
// others sharing its session can follow it.
type listChange struct {
	removed     string
	renamedFrom string
	renamedTo   string
}

// syncPeers refreshes every other live instance registered under this session.
func (i *Instance) syncPeers(ctx context.Context, change listChange) {
	for _, peer := range i.manager.registry.Lookup(i.sessionID) {
		if peer != i {
			peer.reloadConversations(ctx, change)
		}
	}
}

// reloadConversations re-reads the session's list after a peer changed it and
// moves the current pointer off conversations that are gone.
func (i *Instance) reloadConversations(ctx context.Context, change listChange) {
	if i.alive() != nil {
		return
	}
	ctx = i.logCtx(ctx)
	convs := i.conversations.List(ctx, i.sessionID)

	i.mu.Lock()
	i.convs = convs
	previous := i.current
	if change.renamedFrom != "" && i.current == change.renamedFrom {
		i.current = change.renamedTo
	}
	if _, ok := findConversation(convs, i.current); !ok {
		i.current = ""
		if len(convs) > 0 {
			i.current = convs[0].ID
		}
	}
	next, hasNext := findConversation(convs, i.current)
	i.mu.Unlock()

	if change.removed != "" {
		i.messages.Forget(change.removed)
	}
	if change.renamedFrom != "" {
		i.messages.Forget(change.renamedFrom)
		if renamed, ok := findConversation(convs, change.renamedTo); ok {
			i.events.publish(Event{Type: EventConversationUpdate, InstanceID: i.id, ConversationID: renamed.ID, Conversation: &renamed, PreviousID: change.renamedFrom})
		}
	}
	if !hasNext || next.ID == previous || next.ID == change.renamedTo && previous == change.renamedFrom {
		return
	}
	i.notifyConversationChange(next)
	if _, err := i.messages.LoadMessages(ctx, next); err != nil {
		observability.FromContext(ctx).Warn("Failed to load messages after peer change", "conversation_id", next.ID, "error", err)
	}
}

// conversationSource adapts an Instance to message.ConversationSource.
type conversationSource struct{ i *Instance }

func (s conversationSource) Current(context.Context) (model.Conversation, bool) {
	return s.i.CurrentConversation()
}

func (s conversationSource) EnsureConversation(ctx context.Context, title string) (model.Conversation, error) {
	return s.i.ensureConversation(ctx, title)
}

func findConversation(convs []model.Conversation, id string) (model.Conversation, bool) {
	if id == "" {
		return model.Conversation{}, false
	}
	for _, c := range convs {
		if c.ID == id {
			return c, true
		}
	}
	return model.Conversation{}, false
}
