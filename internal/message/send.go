package message

import (
	"context"
	"errors"
	"fmt"
	"strings"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/observability"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/transport"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream"
)

// SendMessage sends text (and optional files) in the current conversation,
// creating one if needed. The user message is visible before any network call.
// It blocks until the assistant message is final and returns it; a failed
// response is reported through the message status rather than the error.
func (s *Store) SendMessage(ctx context.Context, text string, files []model.Attachment) (model.ChatMessage, error) {
	return s.send(ctx, text, files, "")
}

// RegenerateLastResponse drops the last assistant answer and sends its user
// message again. The removed answer is restored if the send is refused before
// it starts; a cancelled regenerate keeps the new question and partial answer.
func (s *Store) RegenerateLastResponse(ctx context.Context) (model.ChatMessage, error) {
	conv, ok := s.opts.Conversations.Current(ctx)
	if !ok {
		return model.ChatMessage{}, fmt.Errorf("%w: no current conversation", app_errors.ErrNotFound)
	}

	s.mu.Lock()
	if s.state.Busy() {
		s.mu.Unlock()
		return model.ChatMessage{}, app_errors.ErrStreamInProgress
	}
	msgs := s.messages[conv.ID]
	ai, ui := -1, -1
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant && msgs[i].Status != model.StatusError {
			ai = i
			break
		}
	}
	for i := ai - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleUser {
			ui = i
			break
		}
	}
	if ai < 0 || ui < 0 {
		s.mu.Unlock()
		return model.ChatMessage{}, fmt.Errorf("%w: nothing to regenerate", app_errors.ErrNotFound)
	}
	user, assistant := msgs[ui].Clone(), msgs[ai].Clone()
	s.removeLocked(conv.ID, assistant.ID)
	s.mu.Unlock()
	s.emit(Change{ConversationID: conv.ID, Message: assistant, Removed: true})

	msg, err := s.send(ctx, user.Content, nil, user.ID)
	if err != nil {
		// A send that got as far as replacing the user message keeps its own
		// exchange; only a refused send gets the old answer back.
		s.mu.Lock()
		restore := s.indexLocked(conv.ID, user.ID) >= 0 && s.indexLocked(conv.ID, assistant.ID) < 0
		if restore {
			s.appendLocked(conv.ID, assistant)
		}
		s.mu.Unlock()
		if restore {
			s.emit(Change{ConversationID: conv.ID, Message: assistant})
		}
		return msg, err
	}
	return msg, nil
}

// CancelStreaming aborts the outstanding send, if any. The partial assistant
// message is left as is.
func (s *Store) CancelStreaming() bool {
	s.mu.Lock()
	r := s.active
	if r == nil {
		s.mu.Unlock()
		return false
	}
	r.cancelled = true
	s.active = nil
	s.advanceLocked(r, EventCancelled)
	h := r.handle
	s.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
	return true
}

func (s *Store) send(ctx context.Context, text string, files []model.Attachment, replaceUserID string) (model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(files) == 0 {
		return model.ChatMessage{}, fmt.Errorf("%w: message is empty", app_errors.ErrValidation)
	}
	if s.opts.AgentID == "" || !s.opts.HasCredentials || s.opts.Client == nil {
		return model.ChatMessage{}, fmt.Errorf("%w: agent id and api key are required to send messages", app_errors.ErrConfiguration)
	}

	s.mu.Lock()
	next, err := Next(s.state, EventSend)
	if err != nil {
		s.mu.Unlock()
		return model.ChatMessage{}, app_errors.ErrStreamInProgress
	}
	s.seq++
	r := &run{seq: s.seq}
	s.state = next
	s.active = r
	s.mu.Unlock()

	conv, err := s.opts.Conversations.EnsureConversation(ctx, truncate(text, titleRunes))
	if err != nil {
		s.abort(r)
		return model.ChatMessage{}, err
	}
	log := observability.FromContext(ctx).With("conversation_id", conv.ID)

	user := model.ChatMessage{
		ID:        LocalMessageID(),
		Role:      model.RoleUser,
		Content:   text,
		Timestamp: s.now(),
		Status:    model.StatusSending,
	}
	s.mu.Lock()
	var changes []Change
	if replaceUserID != "" {
		if old, ok := s.removeLocked(conv.ID, replaceUserID); ok {
			changes = append(changes, Change{ConversationID: conv.ID, Message: old, Removed: true})
		}
	}
	history := s.historyLocked(conv.ID)
	s.appendLocked(conv.ID, user)
	r.conversationID = conv.ID
	r.userID = user.ID
	s.mu.Unlock()
	s.emit(append(changes, Change{ConversationID: conv.ID, Message: user})...)

	var sourceIDs []string
	for _, f := range files {
		ref, err := s.opts.Client.UploadFile(ctx, s.opts.AgentID, f)
		if err != nil {
			failed, _ := s.update(conv.ID, user.ID, func(m *model.ChatMessage) { m.Status = model.StatusError })
			s.emit(Change{ConversationID: conv.ID, Message: failed})
			s.abort(r)
			log.Error("File upload failed", "file", f.Name, "error", err)
			return failed, fmt.Errorf("%w: %s: %v", app_errors.ErrUpload, f.Name, err)
		}
		sourceIDs = append(sourceIDs, ref)
	}

	assistant := model.ChatMessage{
		ID:        LocalMessageID(),
		Role:      model.RoleAssistant,
		Timestamp: s.now(),
		Status:    model.StatusSending,
	}
	if assistant.Timestamp.Before(user.Timestamp) {
		assistant.Timestamp = user.Timestamp
	}
	s.mu.Lock()
	sent, _ := s.updateLocked(conv.ID, user.ID, func(m *model.ChatMessage) { m.Status = model.StatusSent })
	s.appendLocked(conv.ID, assistant)
	r.assistantID = assistant.ID
	s.mu.Unlock()
	s.emit(Change{ConversationID: conv.ID, Message: sent}, Change{ConversationID: conv.ID, Message: assistant})

	if conv.SessionRef == "" {
		log.Warn("Conversation is not synced with the server")
		msg := s.failAssistant(r, TextUnsynced, EventAborted)
		s.persist(ctx, conv.ID)
		return msg, nil
	}

	payload := upstream.MessagePayload{Prompt: text, SourceIDs: sourceIDs, History: history}
	s.mu.Lock()
	s.advanceLocked(r, EventStreamOpened)
	r.streaming = true
	s.mu.Unlock()

	handle := s.opts.Transport.Open(ctx, transport.Request{
		AgentID:    s.opts.AgentID,
		SessionRef: conv.SessionRef,
		Payload:    payload,
	}, transport.Handlers{
		OnChunk: func(c model.StreamChunk) { s.onChunk(ctx, r, c) },
	})
	s.mu.Lock()
	r.handle = handle
	cancelled := r.cancelled
	s.mu.Unlock()
	if cancelled {
		handle.Cancel()
	}

	streamErr := handle.Wait()

	s.mu.Lock()
	r.streaming = false
	cancelled = r.cancelled
	s.mu.Unlock()

	switch {
	case cancelled || errors.Is(streamErr, context.Canceled) || errors.Is(streamErr, context.DeadlineExceeded):
		s.mu.Lock()
		if s.active == r {
			s.active = nil
			s.advanceLocked(r, EventCancelled)
		}
		msg, _ := s.updateLocked(conv.ID, r.assistantID, func(*model.ChatMessage) {})
		s.mu.Unlock()
		log.Info("Streaming cancelled")
		if streamErr == nil || !errors.Is(streamErr, context.DeadlineExceeded) {
			streamErr = context.Canceled
		}
		return msg, streamErr
	case streamErr == nil:
		return s.completeStream(ctx, r, conv, text), nil
	default:
		return s.fallback(ctx, r, conv, payload, streamErr), nil
	}
}

func (s *Store) onChunk(ctx context.Context, r *run, c model.StreamChunk) {
	s.mu.Lock()
	if r.cancelled || s.active != r {
		s.mu.Unlock()
		return
	}
	convID, msgID := r.conversationID, r.assistantID
	var (
		msg     model.ChatMessage
		changed bool
	)
	switch c.Type {
	case model.ChunkContent:
		if c.Content != "" {
			msg, changed = s.updateLocked(convID, msgID, func(m *model.ChatMessage) { m.Content += c.Content })
		}
	case model.ChunkCitation:
		if len(c.Citations) > 0 {
			msg, changed = s.updateLocked(convID, msgID, func(m *model.ChatMessage) { m.Citations = c.Citations })
		}
		if c.PromptID != 0 {
			r.promptID = c.PromptID
		}
	case model.ChunkDone:
		if c.PromptID != 0 {
			r.promptID = c.PromptID
		}
	}
	s.mu.Unlock()

	if changed {
		s.emit(Change{ConversationID: convID, Message: msg})
	}
	if c.Type == model.ChunkCitation && len(c.CitationIDs) > 0 {
		s.resolveCitationsAsync(ctx, convID, msgID, c.CitationIDs)
	}
}

// resolveCitationsAsync attaches resolved citations once every lookup settles.
func (s *Store) resolveCitationsAsync(ctx context.Context, convID, msgID string, ids []any) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
		defer cancel()

		cits := s.opts.Citations.Resolve(bg, s.opts.AgentID, ids)
		if len(cits) == 0 {
			return
		}
		msg, ok := s.update(convID, msgID, func(m *model.ChatMessage) { m.Citations = cits })
		if ok {
			s.emit(Change{ConversationID: convID, Message: msg})
		}
	}()
}

func (s *Store) completeStream(ctx context.Context, r *run, conv model.Conversation, text string) model.ChatMessage {
	s.mu.Lock()
	msg, _ := s.updateLocked(conv.ID, r.assistantID, func(m *model.ChatMessage) { m.Status = model.StatusSent })
	if s.active == r {
		s.active = nil
	}
	s.advanceLocked(r, EventStreamCompleted)
	promptID := r.promptID
	s.mu.Unlock()

	s.emit(Change{ConversationID: conv.ID, Message: msg})
	s.persist(ctx, conv.ID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
		defer cancel()
		s.enrich(bg, r, conv, promptID, text)
	}()
	return msg
}

// enrich reconciles a streamed exchange with the server record: message ids,
// details, timestamps and citations.
func (s *Store) enrich(ctx context.Context, r *run, conv model.Conversation, promptID int64, text string) {
	defer func() {
		s.mu.Lock()
		s.advanceLocked(r, EventEnriched)
		s.mu.Unlock()
	}()

	log := observability.FromContext(ctx).With("conversation_id", conv.ID)
	records, err := s.opts.Client.GetMessages(ctx, s.opts.AgentID, conv.SessionRef)
	if err != nil {
		log.Warn("Failed to fetch message details", "error", err)
		return
	}
	rec, ok := findRecord(records, promptID, text)
	if !ok {
		log.Debug("No server record for streamed message", "prompt_id", promptID)
		return
	}
	var cits []model.Citation
	if len(rec.CitationIDs) > 0 {
		cits = s.opts.Citations.Resolve(ctx, s.opts.AgentID, rec.CitationIDs)
	}

	user, assistant := recordToMessages(rec, cits)
	changes := s.reconcile(conv.ID, r, user, assistant)
	s.emit(changes...)
	s.persist(ctx, conv.ID)
}

// reconcile rewrites the local pair of a run with the server's view of it.
func (s *Store) reconcile(convID string, r *run, user, assistant model.ChatMessage) []Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changes []Change
	rewrite := func(localID string, server model.ChatMessage, keepContent bool) {
		i := s.indexLocked(convID, localID)
		if i < 0 {
			return
		}
		m := &s.messages[convID][i]
		prev := m.ID
		m.ID = server.ID
		m.Details = server.Details
		if !server.Timestamp.IsZero() {
			m.Timestamp = server.Timestamp
		}
		if len(server.Citations) > 0 {
			m.Citations = server.Citations
		}
		if !keepContent && server.Content != "" {
			m.Content = server.Content
		}
		if prev != server.ID {
			s.aliases[prev] = server.ID
		}
		c := Change{ConversationID: convID, Message: m.Clone()}
		if prev != server.ID {
			c.PreviousID = prev
		}
		changes = append(changes, c)
	}
	rewrite(r.userID, user, true)
	rewrite(r.assistantID, assistant, true)
	SortByTimestamp(s.messages[convID])
	return changes
}

func findRecord(records []upstream.MessageRecord, promptID int64, text string) (upstream.MessageRecord, bool) {
	if promptID != 0 {
		for _, rec := range records {
			if rec.PromptID == promptID {
				return rec, true
			}
		}
	}
	for i := len(records) - 1; i >= 0; i-- {
		if strings.TrimSpace(records[i].UserQuery) == text {
			return records[i], true
		}
	}
	return upstream.MessageRecord{}, false
}

// fallback retries a failed stream as a plain request and settles the
// assistant message either way.
func (s *Store) fallback(ctx context.Context, r *run, conv model.Conversation, payload upstream.MessagePayload, streamErr error) model.ChatMessage {
	log := observability.FromContext(ctx).With("conversation_id", conv.ID)
	log.Warn("Streaming failed, retrying without streaming", "error", streamErr)

	s.mu.Lock()
	s.advanceLocked(r, EventStreamFailed)
	s.mu.Unlock()

	rec, err := s.opts.Client.SendMessage(ctx, s.opts.AgentID, conv.SessionRef, payload)
	if err == nil && rec == nil {
		err = fmt.Errorf("%w: empty response", app_errors.ErrUpstream)
	}
	if err != nil {
		text := Classify(err, s.agentInactiveFor(ctx, err))
		log.Error("Message send failed", "error", err)
		msg := s.failAssistant(r, text, EventFallbackFailed)
		s.persist(ctx, conv.ID)
		return msg
	}

	cits := s.opts.Citations.Resolve(ctx, s.opts.AgentID, rec.CitationIDs)
	s.mu.Lock()
	msg, _ := s.updateLocked(conv.ID, r.assistantID, func(m *model.ChatMessage) {
		m.Content = rec.Response
		m.Status = model.StatusSent
		m.Citations = cits
	})
	if s.active == r {
		s.active = nil
	}
	s.advanceLocked(r, EventFallbackSucceeded)
	s.mu.Unlock()
	changes := []Change{{ConversationID: conv.ID, Message: msg}}

	if rec.PromptID != 0 {
		user, assistant := recordToMessages(*rec, cits)
		changes = append(changes, s.reconcile(conv.ID, r, user, assistant)...)
		if i := len(changes) - 1; changes[i].Message.Role == model.RoleAssistant {
			msg = changes[i].Message
		}
	}
	s.emit(changes...)
	s.persist(ctx, conv.ID)
	return msg
}

// agentInactiveFor checks the agent's live status when the server refused
// access, falling back to the last known value.
func (s *Store) agentInactiveFor(ctx context.Context, err error) bool {
	if app_errors.StatusOf(err) == 403 {
		settings, serr := s.opts.Client.GetAgentSettings(ctx, s.opts.AgentID)
		if serr == nil && settings != nil {
			s.agentInactive.Store(!settings.IsActive)
		}
	}
	return s.agentInactive.Load()
}

// failAssistant settles the run's assistant message as an error with text.
func (s *Store) failAssistant(r *run, text string, e Event) model.ChatMessage {
	s.mu.Lock()
	msg, ok := s.updateLocked(r.conversationID, r.assistantID, func(m *model.ChatMessage) {
		m.Status = model.StatusError
		m.Content = text
	})
	if s.active == r {
		s.active = nil
	}
	s.advanceLocked(r, e)
	s.mu.Unlock()
	if ok {
		s.emit(Change{ConversationID: r.conversationID, Message: msg})
	}
	return msg
}

// abort releases a run that never reached the network.
func (s *Store) abort(r *run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == r {
		s.active = nil
	}
	s.advanceLocked(r, EventAborted)
}

// advanceLocked moves the pipeline forward on behalf of r. Events from a run
// that has been superseded by a newer send are dropped.
func (s *Store) advanceLocked(r *run, e Event) {
	if r.seq != s.seq {
		return
	}
	next, err := Next(s.state, e)
	if err != nil {
		return
	}
	s.state = next
}

// historyLocked returns the settled turns sent along with a new prompt.
func (s *Store) historyLocked(convID string) []upstream.HistoryTurn {
	msgs := s.messages[convID]
	var turns []upstream.HistoryTurn
	for _, m := range msgs {
		if m.Status != model.StatusSent || m.Content == "" {
			continue
		}
		turns = append(turns, upstream.HistoryTurn{Role: m.Role, Content: m.Content})
	}
	if len(turns) > s.opts.HistoryTurns {
		turns = turns[len(turns)-s.opts.HistoryTurns:]
	}
	return turns
}
