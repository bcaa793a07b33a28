package conversation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/observability"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/storage"
)

// QuotaRetain is how many conversations survive a quota eviction.
const QuotaRetain = 3

// Store persists the conversation list of each session through the storage
// adapter. Writes are last-writer-wins per session; the mutex only orders
// read-modify-write cycles issued from this process.
type Store struct {
	adapter *storage.Adapter
	now     func() time.Time
	mu      sync.Mutex
}

func NewStore(adapter *storage.Adapter) *Store {
	return &Store{adapter: adapter, now: time.Now}
}

// List returns the session's conversations, most recent first. Missing or
// corrupt data yields an empty list.
func (s *Store) List(ctx context.Context, sessionID string) []model.Conversation {
	var convs []model.Conversation
	if _, err := s.adapter.GetJSON(ctx, sessionID, storage.ConversationsName, &convs); err != nil {
		observability.FromContext(ctx).Warn("Discarding unreadable conversation list", "error", err)
		return []model.Conversation{}
	}
	if convs == nil {
		return []model.Conversation{}
	}
	sortRecentFirst(convs)
	return convs
}

// Save writes the list. On a quota refusal it keeps only the QuotaRetain most
// recently created conversations and retries once.
func (s *Store) Save(ctx context.Context, sessionID string, convs []model.Conversation) error {
	_, err := s.save(ctx, sessionID, convs)
	return err
}

// save is Save returning the list that ended up persisted.
func (s *Store) save(ctx context.Context, sessionID string, convs []model.Conversation) ([]model.Conversation, error) {
	err := s.adapter.SetJSON(ctx, sessionID, storage.ConversationsName, convs)
	if err == nil || !storage.IsQuotaExceeded(err) {
		return convs, err
	}

	kept := append([]model.Conversation(nil), convs...)
	sortRecentFirst(kept)
	if len(kept) > QuotaRetain {
		for _, evicted := range kept[QuotaRetain:] {
			_ = s.adapter.Delete(ctx, sessionID, storage.MessagesName(evicted.ID))
		}
		kept = kept[:QuotaRetain]
	}
	observability.FromContext(ctx).Warn("Storage quota exceeded, evicting old conversations",
		"before", len(convs), "after", len(kept))

	if err := s.adapter.SetJSON(ctx, sessionID, storage.ConversationsName, kept); err != nil {
		return convs, fmt.Errorf("retry after eviction: %w", err)
	}
	return kept, nil
}

// Get finds a conversation by id.
func (s *Store) Get(ctx context.Context, sessionID, id string) (model.Conversation, bool) {
	for _, c := range s.List(ctx, sessionID) {
		if c.ID == id {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// Add stores conv, refusing with a LimitError when max > 0 conversations exist.
func (s *Store) Add(ctx context.Context, sessionID string, conv model.Conversation, max int) ([]model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs := s.List(ctx, sessionID)
	if AtLimit(convs, max) {
		return convs, &app_errors.LimitError{SessionID: sessionID, Max: max}
	}
	convs = append([]model.Conversation{conv}, convs...)
	sortRecentFirst(convs)
	saved, err := s.save(ctx, sessionID, convs)
	if err != nil {
		observability.FromContext(ctx).Warn("Failed to persist new conversation", "conversation_id", conv.ID, "error", err)
	}
	return saved, nil
}

// Rename changes a conversation title.
func (s *Store) Rename(ctx context.Context, sessionID, id, title string) (model.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Conversation{}, fmt.Errorf("%w: title cannot be empty", app_errors.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	convs := s.List(ctx, sessionID)
	for i := range convs {
		if convs[i].ID == id {
			convs[i].Title = title
			convs[i].UpdatedAt = s.now()
			if err := s.Save(ctx, sessionID, convs); err != nil {
				return convs[i], err
			}
			return convs[i], nil
		}
	}
	return model.Conversation{}, fmt.Errorf("conversation %s: %w", id, app_errors.ErrNotFound)
}

// Remove deletes a conversation and its cached messages, returning what remains.
func (s *Store) Remove(ctx context.Context, sessionID, id string) ([]model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs := s.List(ctx, sessionID)
	kept := convs[:0]
	removed := false
	for _, c := range convs {
		if c.ID == id {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		return kept, fmt.Errorf("conversation %s: %w", id, app_errors.ErrNotFound)
	}
	_ = s.adapter.Delete(ctx, sessionID, storage.MessagesName(id))
	return s.save(ctx, sessionID, kept)
}

// Replace swaps the conversation stored under oldID for conv, used when a
// local conversation is promoted to a server-issued id.
func (s *Store) Replace(ctx context.Context, sessionID, oldID string, conv model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs := s.List(ctx, sessionID)
	for i := range convs {
		if convs[i].ID == oldID {
			convs[i] = conv
			return s.Save(ctx, sessionID, convs)
		}
	}
	return fmt.Errorf("conversation %s: %w", oldID, app_errors.ErrNotFound)
}

// Current returns the persisted current conversation id, or "".
func (s *Store) Current(ctx context.Context, sessionID string) string {
	var id string
	if _, err := s.adapter.GetJSON(ctx, sessionID, storage.CurrentConversationName, &id); err != nil {
		return ""
	}
	return id
}

func (s *Store) SetCurrent(ctx context.Context, sessionID, id string) error {
	if id == "" {
		return s.adapter.Delete(ctx, sessionID, storage.CurrentConversationName)
	}
	return s.adapter.SetJSON(ctx, sessionID, storage.CurrentConversationName, id)
}

// AtLimit reports whether convs already fills a positive max.
func AtLimit(convs []model.Conversation, max int) bool {
	return max > 0 && len(convs) >= max
}

func sortRecentFirst(convs []model.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})
}
