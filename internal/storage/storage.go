package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
)

// ErrKeyNotFound is returned by a Backend when the key holds no value. The
// Adapter translates it into a "not found" boolean so callers never see it.
var ErrKeyNotFound = errors.New("storage: key not found")

// Backend is a durable key/value store. Set must return an error matching
// app_errors.ErrQuotaExceeded when the write was refused for lack of space.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Adapter namespaces backend keys by session identifier and (de)serialises JSON.
type Adapter struct {
	backend Backend
	prefix  string
}

func NewAdapter(backend Backend, prefix string) *Adapter {
	if prefix == "" {
		prefix = "widget"
	}
	return &Adapter{backend: backend, prefix: prefix}
}

// Key builds the namespaced key for name within sessionID.
func (a *Adapter) Key(sessionID, name string) string {
	return a.sessionPrefix(sessionID) + name
}

func (a *Adapter) sessionPrefix(sessionID string) string {
	return fmt.Sprintf("%s:%s:", a.prefix, sessionID)
}

// GetJSON decodes the value stored under name into out. found is false when
// nothing is stored. A value that fails to decode is reported as a storage error.
func (a *Adapter) GetJSON(ctx context.Context, sessionID, name string, out any) (found bool, err error) {
	raw, err := a.backend.Get(ctx, a.Key(sessionID, name))
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", app_errors.ErrStorage, name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("%w: corrupt value for %s: %v", app_errors.ErrStorage, name, err)
	}
	return true, nil
}

// SetJSON encodes v and writes it under name. Quota failures keep matching
// app_errors.ErrQuotaExceeded after wrapping.
func (a *Adapter) SetJSON(ctx context.Context, sessionID, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", app_errors.ErrStorage, name, err)
	}
	if err := a.backend.Set(ctx, a.Key(sessionID, name), raw); err != nil {
		if IsQuotaExceeded(err) {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return fmt.Errorf("%w: write %s: %v", app_errors.ErrStorage, name, err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, sessionID, name string) error {
	if err := a.backend.Delete(ctx, a.Key(sessionID, name)); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("%w: delete %s: %v", app_errors.ErrStorage, name, err)
	}
	return nil
}

// Names lists the unprefixed names stored for sessionID.
func (a *Adapter) Names(ctx context.Context, sessionID string) ([]string, error) {
	prefix := a.sessionPrefix(sessionID)
	keys, err := a.backend.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list keys: %v", app_errors.ErrStorage, err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, prefix))
	}
	return names, nil
}

// DeleteSession removes every value stored for sessionID.
func (a *Adapter) DeleteSession(ctx context.Context, sessionID string) error {
	names, err := a.Names(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := a.Delete(ctx, sessionID, name); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) Close() error {
	return a.backend.Close()
}

// IsQuotaExceeded reports whether err is a quota refusal.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, app_errors.ErrQuotaExceeded)
}

// Names of the values kept per session.
const (
	ConversationsName       = "conversations"
	CurrentConversationName = "current_conversation"
	messagesNamePrefix      = "messages:"
)

// MessagesName is the cache entry holding the messages of one conversation.
func MessagesName(conversationID string) string {
	return messagesNamePrefix + conversationID
}
