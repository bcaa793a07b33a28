package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Role identifies who authored a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageStatus is the delivery state of a chat turn.
type MessageStatus string

const (
	StatusSending MessageStatus = "sending"
	StatusSent    MessageStatus = "sent"
	StatusError   MessageStatus = "error"
)

// Feedback is the reaction a user left on an assistant message.
type Feedback string

const (
	FeedbackNone    Feedback = ""
	FeedbackLike    Feedback = "liked"
	FeedbackDislike Feedback = "disliked"
)

// LocalConversationPrefix marks a conversation that has not been created upstream yet.
const LocalConversationPrefix = "local_"

// Conversation stores metadata about one chat thread.
type Conversation struct {
	ID         string    `json:"id"`
	SessionRef string    `json:"session_ref,omitempty"` // Upstream conversation handle used by message endpoints.
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	SessionID  string    `json:"session_id"`
	AgentID    string    `json:"agent_id"`
}

// IsLocal reports whether the conversation only exists on this side.
func (c Conversation) IsLocal() bool {
	return IsLocalConversationID(c.ID)
}

// IsLocalConversationID reports whether id carries the unsynced marker.
func IsLocalConversationID(id string) bool {
	return strings.HasPrefix(id, LocalConversationPrefix)
}

// Citation is a resolved source reference attached to an assistant message.
type Citation struct {
	ID      int    `json:"id"`
	Index   int    `json:"index"` // 1-based display position.
	Title   string `json:"title"`
	Source  string `json:"source"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content,omitempty"`
}

// MessageDetails carries server-side identifiers attached after reconciliation.
type MessageDetails struct {
	UserID         string          `json:"user_id,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	PromptID       int64           `json:"prompt_id,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// ChatMessage stores a single turn in a conversation.
type ChatMessage struct {
	ID        string          `json:"id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Citations []Citation      `json:"citations,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Status    MessageStatus   `json:"status"`
	Feedback  Feedback        `json:"feedback,omitempty"`
	Details   *MessageDetails `json:"details,omitempty"`
}

// Clone returns a deep copy so callers can't mutate store-owned slices.
func (m ChatMessage) Clone() ChatMessage {
	out := m
	if m.Citations != nil {
		out.Citations = append([]Citation(nil), m.Citations...)
	}
	if m.Details != nil {
		d := *m.Details
		out.Details = &d
	}
	return out
}

// Attachment is a file the user wants to send along with a message.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// AgentSettings is the subset of upstream agent configuration the widget needs.
type AgentSettings struct {
	AgentID        string   `json:"agent_id"`
	Name           string   `json:"name"`
	IsActive       bool     `json:"is_active"`
	DefaultPrompt  string   `json:"default_prompt,omitempty"`
	ExamplePrompts []string `json:"example_prompts,omitempty"`
}

// ChunkType tags a decoded streaming unit.
type ChunkType string

const (
	ChunkContent  ChunkType = "content"
	ChunkCitation ChunkType = "citation"
	ChunkDone     ChunkType = "done"
	ChunkError    ChunkType = "error"
)

// StreamChunk is a single decoded unit of a streaming response.
type StreamChunk struct {
	Type        ChunkType  `json:"type"`
	Content     string     `json:"content,omitempty"`
	CitationIDs []any      `json:"citation_ids,omitempty"` // Raw ids, validated by the citation resolver.
	Citations   []Citation `json:"citations,omitempty"`    // Pre-resolved citations, applied as-is.
	PromptID    int64      `json:"prompt_id,omitempty"`
	Error       string     `json:"error,omitempty"`
}
