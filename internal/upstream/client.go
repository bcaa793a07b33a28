package upstream

import (
	"context"
	"time"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
)

// Client is the contract the widget pipeline consumes from the conversational
// backend. Failures carry an *app_errors.UpstreamError when the backend
// answered, or wrap app_errors.ErrTransport when it could not be reached.
type Client interface {
	GetAgentSettings(ctx context.Context, agentID string) (*model.AgentSettings, error)
	SendMessageStream(ctx context.Context, agentID, sessionRef string, payload MessagePayload, cb StreamCallbacks) error
	SendMessage(ctx context.Context, agentID, sessionRef string, payload MessagePayload) (*MessageRecord, error)
	GetMessages(ctx context.Context, agentID, sessionRef string) ([]MessageRecord, error)
	GetCitation(ctx context.Context, agentID string, citationID int) (*CitationRecord, error)
	UploadFile(ctx context.Context, agentID string, file model.Attachment) (string, error)
	CreateConversation(ctx context.Context, agentID, title string) (*ConversationRecord, error)
	UpdateConversation(ctx context.Context, agentID, sessionRef, title string) error
	DeleteConversation(ctx context.Context, agentID, sessionRef string) error
	UpdateMessageFeedback(ctx context.Context, agentID, sessionRef string, promptID int64, feedback model.Feedback) error
}

// StreamCallbacks receives decoded units of a streaming response.
type StreamCallbacks struct {
	OnChunk    func(model.StreamChunk)
	OnError    func(error)
	OnComplete func()
}

// HistoryTurn is one prior turn sent as conversation context.
type HistoryTurn struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// MessagePayload is the body of a send request, streaming or not.
type MessagePayload struct {
	Prompt    string        `json:"prompt"`
	SourceIDs []string      `json:"source_ids,omitempty"`
	History   []HistoryTurn `json:"history,omitempty"`
}

// MessageRecord is one server-side exchange: a user query and the assistant
// response bundled under a single prompt id.
type MessageRecord struct {
	PromptID       int64          `json:"id"`
	UserQuery      string         `json:"user_query"`
	Response       string         `json:"openai_response"`
	CitationIDs    []any          `json:"citations"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	UserID         string         `json:"user_id"`
	ConversationID string         `json:"conversation_id"`
	Feedback       model.Feedback `json:"feedback"`
	Metadata       []byte         `json:"metadata,omitempty"`
}

// CitationRecord is the upstream description of one citation.
type CitationRecord struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Content     string `json:"content"`
}

// ConversationRecord is a conversation as created upstream.
type ConversationRecord struct {
	ID         int64     `json:"id"`
	SessionRef string    `json:"session_id"`
	Title      string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}
