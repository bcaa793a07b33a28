package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/app"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/conversation"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/session"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/storage"
)

// SessionExport is the document written by `kasmchat export`.
type SessionExport struct {
	SessionID     string               `json:"session_id" yaml:"session_id"`
	ExportedAt    time.Time            `json:"exported_at" yaml:"exported_at"`
	Current       string               `json:"current_conversation,omitempty" yaml:"current_conversation,omitempty"`
	Conversations []ConversationExport `json:"conversations" yaml:"conversations"`
}

type ConversationExport struct {
	ID        string          `json:"id" yaml:"id"`
	Title     string          `json:"title" yaml:"title"`
	Synced    bool            `json:"synced" yaml:"synced"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
	Messages  []MessageExport `json:"messages" yaml:"messages"`
}

type MessageExport struct {
	ID        string           `json:"id" yaml:"id"`
	Role      string           `json:"role" yaml:"role"`
	Content   string           `json:"content" yaml:"content"`
	Status    string           `json:"status" yaml:"status"`
	Feedback  string           `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	PromptID  int64            `json:"prompt_id,omitempty" yaml:"prompt_id,omitempty"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	Citations []CitationExport `json:"citations,omitempty" yaml:"citations,omitempty"`
}

type CitationExport struct {
	Index int    `json:"index" yaml:"index"`
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		agentID   string
		sessionID string
		format    string
		outPath   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a session's conversations and cached messages",
		Long: `Export the conversations stored for a session, with the messages cached
for each, as JSON or YAML.

--agent selects the agent's persistent widget session; --session names any
other session id directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (use json or yaml)", format)
			}
			switch {
			case sessionID != "":
			case agentID != "":
				sessionID = session.AgentSessionID(agentID)
			default:
				return fmt.Errorf("either --agent or --session is required")
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}
			opts.setupLogging(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			adapter, err := app.OpenStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer adapter.Close()

			doc, err := buildExport(ctx, adapter, sessionID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return writeExport(w, format, doc)
		},
	}
	cmd.Flags().StringVarP(&agentID, "agent", "a", "", "Agent (project) id")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to a file instead of stdout")
	return cmd
}

// buildExport reads the session's conversation list and each conversation's
// message cache.
func buildExport(ctx context.Context, adapter *storage.Adapter, sessionID string) (SessionExport, error) {
	convs := conversation.NewStore(adapter)
	doc := SessionExport{
		SessionID:     sessionID,
		ExportedAt:    time.Now().UTC(),
		Current:       convs.Current(ctx, sessionID),
		Conversations: []ConversationExport{},
	}
	for _, c := range convs.List(ctx, sessionID) {
		var msgs []model.ChatMessage
		if _, err := adapter.GetJSON(ctx, sessionID, storage.MessagesName(c.ID), &msgs); err != nil {
			return SessionExport{}, fmt.Errorf("read messages of %s: %w", c.ID, err)
		}
		doc.Conversations = append(doc.Conversations, ConversationExport{
			ID:        c.ID,
			Title:     c.Title,
			Synced:    !c.IsLocal(),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			Messages:  exportMessages(msgs),
		})
	}
	return doc, nil
}

func exportMessages(msgs []model.ChatMessage) []MessageExport {
	out := make([]MessageExport, 0, len(msgs))
	for _, m := range msgs {
		e := MessageExport{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Status:    string(m.Status),
			Feedback:  string(m.Feedback),
			Timestamp: m.Timestamp,
		}
		if m.Details != nil {
			e.PromptID = m.Details.PromptID
		}
		for _, c := range m.Citations {
			e.Citations = append(e.Citations, CitationExport{Index: c.Index, Title: c.Title, URL: c.URL})
		}
		out = append(out, e)
	}
	return out
}

func writeExport(w io.Writer, format string, doc SessionExport) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(doc)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
