package message

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream"
)

// DefaultMergeWindow is how long a local "sending" message is kept when the
// server history does not contain it yet. It is a heuristic for "not yet
// reflected upstream" and is configurable per store.
const DefaultMergeWindow = 5 * time.Second

// LocalMessageID generates an id for a message not yet known to the server.
func LocalMessageID() string {
	return "msg_local_" + uuid.NewString()
}

// ServerMessageID embeds the server prompt id; user and assistant halves of one
// exchange share the prompt id and differ by role.
func ServerMessageID(promptID int64, role model.Role) string {
	return fmt.Sprintf("msg_%d_%s", promptID, role)
}

// recordToMessages splits one server exchange into its user and assistant turns.
func recordToMessages(rec upstream.MessageRecord, citations []model.Citation) (model.ChatMessage, model.ChatMessage) {
	details := &model.MessageDetails{
		UserID:         rec.UserID,
		ConversationID: rec.ConversationID,
		PromptID:       rec.PromptID,
		Metadata:       rec.Metadata,
	}
	user := model.ChatMessage{
		ID:        ServerMessageID(rec.PromptID, model.RoleUser),
		Role:      model.RoleUser,
		Content:   rec.UserQuery,
		Timestamp: rec.CreatedAt,
		Status:    model.StatusSent,
		Details:   details,
	}
	assistantDetails := *details
	assistantAt := rec.UpdatedAt
	if assistantAt.Before(rec.CreatedAt) {
		assistantAt = rec.CreatedAt
	}
	assistant := model.ChatMessage{
		ID:        ServerMessageID(rec.PromptID, model.RoleAssistant),
		Role:      model.RoleAssistant,
		Content:   rec.Response,
		Citations: citations,
		Timestamp: assistantAt,
		Status:    model.StatusSent,
		Feedback:  rec.Feedback,
		Details:   &assistantDetails,
	}
	return user, assistant
}

// SortByTimestamp orders messages ascending, keeping insertion order for ties.
func SortByTimestamp(msgs []model.ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}

// MergePending adds to the server list every local message still "sending"
// that was created within window of now and that the server list does not
// already contain. Only server messages inside the same window match by
// content, so a repeated prompt is not mistaken for an old turn. Pinned
// messages (the outstanding send) are always kept. server must be sorted;
// confirmed messages keep their relative order.
func MergePending(server, local []model.ChatMessage, now time.Time, window time.Duration, pinned map[string]bool) []model.ChatMessage {
	merged := make([]model.ChatMessage, 0, len(server)+2)
	merged = append(merged, server...)

	known := make(map[string]bool, len(server))
	for _, m := range server {
		known[m.ID] = true
		if now.Sub(m.Timestamp) <= window {
			known[contentKey(m)] = true
		}
	}

	added := false
	for _, m := range local {
		if pinned[m.ID] {
			if !known[m.ID] {
				merged = append(merged, m)
				added = true
			}
			continue
		}
		if m.Status != model.StatusSending || now.Sub(m.Timestamp) > window {
			continue
		}
		if known[m.ID] || (m.Content != "" && known[contentKey(m)]) {
			continue
		}
		merged = append(merged, m)
		added = true
	}
	if added {
		SortByTimestamp(merged)
	}
	return merged
}

func contentKey(m model.ChatMessage) string {
	return string(m.Role) + "\x00" + m.Content
}
