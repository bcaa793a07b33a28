package upstream

import (
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
)

// The backend answers the same resource in several envelopes depending on
// version and pagination. Everything is sniffed here so the rest of the code
// only sees the normalised records.

// listItems finds the item array in {data:{messages:{data:[..]}}},
// {data:{data:[..]}}, {data:[..]} or a bare array.
func listItems(body []byte, nested string) []gjson.Result {
	root := gjson.ParseBytes(body)
	for _, path := range []string{"data." + nested + ".data", "data." + nested, "data.data", "data"} {
		if r := root.Get(path); r.IsArray() {
			return r.Array()
		}
	}
	if root.IsArray() {
		return root.Array()
	}
	return nil
}

// object returns data when the payload is enveloped, the root otherwise.
func object(body []byte) gjson.Result {
	root := gjson.ParseBytes(body)
	if d := root.Get("data"); d.IsObject() {
		return d
	}
	return root
}

// errorMessage pulls a human readable message out of a failure body.
func errorMessage(body []byte) string {
	root := gjson.ParseBytes(body)
	for _, path := range []string{"data.message", "message", "error.message", "error"} {
		if r := root.Get(path); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}

func parseTime(r gjson.Result) time.Time {
	if !r.Exists() {
		return time.Time{}
	}
	if r.Type == gjson.Number {
		return time.Unix(r.Int(), 0).UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05.000000Z"} {
		if t, err := time.Parse(layout, r.Str); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// stringOf renders ids that may arrive as numbers or strings.
func stringOf(r gjson.Result) string {
	switch r.Type {
	case gjson.Number:
		return strconv.FormatInt(r.Int(), 10)
	case gjson.String:
		return r.Str
	}
	return ""
}

func feedbackOf(r gjson.Result) model.Feedback {
	reaction := r.Get("reaction").String()
	if reaction == "" && r.Type == gjson.String {
		reaction = r.Str
	}
	switch reaction {
	case "liked", "like":
		return model.FeedbackLike
	case "disliked", "dislike":
		return model.FeedbackDislike
	}
	return model.FeedbackNone
}

// rawArray converts a JSON array into Go values without judging them; the
// citation resolver decides which entries are usable ids.
func rawArray(r gjson.Result) []any {
	if !r.IsArray() {
		return nil
	}
	items := r.Array()
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, it.Value())
	}
	return out
}

func messageRecordOf(r gjson.Result) MessageRecord {
	rec := MessageRecord{
		PromptID:       r.Get("id").Int(),
		UserQuery:      r.Get("user_query").String(),
		Response:       r.Get("openai_response").String(),
		CitationIDs:    rawArray(r.Get("citations")),
		CreatedAt:      parseTime(r.Get("created_at")),
		UpdatedAt:      parseTime(r.Get("updated_at")),
		UserID:         stringOf(r.Get("user_id")),
		ConversationID: stringOf(r.Get("conversation_id")),
		Feedback:       feedbackOf(r.Get("response_feedback")),
	}
	if md := r.Get("metadata"); md.Exists() && md.Type != gjson.Null {
		rec.Metadata = []byte(md.Raw)
	}
	return rec
}

func conversationRecordOf(r gjson.Result) ConversationRecord {
	title := r.Get("name").String()
	if title == "" {
		title = r.Get("title").String()
	}
	return ConversationRecord{
		ID:         r.Get("id").Int(),
		SessionRef: r.Get("session_id").String(),
		Title:      title,
		CreatedAt:  parseTime(r.Get("created_at")),
	}
}

func citationRecordOf(r gjson.Result) CitationRecord {
	url := r.Get("url").String()
	if url == "" {
		url = r.Get("page_url").String()
	}
	return CitationRecord{
		ID:          int(r.Get("id").Int()),
		Title:       r.Get("title").String(),
		Description: r.Get("description").String(),
		URL:         url,
		Content:     r.Get("content").String(),
	}
}

func agentSettingsOf(agentID string, r gjson.Result) model.AgentSettings {
	active := true
	if a := r.Get("is_chat_active"); a.Exists() {
		active = a.Bool()
	} else if a := r.Get("is_active"); a.Exists() {
		active = a.Bool()
	}
	var examples []string
	for _, e := range r.Get("settings.example_questions").Array() {
		examples = append(examples, e.String())
	}
	return model.AgentSettings{
		AgentID:        agentID,
		Name:           r.Get("project_name").String(),
		IsActive:       active,
		DefaultPrompt:  r.Get("settings.default_prompt").String(),
		ExamplePrompts: examples,
	}
}

// decodeStreamEvent turns one SSE data payload into chunks. Two shapes exist:
// status-tagged ({"status":"progress","message":..}) and type-tagged
// ({"type":"content","content":..}).
func decodeStreamEvent(data []byte) []model.StreamChunk {
	r := gjson.ParseBytes(data)
	if t := r.Get("type"); t.Exists() {
		switch model.ChunkType(t.String()) {
		case model.ChunkContent:
			return []model.StreamChunk{{Type: model.ChunkContent, Content: r.Get("content").String()}}
		case model.ChunkCitation:
			return []model.StreamChunk{citationChunk(r.Get("citations"))}
		case model.ChunkDone:
			return []model.StreamChunk{{Type: model.ChunkDone, PromptID: r.Get("prompt_id").Int()}}
		case model.ChunkError:
			return []model.StreamChunk{{Type: model.ChunkError, Error: firstString(r, "error", "message")}}
		}
		return nil
	}

	switch r.Get("status").String() {
	case "progress":
		return []model.StreamChunk{{Type: model.ChunkContent, Content: r.Get("message").String()}}
	case "finish":
		var out []model.StreamChunk
		if c := r.Get("citations"); c.IsArray() && len(c.Array()) > 0 {
			out = append(out, citationChunk(c))
		}
		return append(out, model.StreamChunk{Type: model.ChunkDone, PromptID: r.Get("id").Int()})
	case "error":
		return []model.StreamChunk{{Type: model.ChunkError, Error: firstString(r, "message", "error")}}
	}
	return nil
}

// citationChunk keeps objects as resolved citations and anything else as raw ids.
func citationChunk(list gjson.Result) model.StreamChunk {
	chunk := model.StreamChunk{Type: model.ChunkCitation}
	for _, item := range list.Array() {
		if item.IsObject() {
			rec := citationRecordOf(item)
			chunk.Citations = append(chunk.Citations, model.Citation{
				ID:      rec.ID,
				Index:   len(chunk.Citations) + 1,
				Title:   rec.Title,
				Source:  rec.Description,
				URL:     rec.URL,
				Content: rec.Content,
			})
			continue
		}
		chunk.CitationIDs = append(chunk.CitationIDs, item.Value())
	}
	return chunk
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p).String(); v != "" {
			return v
		}
	}
	return ""
}
