package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/widget"
)

// FileUpload is an attachment sent along with a message. Data is base64 in JSON.
type FileUpload struct {
	Name        string `json:"name" validate:"required,max=255" example:"notes.pdf"`
	ContentType string `json:"content_type" example:"application/pdf"`
	Data        []byte `json:"data" validate:"required"`
}

// SendMessageRequest is the DTO for sending a message.
type SendMessageRequest struct {
	Text  string       `json:"text" validate:"required_without=Files,max=20000" example:"How do I reset my password?"`
	Files []FileUpload `json:"files,omitempty" validate:"dive"`
}

// EventCommand is an instruction received over the events websocket.
type EventCommand struct {
	Action string `json:"action"`
}

// ConnectedMessage is the first frame written on the events websocket.
type ConnectedMessage struct {
	Type     string              `json:"type"`
	Instance widget.InstanceInfo `json:"instance"`
}

// HandleSendMessage godoc
// @Summary      Send a message
// @Description  Streams message events as SSE while the answer is produced. The final `done` event carries the settled assistant message.
// @Tags         Messages
// @Accept       json
// @Produce      text/event-stream
// @Param        instanceID  path  string              true  "Instance ID"
// @Param        request     body  SendMessageRequest  true  "Message"
// @Success      200
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/messages [post]
func (h *WidgetHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	files := make([]model.Attachment, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, model.Attachment{Name: f.Name, ContentType: f.ContentType, Data: f.Data})
	}

	streamPipeline(w, r, inst, func(ctx context.Context) (model.ChatMessage, error) {
		return inst.SendMessage(ctx, req.Text, files)
	})
}

// HandleRegenerate godoc
// @Summary      Regenerate the last answer
// @Description  Drops the last assistant answer of the current conversation and streams a new one as SSE.
// @Tags         Messages
// @Produce      text/event-stream
// @Param        instanceID  path  string  true  "Instance ID"
// @Success      200
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/regenerate [post]
func (h *WidgetHandler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	streamPipeline(w, r, inst, inst.RegenerateLastResponse)
}

// streamPipeline relays the instance's message events as SSE while run
// executes, then writes a final `done` or `error` event.
func streamPipeline(w http.ResponseWriter, r *http.Request, inst *widget.Instance, run func(context.Context) (model.ChatMessage, error)) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, unsubscribe := inst.Subscribe()
	defer unsubscribe()

	type result struct {
		msg model.ChatMessage
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := run(r.Context())
		done <- result{msg: msg, err: err}
	}()

	clientGone := false
	relay := func(e widget.Event) {
		if clientGone || (e.Type != widget.EventMessage && e.Type != widget.EventMessageRemoved) {
			return
		}
		if err := writeStreamEvent(w, string(e.Type), e); err != nil {
			slog.Info("Client disconnected during stream", "instance_id", inst.ID(), "error", err)
			clientGone = true
		}
	}

	for {
		select {
		case e, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			relay(e)
		case res := <-done:
		drain:
			for events != nil {
				select {
				case e, ok := <-events:
					if !ok {
						break drain
					}
					relay(e)
				default:
					break drain
				}
			}
			if clientGone {
				return
			}
			if res.err != nil {
				_, message := errorStatus(res.err)
				sendStreamError(w, message)
				return
			}
			if err := writeStreamEvent(w, "done", res.msg); err != nil {
				slog.Info("Client disconnected before completion", "instance_id", inst.ID(), "error", err)
			}
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *WidgetHandler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser clients
	}
	return h.allowedOrigins[origin]
}

// HandleEvents godoc
// @Summary      Subscribe to widget events
// @Description  Upgrades to a websocket that pushes open, close, message and conversation events. Clients may send {"action":"open|close|toggle|cancel"}.
// @Tags         Widgets
// @Param        instanceID  path  string  true  "Instance ID"
// @Success      101
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/events [get]
func (h *WidgetHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}

	up := upgrader
	up.CheckOrigin = h.checkOrigin
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := inst.Subscribe()
	defer unsubscribe()

	if err := conn.WriteJSON(ConnectedMessage{Type: "connected", Instance: inst.Info()}); err != nil {
		slog.Warn("Failed to send connected message", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Commands are read here; all writes stay on the loop below.
	go func() {
		defer cancel()
		for {
			var cmd EventCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Warn("WebSocket closed unexpectedly", "instance_id", inst.ID(), "error", err)
				}
				return
			}
			applyCommand(inst, cmd)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "widget destroyed")
				_ = conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				slog.Warn("Failed to write to WebSocket", "instance_id", inst.ID(), "error", err)
				return
			}
		}
	}
}

func applyCommand(inst *widget.Instance, cmd EventCommand) {
	switch cmd.Action {
	case "open":
		inst.Open()
	case "close":
		inst.Close()
	case "toggle":
		inst.Toggle()
	case "cancel":
		inst.CancelStreaming()
	default:
		slog.Debug("Ignoring unknown widget command", "action", cmd.Action)
	}
}
