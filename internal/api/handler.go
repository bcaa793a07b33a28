package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/widget"
)

// CreateConversationRequest is the DTO for starting a conversation.
type CreateConversationRequest struct {
	Title string `json:"title" validate:"max=100" example:"Billing question"`
}

// UpdateTitleRequest is the DTO for renaming a conversation.
type UpdateTitleRequest struct {
	Title string `json:"title" validate:"required,min=1,max=100" example:"My Custom Chat Title"`
}

// FeedbackRequest is the DTO for reacting to an assistant message. An empty
// value clears the reaction.
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"omitempty,oneof=liked disliked" example:"liked"`
}

// WidgetHandler exposes widget instances over HTTP.
type WidgetHandler struct {
	manager        *widget.Manager
	allowedOrigins map[string]bool
}

func NewWidgetHandler(manager *widget.Manager, allowedOrigins []string) *WidgetHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &WidgetHandler{manager: manager, allowedOrigins: origins}
}

// instance resolves the {instanceID} URL parameter, answering 404 when unknown.
func (h *WidgetHandler) instance(w http.ResponseWriter, r *http.Request) (*widget.Instance, bool) {
	inst, ok := h.manager.Get(chi.URLParam(r, "instanceID"))
	if !ok {
		respondWithError(w, widget.ErrDestroyed)
		return nil, false
	}
	return inst, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return false
	}
	return true
}

// ListWidgets godoc
// @Summary      List widget instances
// @Description  Describes every live widget instance.
// @Tags         Widgets
// @Produce      json
// @Success      200  {array}  widget.InstanceInfo
// @Router       /v1/widgets [get]
func (h *WidgetHandler) ListWidgets(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.manager.Snapshot())
}

// CreateWidget godoc
// @Summary      Initialize a widget instance
// @Description  Validates the configuration, resolves the session and mounts a new instance.
// @Tags         Widgets
// @Accept       json
// @Produce      json
// @Param        config  body      widget.Config  true  "Widget configuration"
// @Success      201     {object}  widget.InstanceInfo
// @Failure      400     {object}  ErrorResponse
// @Router       /v1/widgets [post]
func (h *WidgetHandler) CreateWidget(w http.ResponseWriter, r *http.Request) {
	var cfg widget.Config
	if !decodeJSON(w, r, &cfg) {
		return
	}
	inst, err := h.manager.Init(r.Context(), cfg)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, inst.Info())
}

// GetWidget godoc
// @Summary      Describe a widget instance
// @Tags         Widgets
// @Produce      json
// @Param        instanceID  path      string  true  "Instance ID"
// @Success      200         {object}  widget.InstanceInfo
// @Failure      404         {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID} [get]
func (h *WidgetHandler) GetWidget(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, inst.Info())
}

// UpdateWidgetConfig godoc
// @Summary      Update a widget's configuration
// @Tags         Widgets
// @Accept       json
// @Produce      json
// @Param        instanceID  path      string              true  "Instance ID"
// @Param        patch       body      widget.ConfigPatch  true  "Fields to change"
// @Success      200         {object}  widget.Config
// @Failure      400         {object}  ErrorResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/config [patch]
func (h *WidgetHandler) UpdateWidgetConfig(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	var patch widget.ConfigPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	cfg, err := inst.UpdateConfig(patch)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, cfg)
}

// DeleteWidget godoc
// @Summary      Destroy a widget instance
// @Tags         Widgets
// @Produce      json
// @Param        instanceID  path      string  true  "Instance ID"
// @Success      200         {object}  StatusResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID} [delete]
func (h *WidgetHandler) DeleteWidget(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	inst.Destroy(r.Context())
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// OpenWidget godoc
// @Summary      Open a widget
// @Tags         Widgets
// @Produce      json
// @Param        instanceID  path      string  true  "Instance ID"
// @Success      200         {object}  OpenResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/open [post]
func (h *WidgetHandler) OpenWidget(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	inst.Open()
	respondWithJSON(w, http.StatusOK, OpenResponse{Open: inst.IsOpen()})
}

// CloseWidget godoc
// @Summary      Close a widget
// @Tags         Widgets
// @Produce      json
// @Param        instanceID  path      string  true  "Instance ID"
// @Success      200         {object}  OpenResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/close [post]
func (h *WidgetHandler) CloseWidget(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	inst.Close()
	respondWithJSON(w, http.StatusOK, OpenResponse{Open: inst.IsOpen()})
}

// ToggleWidget godoc
// @Summary      Toggle a widget
// @Tags         Widgets
// @Produce      json
// @Param        instanceID  path      string  true  "Instance ID"
// @Success      200         {object}  OpenResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/toggle [post]
func (h *WidgetHandler) ToggleWidget(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, OpenResponse{Open: inst.Toggle()})
}

// RefreshWidget godoc
// @Summary      Reload conversations and the current history
// @Tags         Widgets
// @Produce      json
// @Param        instanceID  path      string  true  "Instance ID"
// @Success      200         {object}  widget.InstanceInfo
// @Failure      404         {object}  ErrorResponse
// @Failure      502         {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/refresh [post]
func (h *WidgetHandler) RefreshWidget(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	if err := inst.Refresh(r.Context()); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, inst.Info())
}

// ListConversations godoc
// @Summary      List conversations
// @Description  Returns the conversations of the widget's session, most recent first.
// @Tags         Conversations
// @Produce      json
// @Param        instanceID  path      string  true  "Instance ID"
// @Success      200         {array}   model.Conversation
// @Failure      404         {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/conversations [get]
func (h *WidgetHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, inst.GetConversations(r.Context()))
}

// CreateConversation godoc
// @Summary      Start a conversation
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        instanceID  path      string                     true  "Instance ID"
// @Param        request     body      CreateConversationRequest  false "Optional title"
// @Success      201         {object}  model.Conversation
// @Failure      404         {object}  ErrorResponse
// @Failure      409         {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/conversations [post]
func (h *WidgetHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	var req CreateConversationRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	conv, err := inst.CreateConversation(r.Context(), req.Title)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, conv)
}

// UpdateConversationTitle godoc
// @Summary      Rename a conversation
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        instanceID      path      string              true  "Instance ID"
// @Param        conversationID  path      string              true  "Conversation ID"
// @Param        request         body      UpdateTitleRequest  true  "New title"
// @Success      200             {object}  model.Conversation
// @Failure      400             {object}  ErrorResponse
// @Failure      404             {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/conversations/{conversationID}/title [put]
func (h *WidgetHandler) UpdateConversationTitle(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	var req UpdateTitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	conv, err := inst.UpdateConversationTitle(r.Context(), chi.URLParam(r, "conversationID"), req.Title)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conv)
}

// DeleteConversation godoc
// @Summary      Delete a conversation
// @Tags         Conversations
// @Produce      json
// @Param        instanceID      path      string  true  "Instance ID"
// @Param        conversationID  path      string  true  "Conversation ID"
// @Success      200             {object}  StatusResponse
// @Failure      404             {object}  ErrorResponse
// @Failure      502             {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/conversations/{conversationID} [delete]
func (h *WidgetHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	if err := inst.DeleteConversation(r.Context(), chi.URLParam(r, "conversationID")); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// SwitchConversation godoc
// @Summary      Select the current conversation
// @Tags         Conversations
// @Produce      json
// @Param        instanceID      path      string  true  "Instance ID"
// @Param        conversationID  path      string  true  "Conversation ID"
// @Success      200             {array}   model.ChatMessage
// @Failure      404             {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/conversations/{conversationID}/switch [post]
func (h *WidgetHandler) SwitchConversation(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "conversationID")
	switched, err := inst.SwitchConversation(r.Context(), id)
	if !switched {
		respondWithError(w, app_errors.ErrNotFound)
		return
	}
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, inst.Messages(id))
}

// GetMessages godoc
// @Summary      Load a conversation's messages
// @Tags         Messages
// @Produce      json
// @Param        instanceID      path      string  true  "Instance ID"
// @Param        conversationID  path      string  true  "Conversation ID"
// @Success      200             {array}   model.ChatMessage
// @Failure      404             {object}  ErrorResponse
// @Failure      502             {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/conversations/{conversationID}/messages [get]
func (h *WidgetHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	msgs, err := inst.LoadMessages(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, msgs)
}

// UpdateMessageFeedback godoc
// @Summary      React to an assistant message
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Param        instanceID      path      string           true  "Instance ID"
// @Param        conversationID  path      string           true  "Conversation ID"
// @Param        messageID       path      string           true  "Message ID"
// @Param        request         body      FeedbackRequest  true  "Reaction"
// @Success      200             {object}  StatusResponse
// @Failure      400             {object}  ErrorResponse
// @Failure      404             {object}  ErrorResponse
// @Failure      502             {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/conversations/{conversationID}/messages/{messageID}/feedback [put]
func (h *WidgetHandler) UpdateMessageFeedback(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	var req FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	err := inst.UpdateMessageFeedback(r.Context(), chi.URLParam(r, "conversationID"), chi.URLParam(r, "messageID"), model.Feedback(req.Feedback))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// CancelStream godoc
// @Summary      Stop the streaming response
// @Tags         Messages
// @Produce      json
// @Param        instanceID  path      string  true  "Instance ID"
// @Success      200         {object}  StatusResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /v1/widgets/{instanceID}/cancel [post]
func (h *WidgetHandler) CancelStream(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	status := "idle"
	if inst.CancelStreaming() {
		status = "cancelled"
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: status})
}
