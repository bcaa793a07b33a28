// Black-box tests: only the exported surface of the api package is used.
package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/api"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/storage"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream/mocks"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/widget"
)

const agentID = "42"

// setupOffline builds a router over a manager without credentials, so every
// conversation stays local and no upstream calls are made.
func setupOffline(t *testing.T) (http.Handler, *widget.Manager) {
	t.Helper()
	m := widget.NewManager(widget.Deps{
		Storage: storage.NewAdapter(storage.NewMemoryStore(0), ""),
	})
	return api.NewRouter(api.NewWidgetHandler(m, nil)), m
}

// setupOnline wires the manager to a mocked upstream client.
func setupOnline(t *testing.T) (http.Handler, *widget.Manager, *mocks.MockClient) {
	t.Helper()
	client := mocks.NewMockClient(t)
	client.On("GetAgentSettings", mock.Anything, agentID).
		Return(&model.AgentSettings{AgentID: agentID, IsActive: true}, nil).Maybe()
	m := widget.NewManager(widget.Deps{
		Client:         client,
		HasCredentials: true,
		Storage:        storage.NewAdapter(storage.NewMemoryStore(0), ""),
	})
	return api.NewRouter(api.NewWidgetHandler(m, []string{"https://app.example.com"})), m, client
}

// addChiURLParams injects route parameters the way chi does, for calling
// handlers directly without the router.
func addChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for key, value := range params {
		chiCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func createWidget(t *testing.T, h http.Handler, body string) widget.InstanceInfo {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/api/v1/widgets", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var info widget.InstanceInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	return info
}

func TestWidgetHandler_CreateWidget(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, m := setupOffline(t)

		info := createWidget(t, h, `{"agent_id":"42","display_mode":"floating"}`)

		assert.True(t, strings.HasPrefix(info.InstanceID, "inst_"))
		assert.Equal(t, widget.ModeFloating, info.Mode)
		assert.False(t, info.Open)
		assert.Len(t, m.Instances(), 1)
	})

	t.Run("Missing agent is a configuration error", func(t *testing.T) {
		h, m := setupOffline(t)

		rr := doJSON(t, h, http.MethodPost, "/api/v1/widgets", `{"display_mode":"embedded"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, m.Instances())
	})

	t.Run("Invalid display mode", func(t *testing.T) {
		h, _ := setupOffline(t)

		rr := doJSON(t, h, http.MethodPost, "/api/v1/widgets", `{"agent_id":"42","display_mode":"sidebar"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "DisplayMode")
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		h, _ := setupOffline(t)

		rr := doJSON(t, h, http.MethodPost, "/api/v1/widgets", `{"agent_id":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"Invalid request payload"}`, rr.Body.String())
	})
}

func TestWidgetHandler_GetWidget(t *testing.T) {
	t.Run("Unknown instance", func(t *testing.T) {
		m := widget.NewManager(widget.Deps{})
		handler := api.NewWidgetHandler(m, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/widgets/inst_missing", nil)
		req = addChiURLParams(req, map[string]string{"instanceID": "inst_missing"})
		rr := httptest.NewRecorder()
		handler.GetWidget(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Destroyed instance is gone", func(t *testing.T) {
		h, _ := setupOffline(t)
		info := createWidget(t, h, `{"agent_id":"42"}`)

		rr := doJSON(t, h, http.MethodDelete, "/api/v1/widgets/"+info.InstanceID, "")
		require.Equal(t, http.StatusOK, rr.Code)

		rr = doJSON(t, h, http.MethodGet, "/api/v1/widgets/"+info.InstanceID, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestWidgetHandler_OpenCloseToggle(t *testing.T) {
	h, _ := setupOffline(t)
	info := createWidget(t, h, `{"agent_id":"42","display_mode":"floating"}`)
	base := "/api/v1/widgets/" + info.InstanceID

	rr := doJSON(t, h, http.MethodPost, base+"/open", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"open":true}`, rr.Body.String())

	rr = doJSON(t, h, http.MethodPost, base+"/toggle", "")
	assert.JSONEq(t, `{"open":false}`, rr.Body.String())

	rr = doJSON(t, h, http.MethodPost, base+"/close", "")
	assert.JSONEq(t, `{"open":false}`, rr.Body.String())
}

func TestWidgetHandler_UpdateWidgetConfig(t *testing.T) {
	h, _ := setupOffline(t)
	info := createWidget(t, h, `{"agent_id":"42"}`)
	path := "/api/v1/widgets/" + info.InstanceID + "/config"

	rr := doJSON(t, h, http.MethodPatch, path, `{"theme":"dark"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var cfg widget.Config
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cfg))
	assert.Equal(t, "dark", cfg.Theme)

	rr = doJSON(t, h, http.MethodPatch, path, `{"theme":"neon"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWidgetHandler_ConversationLifecycle(t *testing.T) {
	h, _ := setupOffline(t)
	info := createWidget(t, h, `{"agent_id":"42"}`)
	base := "/api/v1/widgets/" + info.InstanceID + "/conversations"

	// ARRANGE: two local conversations, the newer one current.
	rr := doJSON(t, h, http.MethodPost, base, `{"title":"first"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var first model.Conversation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))

	rr = doJSON(t, h, http.MethodPost, base, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var second model.Conversation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))

	rr = doJSON(t, h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var convs []model.Conversation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &convs))
	assert.Len(t, convs, 2)

	// ACT + ASSERT: rename, switch, delete.
	rr = doJSON(t, h, http.MethodPut, base+"/"+first.ID+"/title", `{"title":"renamed"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"title":"renamed"`)

	rr = doJSON(t, h, http.MethodPut, base+"/"+first.ID+"/title", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, base+"/"+first.ID+"/switch", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = doJSON(t, h, http.MethodPost, base+"/nope/switch", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, base+"/"+second.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/v1/widgets/"+info.InstanceID, "")
	var after widget.InstanceInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &after))
	assert.Equal(t, first.ID, after.CurrentConversation)
	assert.Equal(t, 1, after.Conversations)
}

func TestWidgetHandler_CreateConversationLimit(t *testing.T) {
	h, _ := setupOffline(t)
	info := createWidget(t, h, `{"agent_id":"42","max_conversations":1}`)
	base := "/api/v1/widgets/" + info.InstanceID + "/conversations"

	rr := doJSON(t, h, http.MethodPost, base, `{"title":"only"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodPost, base, `{"title":"one too many"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, h, http.MethodGet, base, "")
	var convs []model.Conversation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &convs))
	assert.Len(t, convs, 1)
}

func TestWidgetHandler_CancelStreamWhenIdle(t *testing.T) {
	h, _ := setupOffline(t)
	info := createWidget(t, h, `{"agent_id":"42"}`)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/widgets/"+info.InstanceID+"/cancel", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"idle"}`, rr.Body.String())
}

func TestHandleSendMessage(t *testing.T) {
	t.Run("Empty message is rejected", func(t *testing.T) {
		h, _ := setupOffline(t)
		info := createWidget(t, h, `{"agent_id":"42"}`)

		rr := doJSON(t, h, http.MethodPost, "/api/v1/widgets/"+info.InstanceID+"/messages", `{"text":""}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Streams message events then done", func(t *testing.T) {
		h, m, client := setupOnline(t)
		srv := httptest.NewServer(h)
		defer srv.Close()
		info := createWidget(t, h, `{"agent_id":"42"}`)

		client.On("CreateConversation", mock.Anything, agentID, "hi").
			Return(&upstream.ConversationRecord{ID: 9, SessionRef: "ref-9"}, nil).Once()
		client.On("SendMessageStream", mock.Anything, agentID, "ref-9", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				cb := args.Get(4).(upstream.StreamCallbacks)
				cb.OnChunk(model.StreamChunk{Type: model.ChunkContent, Content: "Hel"})
				cb.OnChunk(model.StreamChunk{Type: model.ChunkContent, Content: "lo"})
				cb.OnComplete()
			}).
			Return(nil).Once()
		client.On("GetMessages", mock.Anything, agentID, "ref-9").Return(nil, nil).Once()

		resp, err := http.Post(srv.URL+"/api/v1/widgets/"+info.InstanceID+"/messages", "application/json", strings.NewReader(`{"text":"hi"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		var events []string
		var doneData string
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if name, ok := strings.CutPrefix(line, "event: "); ok {
				events = append(events, name)
				continue
			}
			if data, ok := strings.CutPrefix(line, "data: "); ok && len(events) > 0 && events[len(events)-1] == "done" {
				doneData = data
			}
		}
		require.NoError(t, scanner.Err())

		require.NotEmpty(t, events)
		assert.Equal(t, "done", events[len(events)-1])
		assert.Contains(t, events, "message")
		var final model.ChatMessage
		require.NoError(t, json.Unmarshal([]byte(doneData), &final))
		assert.Equal(t, "Hello", final.Content)
		assert.Equal(t, model.StatusSent, final.Status)

		inst, ok := m.Get(info.InstanceID)
		require.True(t, ok)
		inst.Wait()
	})
}

func TestHandleEvents(t *testing.T) {
	t.Run("Pushes events and applies commands", func(t *testing.T) {
		h, _, _ := setupOnline(t)
		srv := httptest.NewServer(h)
		defer srv.Close()
		info := createWidget(t, h, `{"agent_id":"42","display_mode":"floating"}`)

		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/widgets/" + info.InstanceID + "/events"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		var hello api.ConnectedMessage
		require.NoError(t, conn.ReadJSON(&hello))
		assert.Equal(t, "connected", hello.Type)
		assert.Equal(t, info.InstanceID, hello.Instance.InstanceID)

		require.NoError(t, conn.WriteJSON(api.EventCommand{Action: "open"}))

		var ev widget.Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, widget.EventOpen, ev.Type)
		assert.Equal(t, info.InstanceID, ev.InstanceID)
	})

	t.Run("Rejects foreign origins", func(t *testing.T) {
		h, _, _ := setupOnline(t)
		srv := httptest.NewServer(h)
		defer srv.Close()
		info := createWidget(t, h, `{"agent_id":"42"}`)

		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/widgets/" + info.InstanceID + "/events"
		header := http.Header{"Origin": []string{"https://evil.example.com"}}
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestHealthz(t *testing.T) {
	h, _ := setupOffline(t)

	rr := doJSON(t, h, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
