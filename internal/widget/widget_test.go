package widget_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/session"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/storage"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream/mocks"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/widget"
)

const agentID = "42"

// offlineManager has no credentials, so every conversation stays local.
func offlineManager() *widget.Manager {
	return widget.NewManager(widget.Deps{
		Storage: storage.NewAdapter(storage.NewMemoryStore(0), ""),
	})
}

func onlineManager(t *testing.T) (*widget.Manager, *mocks.MockClient) {
	t.Helper()
	client := mocks.NewMockClient(t)
	client.On("GetAgentSettings", mock.Anything, agentID).
		Return(&model.AgentSettings{AgentID: agentID, Name: "Support", IsActive: true}, nil).Maybe()
	m := widget.NewManager(widget.Deps{
		Client:         client,
		HasCredentials: true,
		Storage:        storage.NewAdapter(storage.NewMemoryStore(0), ""),
	})
	return m, client
}

func TestInit_Validation(t *testing.T) {
	m := offlineManager()

	_, err := m.Init(context.Background(), widget.Config{})
	assert.ErrorIs(t, err, app_errors.ErrConfiguration)

	_, err = m.Init(context.Background(), widget.Config{AgentID: agentID, DisplayMode: "sidebar"})
	assert.ErrorIs(t, err, app_errors.ErrValidation)

	_, err = m.Init(context.Background(), widget.Config{AgentID: agentID, ContainerID: "missing"})
	assert.ErrorIs(t, err, app_errors.ErrConfiguration)

	assert.Empty(t, m.Instances())
}

func TestInit_MountsIntoDeclaredContainer(t *testing.T) {
	host := widget.NewMemoryHost()
	host.Declare("chat-root")
	m := widget.NewManager(widget.Deps{Host: host})

	inst, err := m.Init(context.Background(), widget.Config{AgentID: agentID, ContainerID: "chat-root"})
	require.NoError(t, err)

	view, ok := inst.Container().Mounted()
	require.True(t, ok)
	assert.Equal(t, inst.ID(), view.InstanceID)
	assert.Equal(t, widget.ModeEmbedded, view.Mode)
	assert.True(t, inst.IsOpen())

	inst.Destroy(context.Background())
	_, stillDeclared := host.Lookup("chat-root")
	assert.True(t, stillDeclared)
	_, mounted := inst.Container().Mounted()
	assert.False(t, mounted)
}

func TestIsolation_DistinctSessionsNeverShareConversations(t *testing.T) {
	m := offlineManager()
	ctx := context.Background()

	a, err := m.Init(ctx, widget.Config{AgentID: agentID})
	require.NoError(t, err)
	b, err := m.Init(ctx, widget.Config{AgentID: agentID})
	require.NoError(t, err)
	require.NotEqual(t, a.SessionID(), b.SessionID())
	assert.Equal(t, session.ScopeIsolated, a.Scope())

	_, err = a.CreateConversation(ctx, "only in a")
	require.NoError(t, err)

	assert.Len(t, a.GetConversations(ctx), 1)
	assert.Empty(t, b.GetConversations(ctx))
}

func TestSharedSession_SeesSameConversations(t *testing.T) {
	m := offlineManager()
	ctx := context.Background()
	cfg := widget.Config{AgentID: agentID, DisableIsolation: true, SessionID: "team"}

	a, err := m.Init(ctx, cfg)
	require.NoError(t, err)
	b, err := m.Init(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "team", a.SessionID())
	assert.Equal(t, session.ScopeShared, b.Scope())

	conv, err := a.CreateConversation(ctx, "shared")
	require.NoError(t, err)

	convs := b.GetConversations(ctx)
	require.Len(t, convs, 1)
	assert.Equal(t, conv.ID, convs[0].ID)
	assert.Len(t, m.Registry().Lookup("team"), 2)
}

func TestSharedSession_PeersFollowListChanges(t *testing.T) {
	m := offlineManager()
	ctx := context.Background()
	cfg := widget.Config{AgentID: agentID, DisableIsolation: true, SessionID: "team"}

	a, err := m.Init(ctx, cfg)
	require.NoError(t, err)
	var bChanges []string
	bCfg := cfg
	bCfg.OnConversationChange = func(c model.Conversation) { bChanges = append(bChanges, c.ID) }
	b, err := m.Init(ctx, bCfg)
	require.NoError(t, err)

	first, err := a.CreateConversation(ctx, "first")
	require.NoError(t, err)
	current, ok := b.CurrentConversation()
	require.True(t, ok)
	assert.Equal(t, first.ID, current.ID)

	time.Sleep(2 * time.Millisecond)
	second, err := a.CreateConversation(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Info().Conversations)

	_, err = a.UpdateConversationTitle(ctx, first.ID, "renamed")
	require.NoError(t, err)
	current, ok = b.CurrentConversation()
	require.True(t, ok)
	assert.Equal(t, "renamed", current.Title)

	require.NoError(t, a.DeleteConversation(ctx, first.ID))
	current, ok = b.CurrentConversation()
	require.True(t, ok)
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, 1, b.Info().Conversations)
	assert.Equal(t, []string{first.ID, second.ID}, bChanges)

	switched, err := b.SwitchConversation(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, switched)
}

func TestWidgetMode_RestoresSessionAcrossInstances(t *testing.T) {
	m := offlineManager()
	ctx := context.Background()
	cfg := widget.Config{AgentID: agentID, DisplayMode: widget.ModeWidget}

	first, err := m.Init(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, session.ScopeAgent, first.Scope())
	assert.False(t, first.IsOpen())
	conv, err := first.CreateConversation(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "New Conversation", conv.Title)
	first.Destroy(ctx)

	second, err := m.Init(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID(), second.SessionID())
	current, ok := second.CurrentConversation()
	require.True(t, ok)
	assert.Equal(t, conv.ID, current.ID)
}

func TestCreateConversation_LimitLeavesListUntouched(t *testing.T) {
	m := offlineManager()
	ctx := context.Background()
	inst, err := m.Init(ctx, widget.Config{AgentID: agentID, MaxConversations: 1})
	require.NoError(t, err)

	first, err := inst.CreateConversation(ctx, "one")
	require.NoError(t, err)

	_, err = inst.CreateConversation(ctx, "two")
	require.ErrorIs(t, err, app_errors.ErrLimitReached)
	var limitErr *app_errors.LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 1, limitErr.Max)

	convs := inst.GetConversations(ctx)
	require.Len(t, convs, 1)
	assert.Equal(t, first.ID, convs[0].ID)
	current, _ := inst.CurrentConversation()
	assert.Equal(t, first.ID, current.ID)
}

func TestCreateConversation_ServerAndLocalFallback(t *testing.T) {
	m, client := onlineManager(t)
	ctx := context.Background()
	inst, err := m.Init(ctx, widget.Config{AgentID: agentID})
	require.NoError(t, err)

	settings, ok := inst.AgentSettings()
	require.True(t, ok)
	assert.Equal(t, "Support", settings.Name)

	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	client.On("CreateConversation", mock.Anything, agentID, "synced").
		Return(&upstream.ConversationRecord{ID: 900, SessionRef: "ref-900", Title: "synced", CreatedAt: created}, nil).Once()
	client.On("CreateConversation", mock.Anything, agentID, "offline").
		Return(nil, app_errors.ErrTransport).Once()

	synced, err := inst.CreateConversation(ctx, "synced")
	require.NoError(t, err)
	assert.Equal(t, "900", synced.ID)
	assert.Equal(t, "ref-900", synced.SessionRef)
	assert.False(t, synced.IsLocal())

	local, err := inst.CreateConversation(ctx, "offline")
	require.NoError(t, err)
	assert.True(t, local.IsLocal())
	assert.Empty(t, local.SessionRef)
	assert.True(t, len(inst.Messages(local.ID)) == 0)
}

func TestDeleteConversation_NeverOrphansCurrent(t *testing.T) {
	m := offlineManager()
	ctx := context.Background()

	var changes []string
	inst, err := m.Init(ctx, widget.Config{
		AgentID:              agentID,
		OnConversationChange: func(c model.Conversation) { changes = append(changes, c.ID) },
	})
	require.NoError(t, err)

	older, err := inst.CreateConversation(ctx, "older")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	newer, err := inst.CreateConversation(ctx, "newer")
	require.NoError(t, err)

	require.NoError(t, inst.DeleteConversation(ctx, newer.ID))
	current, ok := inst.CurrentConversation()
	require.True(t, ok)
	assert.Equal(t, older.ID, current.ID)

	require.NoError(t, inst.DeleteConversation(ctx, older.ID))
	current, ok = inst.CurrentConversation()
	require.True(t, ok)
	assert.NotEqual(t, older.ID, current.ID)
	convs := inst.GetConversations(ctx)
	require.Len(t, convs, 1)
	assert.Equal(t, current.ID, convs[0].ID)

	assert.Equal(t, []string{older.ID, newer.ID, older.ID, current.ID}, changes)
	assert.ErrorIs(t, inst.DeleteConversation(ctx, "nope"), app_errors.ErrNotFound)
}

func TestDeleteConversation_UpstreamFailureKeepsConversation(t *testing.T) {
	m, client := onlineManager(t)
	ctx := context.Background()
	inst, err := m.Init(ctx, widget.Config{AgentID: agentID})
	require.NoError(t, err)

	client.On("CreateConversation", mock.Anything, agentID, "keep").
		Return(&upstream.ConversationRecord{ID: 5, SessionRef: "ref-5"}, nil).Once()
	conv, err := inst.CreateConversation(ctx, "keep")
	require.NoError(t, err)

	client.On("DeleteConversation", mock.Anything, agentID, "ref-5").Return(&app_errors.UpstreamError{Status: 500}).Once()
	err = inst.DeleteConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, app_errors.ErrUpstream)
	assert.Len(t, inst.GetConversations(ctx), 1)
}

func TestSwitchConversation(t *testing.T) {
	m := offlineManager()
	ctx := context.Background()

	var got []string
	inst, err := m.Init(ctx, widget.Config{
		AgentID:              agentID,
		OnConversationChange: func(c model.Conversation) { got = append(got, c.Title) },
	})
	require.NoError(t, err)

	a, err := inst.CreateConversation(ctx, "a")
	require.NoError(t, err)
	_, err = inst.CreateConversation(ctx, "b")
	require.NoError(t, err)

	switched, err := inst.SwitchConversation(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, switched)

	switched, err = inst.SwitchConversation(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, switched)
	current, _ := inst.CurrentConversation()
	assert.Equal(t, a.ID, current.ID)
	assert.Equal(t, []string{"a", "b", "a"}, got)
}

func TestUpdateConversationTitle(t *testing.T) {
	m := offlineManager()
	ctx := context.Background()
	inst, err := m.Init(ctx, widget.Config{AgentID: agentID})
	require.NoError(t, err)
	conv, err := inst.CreateConversation(ctx, "draft")
	require.NoError(t, err)

	updated, err := inst.UpdateConversationTitle(ctx, conv.ID, "  Final  ")
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "Final", inst.GetConversations(ctx)[0].Title)

	_, err = inst.UpdateConversationTitle(ctx, conv.ID, " ")
	assert.ErrorIs(t, err, app_errors.ErrValidation)
	_, err = inst.UpdateConversationTitle(ctx, "missing", "x")
	assert.ErrorIs(t, err, app_errors.ErrNotFound)
}

func TestOpenCloseToggle(t *testing.T) {
	m := offlineManager()
	ctx := context.Background()

	var opened, closed int
	floating, err := m.Init(ctx, widget.Config{
		AgentID:     agentID,
		DisplayMode: widget.ModeFloating,
		OnOpen:      func() { opened++ },
		OnClose:     func() { closed++ },
	})
	require.NoError(t, err)
	assert.False(t, floating.IsOpen())

	floating.Open()
	floating.Open()
	assert.True(t, floating.Container().Visible())
	assert.False(t, floating.Toggle())
	assert.False(t, floating.Container().Visible())
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)

	var embeddedCalls int
	embedded, err := m.Init(ctx, widget.Config{AgentID: agentID, OnClose: func() { embeddedCalls++ }})
	require.NoError(t, err)
	embedded.Close()
	assert.False(t, embedded.IsOpen())
	assert.Zero(t, embeddedCalls)
}

func TestUpdateConfig(t *testing.T) {
	m := offlineManager()
	inst, err := m.Init(context.Background(), widget.Config{AgentID: agentID})
	require.NoError(t, err)

	theme, max := "dark", 3
	cfg, err := inst.UpdateConfig(widget.ConfigPatch{Theme: &theme, MaxConversations: &max})
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, 3, inst.Config().MaxConversations)
	view, _ := inst.Container().Mounted()
	assert.Equal(t, "dark", view.Theme)

	bad := "bottom-middle"
	_, err = inst.UpdateConfig(widget.ConfigPatch{Position: &bad})
	assert.ErrorIs(t, err, app_errors.ErrValidation)
	assert.Equal(t, "bottom-right", inst.Config().Position)
}

func TestDestroy_RemovesEveryRegistration(t *testing.T) {
	host := widget.NewMemoryHost()
	m := widget.NewManager(widget.Deps{Host: host})
	ctx := context.Background()

	inst, err := m.Init(ctx, widget.Config{AgentID: agentID, DisplayMode: widget.ModeFloating})
	require.NoError(t, err)
	containerID := inst.Container().ID()
	events, _ := inst.Subscribe()
	require.Equal(t, 1, m.Registry().Len())

	inst.Destroy(ctx)
	inst.Destroy(ctx)

	assert.Zero(t, m.Registry().Len())
	assert.Empty(t, m.Registry().Sessions())
	_, ok := m.Get(inst.ID())
	assert.False(t, ok)
	_, ok = host.Lookup(containerID)
	assert.False(t, ok)

	var last widget.Event
	for e := range events {
		last = e
	}
	assert.Equal(t, widget.EventDestroyed, last.Type)

	_, err = inst.CreateConversation(ctx, "late")
	assert.ErrorIs(t, err, widget.ErrDestroyed)
	_, err = inst.SendMessage(ctx, "late", nil)
	assert.ErrorIs(t, err, widget.ErrDestroyed)
}

func TestSendMessage_PromotesLocalConversation(t *testing.T) {
	m, client := onlineManager(t)
	ctx := context.Background()

	var delivered []model.ChatMessage
	inst, err := m.Init(ctx, widget.Config{
		AgentID:   agentID,
		OnMessage: func(msg model.ChatMessage) { delivered = append(delivered, msg) },
	})
	require.NoError(t, err)

	client.On("CreateConversation", mock.Anything, agentID, "draft").Return(nil, app_errors.ErrTransport).Once()
	local, err := inst.CreateConversation(ctx, "draft")
	require.NoError(t, err)
	require.True(t, local.IsLocal())

	client.On("CreateConversation", mock.Anything, agentID, "draft").
		Return(&upstream.ConversationRecord{ID: 77, SessionRef: "ref-77"}, nil).Once()
	client.On("SendMessageStream", mock.Anything, agentID, "ref-77", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			cb := args.Get(4).(upstream.StreamCallbacks)
			cb.OnChunk(model.StreamChunk{Type: model.ChunkContent, Content: "hi there"})
		}).
		Return(nil).Once()
	client.On("GetMessages", mock.Anything, agentID, "ref-77").Return(nil, nil).Once()

	msg, err := inst.SendMessage(ctx, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hi there", msg.Content)
	inst.Wait()

	current, ok := inst.CurrentConversation()
	require.True(t, ok)
	assert.Equal(t, "77", current.ID)
	assert.Len(t, inst.Messages("77"), 2)
	assert.Empty(t, inst.Messages(local.ID))

	require.Len(t, delivered, 2)
	assert.Equal(t, model.RoleUser, delivered[0].Role)
	assert.Equal(t, model.RoleAssistant, delivered[1].Role)
}

func TestCancelStreaming_MarksMessageStopped(t *testing.T) {
	m, client := onlineManager(t)
	ctx := context.Background()
	inst, err := m.Init(ctx, widget.Config{AgentID: agentID})
	require.NoError(t, err)

	client.On("CreateConversation", mock.Anything, agentID, "wait for it").
		Return(&upstream.ConversationRecord{ID: 8, SessionRef: "ref-8"}, nil).Once()
	client.On("SendMessageStream", mock.Anything, agentID, "ref-8", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return(context.Canceled).Once()

	done := make(chan error, 1)
	go func() {
		_, err := inst.SendMessage(ctx, "wait for it", nil)
		done <- err
	}()
	assert.Eventually(t, func() bool {
		st, ok := inst.Stream()
		return ok && st.Streaming
	}, time.Second, 5*time.Millisecond)

	assert.True(t, inst.CancelStreaming())
	assert.ErrorIs(t, <-done, context.Canceled)

	msgs := inst.Messages("8")
	require.Len(t, msgs, 2)
	assert.Equal(t, model.StatusError, msgs[1].Status)
	assert.Equal(t, "Response stopped.", msgs[1].Content)
	assert.False(t, inst.CancelStreaming())
}

func TestSnapshot(t *testing.T) {
	m := offlineManager()
	ctx := context.Background()
	a, err := m.Init(ctx, widget.Config{AgentID: agentID})
	require.NoError(t, err)
	_, err = m.Init(ctx, widget.Config{AgentID: "7", DisplayMode: widget.ModeFloating})
	require.NoError(t, err)
	_, err = a.CreateConversation(ctx, "x")
	require.NoError(t, err)

	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, a.ID(), snap[0].InstanceID)
	assert.Equal(t, 1, snap[0].Conversations)
	assert.Equal(t, "idle", snap[0].Pipeline)
	assert.Equal(t, widget.ModeFloating, snap[1].Mode)
	assert.False(t, snap[1].Open)
}
