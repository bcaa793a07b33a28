package widget

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/conversation"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/observability"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/session"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/storage"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream"
)

// Deps are the collaborators shared by every instance of a Manager.
type Deps struct {
	Client                  upstream.Client
	HasCredentials          bool
	Storage                 *storage.Adapter
	Host                    Host
	Sessions                *session.Resolver
	MergeWindow             time.Duration
	DefaultMaxConversations int
}

// Manager creates, tracks and tears down widget instances.
type Manager struct {
	deps          Deps
	conversations *conversation.Store
	registry      *Registry

	mu        sync.RWMutex
	instances map[string]*Instance
	seq       uint64
}

func NewManager(deps Deps) *Manager {
	if deps.Storage == nil {
		deps.Storage = storage.NewAdapter(storage.NewMemoryStore(0), "")
	}
	if deps.Host == nil {
		deps.Host = NewMemoryHost()
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewResolver()
	}
	return &Manager{
		deps:          deps,
		conversations: conversation.NewStore(deps.Storage),
		registry:      NewRegistry(),
		instances:     make(map[string]*Instance),
	}
}

// Init validates cfg, resolves the instance's session, mounts it and restores
// any conversation state persisted for that session.
func (m *Manager) Init(ctx context.Context, cfg Config) (*Instance, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxConversations == 0 {
		cfg.MaxConversations = m.deps.DefaultMaxConversations
	}

	identity := m.deps.Sessions.Resolve(session.Request{
		AgentID:          cfg.AgentID,
		PersistentWidget: cfg.DisplayMode == ModeWidget,
		Isolated:         !cfg.DisableIsolation,
		SessionID:        cfg.SessionID,
	})
	id := "inst_" + uuid.NewString()

	containerID, create := cfg.ContainerID, false
	if containerID == "" {
		containerID, create = "kasmchat-"+id, true
	}
	container, err := m.deps.Host.Attach(containerID, create)
	if err != nil {
		return nil, err
	}

	inst := newInstance(m, id, cfg, identity, container)
	ctx = inst.logCtx(ctx)
	inst.restore(ctx)

	m.mu.Lock()
	m.seq++
	inst.seq = m.seq
	m.instances[id] = inst
	m.mu.Unlock()
	m.registry.register(inst)
	inst.render()

	observability.FromContext(ctx).Info("Widget instance initialized",
		"agent_id", cfg.AgentID, "mode", cfg.DisplayMode, "scope", identity.Scope, "container_id", containerID)
	return inst, nil
}

// Get returns a live instance by id.
func (m *Manager) Get(instanceID string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[instanceID]
	return inst, ok
}

// Instances returns every live instance, oldest first.
func (m *Manager) Instances() []*Instance {
	m.mu.RLock()
	out := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, inst)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (m *Manager) Registry() *Registry { return m.registry }

// Close destroys every instance and waits for their background work.
func (m *Manager) Close(ctx context.Context) {
	for _, inst := range m.Instances() {
		inst.Destroy(ctx)
		inst.messages.Wait()
	}
}

func (m *Manager) remove(inst *Instance) {
	m.mu.Lock()
	delete(m.instances, inst.id)
	m.mu.Unlock()
	m.registry.unregister(inst.sessionID, inst.id)
}

// InstanceInfo is a point-in-time description of an instance for debugging.
type InstanceInfo struct {
	InstanceID          string        `json:"instance_id"`
	SessionID           string        `json:"session_id"`
	Scope               session.Scope `json:"scope"`
	AgentID             string        `json:"agent_id"`
	Mode                DisplayMode   `json:"mode"`
	ContainerID         string        `json:"container_id"`
	Open                bool          `json:"open"`
	CurrentConversation string        `json:"current_conversation,omitempty"`
	Conversations       int           `json:"conversations"`
	Pipeline            string        `json:"pipeline"`
	Streaming           bool          `json:"streaming"`
	CreatedAt           time.Time     `json:"created_at"`
}

// Snapshot describes every live instance.
func (m *Manager) Snapshot() []InstanceInfo {
	instances := m.Instances()
	out := make([]InstanceInfo, 0, len(instances))
	for _, inst := range instances {
		out = append(out, inst.Info())
	}
	return out
}
