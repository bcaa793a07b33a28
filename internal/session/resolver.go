package session

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Scope describes how an identifier was chosen and therefore who may share it.
type Scope string

const (
	// ScopeAgent is stable for a fixed agent across process restarts.
	ScopeAgent Scope = "agent"
	// ScopeIsolated is unique to one instantiation.
	ScopeIsolated Scope = "isolated"
	// ScopeShared was supplied by the caller to share conversations on purpose.
	ScopeShared Scope = "shared"
	// ScopeGeneric is a fresh identifier with no isolation guarantee requested.
	ScopeGeneric Scope = "generic"
)

// agentNamespace seeds the deterministic per-agent identifiers.
var agentNamespace = uuid.MustParse("6f1c2a3e-8d4b-4c59-9a1e-3b7d2f0c5e81")

// Request is the subset of widget configuration the resolver looks at.
type Request struct {
	AgentID          string
	PersistentWidget bool // "widget" display mode
	Isolated         bool
	SessionID        string
}

// Identity is the resolved session identifier and its scope.
type Identity struct {
	ID    string
	Scope Scope
}

// Resolver computes session identifiers. The zero value is ready to use.
type Resolver struct {
	now     func() time.Time
	counter atomic.Uint64
}

func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// Resolve applies, in order: persistent widget mode with isolation derives the
// id from the agent; isolation alone generates a fresh id; an explicit id is
// used as-is; anything else gets a generic fresh id.
func (r *Resolver) Resolve(req Request) Identity {
	switch {
	case req.PersistentWidget && req.Isolated:
		return Identity{ID: AgentSessionID(req.AgentID), Scope: ScopeAgent}
	case req.Isolated:
		return Identity{ID: r.isolatedID(), Scope: ScopeIsolated}
	case req.SessionID != "":
		return Identity{ID: req.SessionID, Scope: ScopeShared}
	default:
		return Identity{ID: "session_" + uuid.NewString(), Scope: ScopeGeneric}
	}
}

// AgentSessionID is the deterministic session id for agentID.
func AgentSessionID(agentID string) string {
	return "widget_" + uuid.NewSHA1(agentNamespace, []byte(agentID)).String()
}

// isolatedID mixes a nanosecond timestamp, a process counter and random bits so
// two instances created in the same tick still differ.
func (r *Resolver) isolatedID() string {
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	seq := r.counter.Add(1)
	random := uuid.New()
	return fmt.Sprintf("instance_%d_%d_%x", now().UnixNano(), seq, random[:6])
}
