package widget

import (
	"fmt"
	"sync"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
)

// View is what an instance renders into its container.
type View struct {
	InstanceID string
	SessionID  string
	Mode       DisplayMode
	Position   string
	Width      string
	Height     string
	Theme      string
	Open       bool
}

// Container is a host surface addressable by id.
type Container struct {
	id          string
	autoCreated bool

	mu      sync.Mutex
	view    *View
	visible bool
}

func (c *Container) ID() string { return c.id }

// AutoCreated reports whether the host created the container for an instance.
func (c *Container) AutoCreated() bool { return c.autoCreated }

// Mount renders v, replacing whatever was mounted before.
func (c *Container) Mount(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = &v
	c.visible = v.Open
}

func (c *Container) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = nil
	c.visible = false
}

func (c *Container) SetVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = visible
	if c.view != nil {
		c.view.Open = visible
	}
}

// Mounted returns the current view, if any.
func (c *Container) Mounted() (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return View{}, false
	}
	return *c.view, true
}

func (c *Container) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Host owns the containers instances are mounted into.
type Host interface {
	// Attach returns the container with id, creating it when create is set.
	Attach(id string, create bool) (*Container, error)
	// Remove drops a container from the host.
	Remove(id string)
}

// MemoryHost keeps containers in process memory.
type MemoryHost struct {
	mu         sync.Mutex
	containers map[string]*Container
}

func NewMemoryHost() *MemoryHost {
	return &MemoryHost{containers: make(map[string]*Container)}
}

// Declare registers a container as if the host page had rendered it.
func (h *MemoryHost) Declare(id string) *Container {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.containers[id]; ok {
		return c
	}
	c := &Container{id: id}
	h.containers[id] = c
	return c
}

func (h *MemoryHost) Attach(id string, create bool) (*Container, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.containers[id]; ok {
		return c, nil
	}
	if !create {
		return nil, fmt.Errorf("%w: container %q not found", app_errors.ErrConfiguration, id)
	}
	c := &Container{id: id, autoCreated: true}
	h.containers[id] = c
	return c, nil
}

func (h *MemoryHost) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.containers, id)
}

// Lookup returns a container by id.
func (h *MemoryHost) Lookup(id string) (*Container, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.containers[id]
	return c, ok
}
