package widget

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
)

// DisplayMode selects how an instance is presented on the host.
type DisplayMode string

const (
	// ModeEmbedded renders inline in a host container and is always visible.
	ModeEmbedded DisplayMode = "embedded"
	// ModeFloating renders behind a launcher button.
	ModeFloating DisplayMode = "floating"
	// ModeWidget is a floating launcher whose session survives restarts.
	ModeWidget DisplayMode = "widget"
)

// Config is the per-instance configuration supplied to Manager.Init.
type Config struct {
	AgentID          string      `json:"agent_id" validate:"required"`
	DisplayMode      DisplayMode `json:"display_mode,omitempty" validate:"omitempty,oneof=embedded floating widget"`
	ContainerID      string      `json:"container_id,omitempty" validate:"omitempty,max=128"`
	Position         string      `json:"position,omitempty" validate:"omitempty,oneof=bottom-right bottom-left top-right top-left"`
	Width            string      `json:"width,omitempty"`
	Height           string      `json:"height,omitempty"`
	Theme            string      `json:"theme,omitempty" validate:"omitempty,oneof=light dark"`
	DisableIsolation bool        `json:"disable_isolation,omitempty"`
	SessionID        string      `json:"session_id,omitempty" validate:"omitempty,max=256"`
	MaxConversations int         `json:"max_conversations,omitempty" validate:"gte=0"`
	EnableCitations  bool        `json:"enable_citations"`
	EnableFeedback   bool        `json:"enable_feedback"`

	OnOpen               func()                   `json:"-"`
	OnClose              func()                   `json:"-"`
	OnMessage            func(model.ChatMessage)  `json:"-"`
	OnConversationChange func(model.Conversation) `json:"-"`
}

// ConfigPatch carries the fields UpdateConfig may change. Nil fields are left alone.
type ConfigPatch struct {
	Position         *string `json:"position,omitempty"`
	Width            *string `json:"width,omitempty"`
	Height           *string `json:"height,omitempty"`
	Theme            *string `json:"theme,omitempty"`
	MaxConversations *int    `json:"max_conversations,omitempty"`
	EnableCitations  *bool   `json:"enable_citations,omitempty"`
	EnableFeedback   *bool   `json:"enable_feedback,omitempty"`
}

func (p ConfigPatch) apply(c Config) Config {
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.Width != nil {
		c.Width = *p.Width
	}
	if p.Height != nil {
		c.Height = *p.Height
	}
	if p.Theme != nil {
		c.Theme = *p.Theme
	}
	if p.MaxConversations != nil {
		c.MaxConversations = *p.MaxConversations
	}
	if p.EnableCitations != nil {
		c.EnableCitations = *p.EnableCitations
	}
	if p.EnableFeedback != nil {
		c.EnableFeedback = *p.EnableFeedback
	}
	return c
}

func (c Config) withDefaults() Config {
	if c.DisplayMode == "" {
		c.DisplayMode = ModeEmbedded
	}
	if c.Position == "" {
		c.Position = "bottom-right"
	}
	if c.Width == "" {
		c.Width = "400px"
	}
	if c.Height == "" {
		c.Height = "600px"
	}
	if c.Theme == "" {
		c.Theme = "light"
	}
	return c
}

// floating reports whether the instance sits behind a launcher.
func (c Config) floating() bool {
	return c.DisplayMode == ModeFloating || c.DisplayMode == ModeWidget
}

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks the configuration, reporting a missing agent id as a
// configuration error and everything else as a validation error.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AgentID) == "" {
		return fmt.Errorf("%w: agent id is required", app_errors.ErrConfiguration)
	}
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %s", app_errors.ErrValidation, err.Error())
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("Field '%s' failed on the '%s' tag", fieldErr.Field(), fieldErr.Tag()))
	}
	return fmt.Errorf("%w: %s", app_errors.ErrValidation, strings.Join(msgs, "; "))
}
