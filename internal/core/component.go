package core

import (
	"sync"

	"github.com/sliink/hopmon/internal/model"
)

// Component represents a core system component with lifecycle management
type Component interface {
	// Initialize prepares the component for operation
	Initialize() bool

	// Start begins component operation
	Start() bool

	// Stop halts component operation
	Stop() bool

	// GetStatus returns the current component status
	GetStatus() model.ComponentStatus

	// SetStatus updates the component status
	SetStatus(status model.ComponentStatus)

	// Configure applies configuration to the component
	Configure(config map[string]interface{}) bool

	// ID returns the component's unique identifier
	ID() string

	// Name returns the component's human-readable name
	Name() string
}

// componentState is shared by copies of a BaseComponent so the status can
// be read from the API goroutine while the driving loop updates it.
type componentState struct {
	mu     sync.RWMutex
	status model.ComponentStatus
	config map[string]interface{}
}

// BaseComponent provides common functionality for all components
type BaseComponent struct {
	id    string
	name  string
	state *componentState
}

// NewBaseComponent creates a new base component
func NewBaseComponent(id, name string) BaseComponent {
	return BaseComponent{
		id:   id,
		name: name,
		state: &componentState{
			status: model.StatusUninitialized,
			config: make(map[string]interface{}),
		},
	}
}

// ID returns the component's unique identifier
func (c *BaseComponent) ID() string {
	return c.id
}

// Name returns the component's human-readable name
func (c *BaseComponent) Name() string {
	return c.name
}

// GetStatus returns the current component status
func (c *BaseComponent) GetStatus() model.ComponentStatus {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	return c.state.status
}

// SetStatus updates the component status
func (c *BaseComponent) SetStatus(status model.ComponentStatus) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	c.state.status = status
}

// Configure applies configuration to the component
func (c *BaseComponent) Configure(config map[string]interface{}) bool {
	if config == nil {
		return false
	}
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	c.state.config = config
	return true
}

// Config returns the configuration last applied with Configure
func (c *BaseComponent) Config() map[string]interface{} {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	return c.state.config
}
