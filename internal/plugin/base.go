package plugin

import (
	"sync"

	"github.com/sliink/hopmon/internal/model"
)

// BasePlugin provides common functionality for all plugins
type BasePlugin struct {
	id         string
	name       string
	pluginType model.PluginType
	status     model.ComponentStatus
	statusMu   *sync.RWMutex
	Config     map[string]interface{}
	core       model.CoreAPI
}

// NewBasePlugin creates a new base plugin
func NewBasePlugin(id, name string, pluginType model.PluginType) BasePlugin {
	return BasePlugin{
		id:         id,
		name:       name,
		pluginType: pluginType,
		status:     model.StatusUninitialized,
		statusMu:   &sync.RWMutex{},
		Config:     make(map[string]interface{}),
	}
}

// ID returns the plugin's unique identifier
func (p *BasePlugin) ID() string {
	return p.id
}

// Name returns the plugin's human-readable name
func (p *BasePlugin) Name() string {
	return p.name
}

// GetType returns the plugin type
func (p *BasePlugin) GetType() model.PluginType {
	return p.pluginType
}

// GetStatus returns the current plugin status
func (p *BasePlugin) GetStatus() model.ComponentStatus {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}

// SetStatus updates the plugin status
func (p *BasePlugin) SetStatus(status model.ComponentStatus) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status = status
}

// Configure applies configuration to the plugin
func (p *BasePlugin) Configure(config map[string]interface{}) bool {
	if config == nil {
		return false
	}
	p.Config = config
	return true
}

// RegisterWithCore registers the plugin with the core system
func (p *BasePlugin) RegisterWithCore(core model.CoreAPI) bool {
	p.core = core
	return true
}

// Validate checks if the plugin is properly configured
func (p *BasePlugin) Validate() bool {
	// Base implementation assumes valid, derived plugins should override
	return true
}

// Publish sends an event through the core the plugin is registered with
func (p *BasePlugin) Publish(eventType model.EventType, data interface{}) {
	if p.core != nil {
		p.core.PublishEvent(eventType, p.id, data)
	}
}

// ConfigString returns a string setting or the default
func (p *BasePlugin) ConfigString(key, defaultValue string) string {
	if v, ok := p.Config[key].(string); ok && v != "" {
		return v
	}
	return defaultValue
}

// ConfigInt returns an integer setting or the default
func (p *BasePlugin) ConfigInt(key string, defaultValue int) int {
	switch v := p.Config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

// ConfigBool returns a boolean setting or the default
func (p *BasePlugin) ConfigBool(key string, defaultValue bool) bool {
	if v, ok := p.Config[key].(bool); ok {
		return v
	}
	return defaultValue
}
