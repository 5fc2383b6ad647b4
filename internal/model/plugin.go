package model

import "context"

// CoreAPI is an interface for core functions needed by plugins
type CoreAPI interface {
	// PublishEvent publishes an event to the event bus
	PublishEvent(eventType EventType, sourceID string, data interface{})
}

// Plugin is the base interface for all plugins
type Plugin interface {
	// Initialize prepares the plugin for operation
	Initialize() bool

	// Start begins plugin operation
	Start() bool

	// Stop halts plugin operation
	Stop() bool

	// GetStatus returns the current plugin status
	GetStatus() ComponentStatus

	// SetStatus updates the plugin status
	SetStatus(status ComponentStatus)

	// Configure applies configuration to the plugin
	Configure(config map[string]interface{}) bool

	// ID returns the plugin's unique identifier
	ID() string

	// Name returns the plugin's human-readable name
	Name() string

	// GetType returns the plugin type
	GetType() PluginType

	// Validate checks if the plugin is properly configured
	Validate() bool

	// RegisterWithCore registers the plugin with the core system
	RegisterWithCore(core CoreAPI) bool
}

// InputPlugin is a line source backed by a transport
type InputPlugin interface {
	Plugin

	// Collect returns every complete line currently available without
	// blocking longer than the transport's read timeout. A non-nil error
	// means the transport is exhausted for this poll.
	Collect(ctx context.Context) (*LineBatch, error)
}

// ProcessorPlugin turns raw lines into hop records
type ProcessorPlugin interface {
	Plugin

	// Parse validates one raw line
	Parse(line string) (HopRecord, error)
}

// OutputPlugin receives accepted hop records
type OutputPlugin interface {
	Plugin

	// Send delivers one record. It returns once the record is written.
	Send(record HopRecord) error
}

// Presenter renders snapshots of the source table
type Presenter interface {
	Render(snapshot Snapshot) error
}
