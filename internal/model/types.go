package model

import "time"

// ComponentStatus represents the current status of a component
type ComponentStatus string

const (
	// StatusUninitialized indicates the component has not been initialized
	StatusUninitialized ComponentStatus = "UNINITIALIZED"
	// StatusInitialized indicates the component has been initialized but not started
	StatusInitialized ComponentStatus = "INITIALIZED"
	// StatusRunning indicates the component is currently running
	StatusRunning ComponentStatus = "RUNNING"
	// StatusDegraded indicates the component runs with reduced functionality
	StatusDegraded ComponentStatus = "DEGRADED"
	// StatusStopped indicates the component has been stopped
	StatusStopped ComponentStatus = "STOPPED"
	// StatusError indicates the component is in an error state
	StatusError ComponentStatus = "ERROR"
)

// PluginType represents the type of plugin
type PluginType string

const (
	// InputPluginType represents plugins that produce raw lines from a transport
	InputPluginType PluginType = "INPUT"
	// ProcessorPluginType represents plugins that turn raw lines into hop records
	ProcessorPluginType PluginType = "PROCESSOR"
	// OutputPluginType represents plugins that receive accepted hop records
	OutputPluginType PluginType = "OUTPUT"
)

// EventType represents the type of system event
type EventType string

const (
	// EventComponentStatusChange indicates a component status has changed
	EventComponentStatusChange EventType = "COMPONENT_STATUS_CHANGE"
	// EventConfigChange indicates a configuration has changed
	EventConfigChange EventType = "CONFIG_CHANGE"
	// EventLineReceived indicates a raw line has been read from the transport
	EventLineReceived EventType = "LINE_RECEIVED"
	// EventRecordAccepted indicates a line parsed into a hop record
	EventRecordAccepted EventType = "RECORD_ACCEPTED"
	// EventLineDropped indicates a line was rejected by the parser
	EventLineDropped EventType = "LINE_DROPPED"
	// EventTransportError indicates the transport failed to deliver lines
	EventTransportError EventType = "TRANSPORT_ERROR"
	// EventLogDegraded indicates the data log stopped accepting writes
	EventLogDegraded EventType = "LOG_DEGRADED"
	// EventInfo carries an operator-facing notice
	EventInfo EventType = "INFO"
	// EventError indicates an error has occurred
	EventError EventType = "ERROR"
)

// HealthStatus represents the health status of the system or a component
type HealthStatus struct {
	Status     ComponentStatus         `json:"status"`
	Timestamp  time.Time               `json:"timestamp"`
	Message    string                  `json:"message,omitempty"`
	Details    map[string]any          `json:"details,omitempty"`
	Components map[string]HealthStatus `json:"components,omitempty"`
}

// BufferStatus represents the status of a line buffer
type BufferStatus struct {
	BufferID   string    `json:"buffer_id"`
	QueueSize  int       `json:"queue_size"`
	TotalItems int       `json:"total_items"`
	Dropped    int       `json:"dropped"`
	IsFull     bool      `json:"is_full"`
	LastUpdate time.Time `json:"last_update"`
}
