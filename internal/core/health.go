package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/sliink/hopmon/internal/model"
)

// HealthMonitor tracks system and component health
type HealthMonitor struct {
	components map[string]Component
	metrics    map[string]interface{}
	mutex      sync.RWMutex
	BaseComponent
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{
		components:    make(map[string]Component),
		metrics:       make(map[string]interface{}),
		BaseComponent: NewBaseComponent("health_monitor", "Health Monitor"),
	}
}

// Initialize prepares the health monitor for operation
func (h *HealthMonitor) Initialize() bool {
	h.SetStatus(model.StatusInitialized)
	return true
}

// Start begins health monitor operation
func (h *HealthMonitor) Start() bool {
	h.SetStatus(model.StatusRunning)
	return true
}

// Stop halts health monitor operation
func (h *HealthMonitor) Stop() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.metrics = make(map[string]interface{})

	h.SetStatus(model.StatusStopped)
	return true
}

// RegisterComponent adds a component to be monitored
func (h *HealthMonitor) RegisterComponent(component Component) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.components[component.ID()] = component
}

// AddMetric adds a metric value with optional metadata
func (h *HealthMonitor) AddMetric(name string, value interface{}, metadata map[string]interface{}) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	entry := make(map[string]interface{}, len(metadata)+2)
	for k, v := range metadata {
		entry[k] = v
	}
	entry["value"] = value
	entry["timestamp"] = time.Now()

	h.metrics[name] = entry
}

// GetMetric retrieves a metric entry
func (h *HealthMonitor) GetMetric(name string) (interface{}, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	metric, exists := h.metrics[name]
	return metric, exists
}

// GetMetricValue retrieves only the value of a metric
func (h *HealthMonitor) GetMetricValue(name string) (interface{}, bool) {
	metric, exists := h.GetMetric(name)
	if !exists {
		return nil, false
	}
	entry, ok := metric.(map[string]interface{})
	if !ok {
		return nil, false
	}
	value, ok := entry["value"]
	return value, ok
}

// GetAllMetrics retrieves all metrics
func (h *HealthMonitor) GetAllMetrics() map[string]interface{} {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return h.copyMetrics()
}

func (h *HealthMonitor) copyMetrics() map[string]interface{} {
	metrics := make(map[string]interface{}, len(h.metrics))
	for k, v := range h.metrics {
		metrics[k] = v
	}
	return metrics
}

// GetHealthStatus retrieves the health status of the system
func (h *HealthMonitor) GetHealthStatus() model.HealthStatus {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	now := time.Now()
	components := make(map[string]model.HealthStatus, len(h.components))
	for id, component := range h.components {
		components[id] = model.HealthStatus{
			Status:    component.GetStatus(),
			Timestamp: now,
			Message:   component.Name() + " status: " + string(component.GetStatus()),
		}
	}

	statusCounts := make(map[model.ComponentStatus]int)
	for _, health := range components {
		statusCounts[health.Status]++
	}

	systemStatus := model.StatusRunning
	var statusMessage string

	switch {
	case statusCounts[model.StatusError] > 0:
		systemStatus = model.StatusError
		statusMessage = fmt.Sprintf("System has errors: %d components in ERROR state", statusCounts[model.StatusError])
	case statusCounts[model.StatusStopped] > 0 && statusCounts[model.StatusStopped] == len(components):
		systemStatus = model.StatusStopped
		statusMessage = "System is stopped"
	case statusCounts[model.StatusDegraded] > 0:
		systemStatus = model.StatusDegraded
		statusMessage = fmt.Sprintf("System is degraded: %d components in DEGRADED state", statusCounts[model.StatusDegraded])
	case statusCounts[model.StatusRunning] == 0:
		systemStatus = model.StatusInitialized
		statusMessage = "System is initializing"
	case statusCounts[model.StatusRunning] < len(components):
		statusMessage = fmt.Sprintf("System is partially running: %d of %d components running", statusCounts[model.StatusRunning], len(components))
	default:
		statusMessage = "System is healthy: all components running"
	}

	return model.HealthStatus{
		Status:     systemStatus,
		Timestamp:  now,
		Message:    statusMessage,
		Components: components,
		Details:    h.copyMetrics(),
	}
}
