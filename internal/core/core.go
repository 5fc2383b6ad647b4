package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sliink/hopmon/internal/model"
)

// reconnectReporter is implemented by inputs that reopen their transport
type reconnectReporter interface {
	Reconnects() int
}

// discardReporter is implemented by inputs that drop oversized lines
type discardReporter interface {
	Discarded() int
}

// ErrNoParser is reported when no processor plugin is registered
var ErrNoParser = errors.New("no record parser registered")

// Core is the central coordinator of the system
type Core struct {
	eventBus      *EventBus
	registry      *PluginRegistry
	configManager *ConfigManager
	healthMonitor *HealthMonitor
	table         *SourceTable
	ingestor      *Ingestor
	presenters    []model.Presenter
	dataLogID     string
	activeInput   model.InputPlugin
	interval      time.Duration
	now           func() time.Time
	mutex         sync.RWMutex
	BaseComponent
}

// NewCore creates a new core system
func NewCore() *Core {
	return &Core{
		interval:      DefaultSettings().TickInterval,
		now:           time.Now,
		BaseComponent: NewBaseComponent("core", "Core System"),
	}
}

// GetComponent returns a component by ID
func (c *Core) GetComponent(id string) (Component, bool) {
	switch id {
	case "event_bus":
		return c.eventBus, c.eventBus != nil
	case "plugin_registry":
		return c.registry, c.registry != nil
	case "config_manager":
		return c.configManager, c.configManager != nil
	case "health_monitor":
		return c.healthMonitor, c.healthMonitor != nil
	case "source_table":
		return c.table, c.table != nil
	case "ingestor":
		return c.ingestor, c.ingestor != nil
	case "core":
		return c, true
	}

	if c.registry != nil {
		if plugin, exists := c.registry.GetPlugin(id); exists {
			return plugin, true
		}
	}

	return nil, false
}

// GetConfigManager returns the configuration manager component
func (c *Core) GetConfigManager() *ConfigManager {
	return c.configManager
}

// GetEventBus returns the event bus component
func (c *Core) GetEventBus() *EventBus {
	return c.eventBus
}

// GetHealthMonitor returns the health monitor component
func (c *Core) GetHealthMonitor() *HealthMonitor {
	return c.healthMonitor
}

// GetRegistry returns the plugin registry component
func (c *Core) GetRegistry() *PluginRegistry {
	return c.registry
}

// GetSourceTable returns the live source table
func (c *Core) GetSourceTable() *SourceTable {
	return c.table
}

// GetIngestor returns the ingestor component
func (c *Core) GetIngestor() *Ingestor {
	return c.ingestor
}

// SetClock replaces the clock used for snapshots and record timestamps
func (c *Core) SetClock(now func() time.Time) {
	c.now = now
	if c.ingestor != nil {
		c.ingestor.SetClock(now)
	}
}

// Interval returns the tick interval
func (c *Core) Interval() time.Duration {
	return c.interval
}

// Initialize prepares the core system for operation
func (c *Core) Initialize() bool {
	c.eventBus = NewEventBus()
	c.registry = NewPluginRegistry()
	c.configManager = NewConfigManager()
	c.healthMonitor = NewHealthMonitor()
	c.table = NewSourceTable(DefaultStaleThreshold)

	components := []Component{c.eventBus, c.registry, c.configManager, c.healthMonitor, c.table}
	for _, component := range components {
		if !component.Initialize() {
			return false
		}
	}

	c.healthMonitor.RegisterComponent(c)
	for _, component := range components {
		c.healthMonitor.RegisterComponent(component)
	}

	c.SetStatus(model.StatusInitialized)
	return true
}

// Start begins core system operation. It wires the registered parser,
// outputs and input into the ingestor. A missing parser is fatal; an input
// or data log that fails to start only degrades the run.
func (c *Core) Start() bool {
	for _, component := range []Component{c.eventBus, c.registry, c.configManager, c.healthMonitor, c.table} {
		if !component.Start() {
			return false
		}
	}

	settings := c.configManager.Settings()
	c.interval = settings.TickInterval
	c.configManager.WatchConfig(KeyIngestStaleThreshold, func(interface{}) {
		threshold := c.configManager.Settings().StaleThreshold
		if threshold <= 0 {
			return
		}
		c.table.SetThreshold(threshold)
		c.PublishEvent(model.EventConfigChange, c.ID(), map[string]interface{}{
			KeyIngestStaleThreshold: threshold.String(),
		})
	})

	parsers := c.registry.GetProcessorPlugins()
	if len(parsers) == 0 {
		c.PublishEvent(model.EventError, c.ID(), ErrNoParser)
		return false
	}
	parser := parsers[0]
	if !parser.Initialize() || !parser.Start() {
		c.PublishEvent(model.EventError, parser.ID(), fmt.Errorf("failed to start parser: %s", parser.ID()))
		return false
	}

	c.ingestor = NewIngestor(c, parser, c.table)
	c.ingestor.SetClock(c.now)
	if !c.ingestor.Initialize() {
		return false
	}
	c.healthMonitor.RegisterComponent(c.ingestor)

	c.startOutputs()
	c.startInput()

	c.ingestor.Start()

	c.SetStatus(model.StatusRunning)
	c.PublishEvent(model.EventComponentStatusChange, c.ID(), c.GetStatus())

	return true
}

// startOutputs starts the data log and the echo outputs
func (c *Core) startOutputs() {
	logAttached := false
	logFailed := false

	for _, output := range c.registry.GetOutputPlugins() {
		started := output.Initialize() && output.Start()
		isLog := output.ID() == c.dataLogID

		if !started {
			if isLog {
				c.ingestor.MarkLogUnavailable()
				logFailed = true
				c.PublishEvent(model.EventLogDegraded, output.ID(), fmt.Errorf("data log unavailable, running without a log"))
			} else {
				c.PublishEvent(model.EventError, output.ID(), fmt.Errorf("failed to start output plugin: %s", output.ID()))
			}
			continue
		}

		if isLog {
			c.ingestor.AttachLog(output)
			logAttached = true
		} else {
			c.ingestor.AttachEcho(output)
		}
	}

	if !logAttached && !logFailed {
		c.ingestor.AttachLog(nil)
	}
}

// startInput starts the first registered input. Only one transport is read
// per run; additional inputs are left stopped. An input that fails to start
// stays attached so its Collect can retry the open on later ticks.
func (c *Core) startInput() {
	inputs := c.registry.GetInputPlugins()
	if len(inputs) == 0 {
		c.PublishEvent(model.EventTransportError, c.ID(), fmt.Errorf("no transport configured, ingestion disabled"))
		return
	}

	for _, extra := range inputs[1:] {
		c.PublishEvent(model.EventInfo, extra.ID(), "additional transport ignored, only one is read per run")
	}

	input := inputs[0]
	if !input.Initialize() {
		c.PublishEvent(model.EventTransportError, input.ID(), fmt.Errorf("transport %s misconfigured, ingestion disabled", input.ID()))
		return
	}
	if !input.Start() {
		c.PublishEvent(model.EventTransportError, input.ID(), fmt.Errorf("transport %s unavailable, retrying every tick", input.ID()))
	}

	c.mutex.Lock()
	c.activeInput = input
	c.mutex.Unlock()
	c.ingestor.AttachInput(input)
}

// Stop halts core system operation. The data log is closed before the
// transport so no accepted record is abandoned mid-write.
func (c *Core) Stop() bool {
	if c.registry == nil {
		c.SetStatus(model.StatusStopped)
		return true
	}

	if c.ingestor != nil {
		c.ingestor.Stop()
	}

	outputs := c.registry.GetOutputPlugins()
	for _, output := range outputs {
		if output.ID() == c.dataLogID {
			output.Stop()
		}
	}
	for _, output := range outputs {
		if output.ID() != c.dataLogID {
			output.Stop()
		}
	}

	c.mutex.RLock()
	input := c.activeInput
	c.mutex.RUnlock()
	if input != nil {
		input.Stop()
	}

	for _, processor := range c.registry.GetProcessorPlugins() {
		processor.Stop()
	}

	for _, component := range []Component{c.table, c.healthMonitor, c.configManager, c.registry, c.eventBus} {
		component.Stop()
	}

	c.SetStatus(model.StatusStopped)
	return true
}

// RegisterPlugin registers a plugin with the core system
func (c *Core) RegisterPlugin(p model.Plugin) error {
	if p == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	if !p.Validate() {
		return fmt.Errorf("plugin validation failed: %s", p.ID())
	}

	if !p.RegisterWithCore(c) {
		return fmt.Errorf("plugin failed to register with core: %s", p.ID())
	}

	if !c.registry.RegisterPlugin(p) {
		return fmt.Errorf("plugin registration failed: %s", p.ID())
	}

	c.healthMonitor.RegisterComponent(p)

	return nil
}

// RegisterDataLog registers the output that persists accepted records.
// Its failures degrade logging instead of being treated as echo errors.
func (c *Core) RegisterDataLog(p model.OutputPlugin) error {
	if err := c.RegisterPlugin(p); err != nil {
		return err
	}
	c.dataLogID = p.ID()
	return nil
}

// AddPresenter registers a consumer that renders a snapshot every tick
func (c *Core) AddPresenter(p model.Presenter) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.presenters = append(c.presenters, p)
}

// Snapshot returns the source table as of now
func (c *Core) Snapshot() model.Snapshot {
	return c.table.Snapshot(c.now())
}

// Run drives the system at the configured interval until ctx is cancelled.
// Each tick ingests every available line and then renders.
func (c *Core) Run(ctx context.Context) error {
	if c.GetStatus() != model.StatusRunning {
		return fmt.Errorf("core is not running")
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick performs one ingest pass followed by one render pass
func (c *Core) Tick(ctx context.Context) TickResult {
	result := c.ingestor.Tick(ctx)
	c.publishMetrics()

	snapshot := c.table.Snapshot(c.now())

	c.mutex.RLock()
	presenters := c.presenters
	c.mutex.RUnlock()

	for _, presenter := range presenters {
		if err := presenter.Render(snapshot); err != nil {
			c.PublishEvent(model.EventError, c.ID(), fmt.Errorf("render failed: %w", err))
		}
	}

	return result
}

// publishMetrics copies the ingest counters into the health monitor
func (c *Core) publishMetrics() {
	stats := c.ingestor.Stats()

	c.healthMonitor.AddMetric("lines_read", stats.LinesRead, nil)
	c.healthMonitor.AddMetric("records_accepted", stats.Accepted, nil)
	c.healthMonitor.AddMetric("lines_dropped", stats.Dropped, map[string]interface{}{
		"by_reason": stats.DroppedBy,
	})
	c.healthMonitor.AddMetric("transport_errors", stats.TransportErrors, nil)
	c.healthMonitor.AddMetric("log_writes", stats.LogWrites, nil)
	c.healthMonitor.AddMetric("log_failures", stats.LogFailures, map[string]interface{}{
		"enabled":  stats.LogEnabled,
		"degraded": stats.LogDegraded,
	})
	c.healthMonitor.AddMetric("sources", c.table.Len(), nil)

	c.mutex.RLock()
	input := c.activeInput
	c.mutex.RUnlock()

	if r, ok := input.(reconnectReporter); ok {
		c.healthMonitor.AddMetric("transport_reconnects", r.Reconnects(), nil)
	}
	if d, ok := input.(discardReporter); ok {
		c.healthMonitor.AddMetric("lines_discarded", d.Discarded(), nil)
	}
}

// PublishEvent publishes an event to the event bus
func (c *Core) PublishEvent(eventType model.EventType, sourceID string, data interface{}) {
	if c.eventBus == nil {
		return
	}

	c.eventBus.Publish(NewEvent(eventType, sourceID, data))
}
