package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sliink/hopmon/internal/model"
)

// IngestState is the ingestor's position in its per-tick cycle
type IngestState string

const (
	// StateIdle means no line is being handled
	StateIdle IngestState = "IDLE"
	// StateProcessing means a line is between parse and log append
	StateProcessing IngestState = "PROCESSING"
)

// IngestStats are cumulative counters for one session
type IngestStats struct {
	LinesRead       uint64            `json:"lines_read"`
	Accepted        uint64            `json:"accepted"`
	Dropped         uint64            `json:"dropped"`
	DroppedBy       map[string]uint64 `json:"dropped_by"`
	TransportErrors uint64            `json:"transport_errors"`
	LogWrites       uint64            `json:"log_writes"`
	LogFailures     uint64            `json:"log_failures"`
	LogEnabled      bool              `json:"log_enabled"`
	LogDegraded     bool              `json:"log_degraded"`
}

// TickResult summarizes a single ingest tick
type TickResult struct {
	Lines    int
	Accepted int
	Dropped  int
	Err      error
}

// Ingestor pulls lines from the input, parses them, updates the source
// table and appends accepted records to the data log, in that order.
type Ingestor struct {
	core   model.CoreAPI
	input  model.InputPlugin
	parser model.ProcessorPlugin
	table  *SourceTable
	log    model.OutputPlugin
	echoes []model.OutputPlugin
	now    func() time.Time

	mutex          sync.Mutex
	state          IngestState
	stats          IngestStats
	logUnavailable bool
	BaseComponent
}

// NewIngestor creates an ingestor that writes into table. Input and log are
// attached separately because either may be unavailable at startup.
func NewIngestor(core model.CoreAPI, parser model.ProcessorPlugin, table *SourceTable) *Ingestor {
	return &Ingestor{
		core:   core,
		parser: parser,
		table:  table,
		now:    time.Now,
		state:  StateIdle,
		stats: IngestStats{
			DroppedBy: make(map[string]uint64),
		},
		BaseComponent: NewBaseComponent("ingestor", "Ingestor"),
	}
}

// Initialize prepares the ingestor for operation
func (i *Ingestor) Initialize() bool {
	if i.parser == nil || i.table == nil {
		return false
	}
	i.SetStatus(model.StatusInitialized)
	return true
}

// Start begins ingestor operation
func (i *Ingestor) Start() bool {
	i.mutex.Lock()
	degraded := i.input == nil || i.input.GetStatus() == model.StatusError ||
		i.stats.LogDegraded || i.logUnavailable
	i.mutex.Unlock()

	if degraded {
		i.SetStatus(model.StatusDegraded)
	} else {
		i.SetStatus(model.StatusRunning)
	}
	return true
}

// Stop halts ingestor operation
func (i *Ingestor) Stop() bool {
	i.SetStatus(model.StatusStopped)
	return true
}

// AttachInput sets the line source. A nil input disables ingestion.
func (i *Ingestor) AttachInput(input model.InputPlugin) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.input = input
}

// AttachLog sets the data log. A nil log runs the session log-disabled.
func (i *Ingestor) AttachLog(log model.OutputPlugin) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.log = log
	i.stats.LogEnabled = log != nil
	i.stats.LogDegraded = false
}

// MarkLogUnavailable records that a data log was configured but could not
// be opened, so the session runs log-disabled
func (i *Ingestor) MarkLogUnavailable() {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.log = nil
	i.stats.LogEnabled = false
	i.logUnavailable = true
}

// AttachEcho adds an output that receives every accepted record after the
// data log. Echo failures never degrade logging.
func (i *Ingestor) AttachEcho(output model.OutputPlugin) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.echoes = append(i.echoes, output)
}

// SetClock replaces the clock used for records without a receive time
func (i *Ingestor) SetClock(now func() time.Time) {
	i.now = now
}

// State returns the current ingest state
func (i *Ingestor) State() IngestState {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.state
}

// Stats returns a copy of the session counters
func (i *Ingestor) Stats() IngestStats {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	stats := i.stats
	stats.DroppedBy = make(map[string]uint64, len(i.stats.DroppedBy))
	for k, v := range i.stats.DroppedBy {
		stats.DroppedBy[k] = v
	}
	return stats
}

// Tick drains every line currently available from the input and processes
// each one. A transport error ends the drain for this tick; lines already
// returned alongside the error are still processed.
func (i *Ingestor) Tick(ctx context.Context) TickResult {
	i.mutex.Lock()
	input := i.input
	i.mutex.Unlock()

	var result TickResult
	if input == nil {
		return result
	}

	batch, err := input.Collect(ctx)
	if err != nil {
		result.Err = err
		i.mutex.Lock()
		i.stats.TransportErrors++
		i.mutex.Unlock()
		i.publish(model.EventTransportError, input.ID(), err)
	}

	if batch == nil {
		return result
	}

	for _, record := range batch.Records {
		result.Lines++
		if err := i.Process(record); err != nil {
			result.Dropped++
		} else {
			result.Accepted++
		}
	}

	return result
}

// Process runs one raw line through parse, table update and log append.
// A parse failure returns the parse error and leaves the table and the log
// untouched.
func (i *Ingestor) Process(record model.Record) error {
	i.mutex.Lock()
	i.state = StateProcessing
	i.stats.LinesRead++
	i.mutex.Unlock()

	defer func() {
		i.mutex.Lock()
		i.state = StateIdle
		i.mutex.Unlock()
	}()

	i.publish(model.EventLineReceived, record.Source, record.Line)

	hop, err := i.parser.Parse(record.Line)
	if err != nil {
		reason := dropReason(err)
		i.mutex.Lock()
		i.stats.Dropped++
		i.stats.DroppedBy[reason]++
		i.mutex.Unlock()
		i.publish(model.EventLineDropped, record.Source, map[string]interface{}{
			"line":   record.Line,
			"reason": reason,
			"error":  err.Error(),
		})
		return err
	}

	seenAt := record.Timestamp
	if seenAt.IsZero() {
		seenAt = i.now()
	}
	i.table.Update(hop.Source, hop.Retries, seenAt)

	i.mutex.Lock()
	i.stats.Accepted++
	log := i.log
	writeLog := log != nil && !i.stats.LogDegraded
	echoes := i.echoes
	i.mutex.Unlock()

	i.publish(model.EventRecordAccepted, record.Source, hop)

	if writeLog {
		i.appendLog(log, hop)
	}

	for _, echo := range echoes {
		if err := echo.Send(hop); err != nil {
			i.publish(model.EventError, echo.ID(), err)
		}
	}

	return nil
}

// appendLog writes one record to the data log. The first failure switches
// logging off for the rest of the session.
func (i *Ingestor) appendLog(log model.OutputPlugin, hop model.HopRecord) {
	if err := log.Send(hop); err != nil {
		i.mutex.Lock()
		i.stats.LogFailures++
		first := !i.stats.LogDegraded
		i.stats.LogDegraded = true
		i.mutex.Unlock()

		if first {
			i.SetStatus(model.StatusDegraded)
			i.publish(model.EventLogDegraded, log.ID(), err)
		}
		return
	}

	i.mutex.Lock()
	i.stats.LogWrites++
	i.mutex.Unlock()
}

func (i *Ingestor) publish(eventType model.EventType, sourceID string, data interface{}) {
	if i.core != nil {
		i.core.PublishEvent(eventType, sourceID, data)
	}
}

// dropReason extracts the parse failure category from an error
func dropReason(err error) string {
	var reasoned interface{ Reason() string }
	if errors.As(err, &reasoned) {
		return reasoned.Reason()
	}
	return "unknown"
}
