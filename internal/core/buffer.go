package core

import (
	"sync"
	"time"

	"github.com/sliink/hopmon/internal/model"
)

// BufferManager queues raw lines per input between the reader that frames
// them and the poll that hands them to the ingestor
type BufferManager struct {
	buffers      map[string][]model.Record
	maxQueueSize int
	status       map[string]model.BufferStatus
	mutex        sync.RWMutex
	space        *sync.Cond
	BaseComponent
}

// NewBufferManager creates a new buffer manager
func NewBufferManager(maxQueueSize int) *BufferManager {
	if maxQueueSize <= 0 {
		maxQueueSize = 1000
	}

	b := &BufferManager{
		buffers:       make(map[string][]model.Record),
		maxQueueSize:  maxQueueSize,
		status:        make(map[string]model.BufferStatus),
		BaseComponent: NewBaseComponent("buffer_manager", "Buffer Manager"),
	}
	b.space = sync.NewCond(&b.mutex)
	return b
}

// Initialize prepares the buffer manager for operation
func (b *BufferManager) Initialize() bool {
	b.SetStatus(model.StatusInitialized)
	return true
}

// Start begins buffer manager operation
func (b *BufferManager) Start() bool {
	b.SetStatus(model.StatusRunning)
	return true
}

// Stop halts buffer manager operation. Lines still queued are discarded.
func (b *BufferManager) Stop() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.buffers = make(map[string][]model.Record)
	b.status = make(map[string]model.BufferStatus)

	b.SetStatus(model.StatusStopped)
	b.space.Broadcast()
	return true
}

// Buffer queues one line for an input. It returns false when the queue is
// full or the manager is not running; the line is then counted as dropped.
func (b *BufferManager) Buffer(inputID string, record model.Record) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.GetStatus() != model.StatusRunning {
		return false
	}

	if b.fullLocked(inputID) {
		status := b.status[inputID]
		status.IsFull = true
		status.Dropped++
		b.status[inputID] = status
		return false
	}

	b.appendLocked(inputID, record)
	return true
}

// BufferWait queues one line for an input, waiting while the queue is full
// until Flush makes room. It returns false only when the manager stops.
func (b *BufferManager) BufferWait(inputID string, record model.Record) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for {
		if b.GetStatus() != model.StatusRunning {
			return false
		}
		if !b.fullLocked(inputID) {
			break
		}
		status := b.status[inputID]
		status.IsFull = true
		b.status[inputID] = status
		b.space.Wait()
	}

	b.appendLocked(inputID, record)
	return true
}

func (b *BufferManager) fullLocked(inputID string) bool {
	if _, exists := b.buffers[inputID]; !exists {
		b.buffers[inputID] = make([]model.Record, 0)
		b.status[inputID] = model.BufferStatus{
			BufferID:   inputID,
			LastUpdate: time.Now(),
		}
	}
	return len(b.buffers[inputID]) >= b.maxQueueSize
}

func (b *BufferManager) appendLocked(inputID string, record model.Record) {
	b.buffers[inputID] = append(b.buffers[inputID], record)

	status := b.status[inputID]
	status.LastUpdate = time.Now()
	status.QueueSize = len(b.buffers[inputID])
	status.TotalItems++
	status.IsFull = len(b.buffers[inputID]) >= b.maxQueueSize
	b.status[inputID] = status
}

// Flush removes and returns up to maxRecords queued lines for an input in
// arrival order. maxRecords <= 0 returns everything queued.
func (b *BufferManager) Flush(inputID string, maxRecords int) []model.Record {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.GetStatus() != model.StatusRunning {
		return nil
	}

	queued, exists := b.buffers[inputID]
	if !exists || len(queued) == 0 {
		return nil
	}

	n := len(queued)
	if maxRecords > 0 && maxRecords < n {
		n = maxRecords
	}

	result := make([]model.Record, n)
	copy(result, queued[:n])
	b.buffers[inputID] = queued[n:]

	status := b.status[inputID]
	status.QueueSize = len(b.buffers[inputID])
	status.IsFull = false
	status.LastUpdate = time.Now()
	b.status[inputID] = status

	b.space.Broadcast()
	return result
}

// GetBufferStatus retrieves the status of all buffers
func (b *BufferManager) GetBufferStatus() map[string]model.BufferStatus {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	result := make(map[string]model.BufferStatus, len(b.status))
	for k, v := range b.status {
		result[k] = v
	}

	return result
}
