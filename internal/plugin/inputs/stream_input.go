package inputs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sliink/hopmon/internal/core"
	"github.com/sliink/hopmon/internal/model"
	"github.com/sliink/hopmon/internal/plugin"
)

// StdinEndpoint selects standard input as the stream
const StdinEndpoint = "-"

// StreamInput reads hop lines from standard input, a file or a named pipe.
// A reader goroutine frames lines into a bounded queue and waits while the
// queue is full; Collect drains it without blocking. A named pipe is held
// open for reading and writing so writers can come and go.
type StreamInput struct {
	plugin.BasePlugin
	endpoint  string
	reader    io.Reader
	file      *os.File
	buffer    *core.BufferManager
	readErr   error
	reported  bool
	discarded atomic.Int64
	mutex     sync.Mutex
}

// NewStreamInput creates a new stream input plugin
func NewStreamInput(id string) *StreamInput {
	return &StreamInput{
		BasePlugin: plugin.NewBasePlugin(id, "Stream Input", model.InputPluginType),
		endpoint:   StdinEndpoint,
	}
}

// SetReader makes the input read from r instead of opening its endpoint
func (s *StreamInput) SetReader(r io.Reader) {
	s.reader = r
}

// Initialize reads the endpoint and queue size
func (s *StreamInput) Initialize() bool {
	s.endpoint = s.ConfigString("endpoint", s.endpoint)
	s.buffer = core.NewBufferManager(s.ConfigInt("buffer_size", 1000))
	if !s.buffer.Initialize() {
		return false
	}

	s.SetStatus(model.StatusInitialized)
	return true
}

// Start opens the endpoint and begins reading
func (s *StreamInput) Start() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.buffer.Start() {
		return false
	}

	r, err := s.openLocked()
	if err != nil {
		s.SetStatus(model.StatusError)
		s.Publish(model.EventTransportError, err)
		return false
	}

	s.readErr = nil
	s.reported = false
	go s.readLoop(r)

	s.SetStatus(model.StatusRunning)
	s.Publish(model.EventInfo, fmt.Sprintf("reading hop lines from %s", s.describe()))
	return true
}

// Stop closes the endpoint and releases the reader. A reader blocked on
// standard input is left to exit with the process.
func (s *StreamInput) Stop() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.buffer != nil {
		s.buffer.Stop()
	}
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}

	s.SetStatus(model.StatusStopped)
	return true
}

// Collect returns every line queued since the last call. The end of the
// stream is reported once.
func (s *StreamInput) Collect(ctx context.Context) (*model.LineBatch, error) {
	batch := model.NewLineBatch(s.ID())

	if s.GetStatus() != model.StatusRunning && s.GetStatus() != model.StatusDegraded {
		return batch, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	// readErr is only set after the last line is queued
	ended := s.readErr
	batch.Records = append(batch.Records, s.buffer.Flush(s.ID(), 0)...)

	if ended == nil || s.reported {
		return batch, nil
	}

	s.reported = true
	s.SetStatus(model.StatusDegraded)
	return batch, fmt.Errorf("stream %s: %w", s.describe(), ended)
}

// BufferStatus reports the state of the line queue
func (s *StreamInput) BufferStatus() map[string]model.BufferStatus {
	if s.buffer == nil {
		return nil
	}
	return s.buffer.GetBufferStatus()
}

// Discarded returns how many oversized lines were thrown away
func (s *StreamInput) Discarded() int {
	return int(s.discarded.Load())
}

// openLocked resolves the configured source. Opening a named pipe read-write
// never waits for a writer and never sees end of stream.
func (s *StreamInput) openLocked() (io.Reader, error) {
	if s.reader != nil {
		return s.reader, nil
	}
	if s.endpoint == StdinEndpoint {
		return os.Stdin, nil
	}

	flag := os.O_RDONLY
	if info, err := os.Stat(s.endpoint); err == nil && info.Mode()&os.ModeNamedPipe != 0 {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(s.endpoint, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransportUnavailable, s.endpoint, err)
	}
	s.file = f
	return f, nil
}

func (s *StreamInput) readLoop(r io.Reader) {
	framer := NewLineFramer(0)
	buf := make([]byte, 4096)

	for {
		n, err := r.Read(buf)
		now := time.Now()
		for _, line := range framer.Feed(buf[:n]) {
			if !s.enqueue(line, now) {
				return
			}
		}
		s.discarded.Store(int64(framer.Discarded()))

		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrClosed) {
			return
		}
		if line, ok := framer.Remainder(); ok {
			if !s.enqueue(line, now) {
				return
			}
		}

		s.mutex.Lock()
		s.readErr = err
		s.mutex.Unlock()
		return
	}
}

// enqueue waits for room in the queue; it fails once the input stops
func (s *StreamInput) enqueue(line string, receivedAt time.Time) bool {
	return s.buffer.BufferWait(s.ID(), model.Record{
		Source:    s.ID(),
		Timestamp: receivedAt,
		Line:      line,
	})
}

func (s *StreamInput) describe() string {
	if s.reader != nil || s.endpoint == StdinEndpoint {
		return "standard input"
	}
	return s.endpoint
}
