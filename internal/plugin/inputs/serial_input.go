package inputs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sliink/hopmon/internal/model"
	"github.com/sliink/hopmon/internal/plugin"
	"go.bug.st/serial"
)

// ErrTransportUnavailable is returned when the transport cannot be opened
var ErrTransportUnavailable = errors.New("transport unavailable")

// PortOpener opens a serial endpoint with a bounded read timeout
type PortOpener func(endpoint string, baudRate int, readTimeout time.Duration) (io.ReadCloser, error)

// OpenSerialPort opens a real serial device. Reads return (0, nil) once the
// timeout elapses with no data.
func OpenSerialPort(endpoint string, baudRate int, readTimeout time.Duration) (io.ReadCloser, error) {
	port, err := serial.Open(endpoint, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// SerialInput reads hop lines from a serial port. After a read error, or a
// failed Start, the port is reopened on every poll until it comes back. A
// run of failed opens is reported once.
type SerialInput struct {
	plugin.BasePlugin
	endpoint    string
	baudRate    int
	readTimeout time.Duration
	open        PortOpener
	port        io.ReadCloser
	framer      *LineFramer
	reconnects  int
	openFailing bool
	mutex       sync.Mutex
}

// NewSerialInput creates a new serial input plugin
func NewSerialInput(id string) *SerialInput {
	return &SerialInput{
		BasePlugin:  plugin.NewBasePlugin(id, "Serial Input", model.InputPluginType),
		baudRate:    115200,
		readTimeout: 100 * time.Millisecond,
		open:        OpenSerialPort,
		framer:      NewLineFramer(0),
	}
}

// SetOpener replaces the function used to open the port
func (s *SerialInput) SetOpener(open PortOpener) {
	s.open = open
}

// Initialize reads the endpoint, baud rate and read timeout
func (s *SerialInput) Initialize() bool {
	s.endpoint = s.ConfigString("endpoint", s.endpoint)
	s.baudRate = s.ConfigInt("baud_rate", s.baudRate)
	s.readTimeout = configDuration(s.Config["read_timeout"], s.readTimeout)

	s.SetStatus(model.StatusInitialized)
	return s.endpoint != "" && s.baudRate > 0 && s.readTimeout > 0
}

// Validate checks if the serial input is properly configured
func (s *SerialInput) Validate() bool {
	endpoint, ok := s.Config["endpoint"].(string)
	return ok && endpoint != ""
}

// Start opens the port
func (s *SerialInput) Start() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	port, err := s.open(s.endpoint, s.baudRate, s.readTimeout)
	if err != nil {
		s.openFailing = true
		s.SetStatus(model.StatusError)
		s.Publish(model.EventTransportError, fmt.Errorf("%w: %s: %v", ErrTransportUnavailable, s.endpoint, err))
		return false
	}

	s.port = port
	s.framer.Reset()
	s.SetStatus(model.StatusRunning)
	s.Publish(model.EventInfo, fmt.Sprintf("connected to %s at %d bps", s.endpoint, s.baudRate))
	return true
}

// Stop closes the port
func (s *SerialInput) Stop() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.port != nil {
		s.port.Close()
		s.port = nil
		s.Publish(model.EventInfo, fmt.Sprintf("serial connection %s closed", s.endpoint))
	}

	s.SetStatus(model.StatusStopped)
	return true
}

// Collect reads until the port goes quiet or the read timeout budget is
// spent, and returns every complete line seen
func (s *SerialInput) Collect(ctx context.Context) (*model.LineBatch, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	batch := model.NewLineBatch(s.ID())

	if s.GetStatus() == model.StatusStopped || s.GetStatus() == model.StatusUninitialized {
		return batch, nil
	}

	if s.port == nil {
		port, err := s.open(s.endpoint, s.baudRate, s.readTimeout)
		if err != nil {
			if s.openFailing {
				return batch, nil
			}
			s.openFailing = true
			return batch, fmt.Errorf("%w: reopen %s: %v", ErrTransportUnavailable, s.endpoint, err)
		}
		s.openFailing = false
		s.port = port
		s.framer.Reset()
		s.reconnects++
		s.SetStatus(model.StatusRunning)
		s.Publish(model.EventInfo, fmt.Sprintf("reconnected to %s", s.endpoint))
	}

	deadline := time.Now().Add(s.readTimeout)
	buf := make([]byte, 4096)

	for ctx.Err() == nil {
		n, err := s.port.Read(buf)
		now := time.Now()
		for _, line := range s.framer.Feed(buf[:n]) {
			batch.AddLine(line, now)
		}

		if err != nil {
			s.port.Close()
			s.port = nil
			s.SetStatus(model.StatusDegraded)
			return batch, fmt.Errorf("serial read %s: %w", s.endpoint, err)
		}

		if n == 0 || now.After(deadline) {
			break
		}
	}

	return batch, nil
}

// Reconnects returns how many times the port was reopened after a failure
func (s *SerialInput) Reconnects() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.reconnects
}

// Discarded returns how many oversized lines were thrown away
func (s *SerialInput) Discarded() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.framer.Discarded()
}

// configDuration reads a duration from a config value. Strings use Go
// duration syntax, numbers are seconds.
func configDuration(v interface{}, defaultValue time.Duration) time.Duration {
	switch d := v.(type) {
	case time.Duration:
		return d
	case int:
		return time.Duration(d) * time.Second
	case int64:
		return time.Duration(d) * time.Second
	case float64:
		return time.Duration(d * float64(time.Second))
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
	}
	return defaultValue
}
