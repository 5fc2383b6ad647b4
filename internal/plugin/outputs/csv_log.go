package outputs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sliink/hopmon/internal/model"
	"github.com/sliink/hopmon/internal/plugin"
)

// ErrSessionClosed is returned when appending to a closed log session
var ErrSessionClosed = errors.New("log session closed")

// logFileLayout names one log file per run from its start time
const logFileLayout = "LogFile_2006-01-02_15-04-05.csv"

// EnsureLogDir creates the log directory if it does not exist
func EnsureLogDir(dir string) (created bool, err error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("log path %s is not a directory", dir)
		}
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat log directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create log directory: %w", err)
	}
	return true, nil
}

// LogFileName returns the file name for a session started at start
func LogFileName(start time.Time) string {
	return start.Format(logFileLayout)
}

// LogSession is one append-only data log file. Every append is flushed to
// stable storage before it returns.
type LogSession struct {
	path  string
	file  *os.File
	mutex sync.Mutex
}

// OpenLogSession opens the file at path for appending. The header line is
// written only when the file is new or empty, so reopening a file from an
// earlier run keeps its records.
func OpenLogSession(path string) (*LogSession, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}

	if info.Size() == 0 {
		if _, err := f.WriteString(model.LogHeader + "\n"); err != nil {
			f.Close()
			return nil, fmt.Errorf("write log header: %w", err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, fmt.Errorf("sync log header: %w", err)
		}
	}

	return &LogSession{path: path, file: f}, nil
}

// Path returns the file path of the session
func (s *LogSession) Path() string {
	return s.path
}

// Append writes one record as a delimited line
func (s *LogSession) Append(record model.HopRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.file == nil {
		return ErrSessionClosed
	}

	if _, err := s.file.WriteString(record.String() + "\n"); err != nil {
		return fmt.Errorf("append to %s: %w", s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	return nil
}

// Close releases the file. Closing twice is a no-op.
func (s *LogSession) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// CSVLogOutput persists accepted records to a per-run log file
type CSVLogOutput struct {
	plugin.BasePlugin
	dir     string
	start   time.Time
	session *LogSession
	mutex   sync.Mutex
}

// NewCSVLogOutput creates a new data log output plugin
func NewCSVLogOutput(id string) *CSVLogOutput {
	return &CSVLogOutput{
		BasePlugin: plugin.NewBasePlugin(id, "CSV Log Output", model.OutputPluginType),
		dir:        "LOGS",
	}
}

// Initialize reads the log directory and the session start time
func (c *CSVLogOutput) Initialize() bool {
	c.dir = c.ConfigString("dir", c.dir)
	if start, ok := c.Config["start"].(time.Time); ok {
		c.start = start
	}
	if c.start.IsZero() {
		c.start = time.Now()
	}

	c.SetStatus(model.StatusInitialized)
	return true
}

// Validate checks if the log output is properly configured
func (c *CSVLogOutput) Validate() bool {
	return c.ConfigString("dir", c.dir) != ""
}

// Start opens the session file
func (c *CSVLogOutput) Start() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	path := filepath.Join(c.dir, LogFileName(c.start))
	session, err := OpenLogSession(path)
	if err != nil {
		c.SetStatus(model.StatusError)
		c.Publish(model.EventError, err)
		return false
	}

	c.session = session
	c.SetStatus(model.StatusRunning)
	c.Publish(model.EventInfo, fmt.Sprintf("log file created: %s", path))
	return true
}

// Stop closes the session file
func (c *CSVLogOutput) Stop() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session != nil {
		if err := c.session.Close(); err != nil {
			c.Publish(model.EventError, fmt.Errorf("close log file: %w", err))
		} else {
			c.Publish(model.EventInfo, fmt.Sprintf("log file closed: %s", c.session.Path()))
		}
		c.session = nil
	}

	c.SetStatus(model.StatusStopped)
	return true
}

// Send appends one record to the session file
func (c *CSVLogOutput) Send(record model.HopRecord) error {
	c.mutex.Lock()
	session := c.session
	c.mutex.Unlock()

	if session == nil {
		return ErrSessionClosed
	}
	return session.Append(record)
}

// Path returns the open log file path, or "" when no session is open
func (c *CSVLogOutput) Path() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session == nil {
		return ""
	}
	return c.session.Path()
}
