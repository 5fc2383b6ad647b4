package outputs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sliink/hopmon/internal/model"
	"github.com/sliink/hopmon/internal/plugin"
)

var (
	sourceStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF41"))
	retriesStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB000"))
)

// StdoutOutput echoes every accepted record to the operator
type StdoutOutput struct {
	plugin.BasePlugin
	colorize bool
	format   string
	writer   io.Writer
	mutex    sync.Mutex
}

// NewStdoutOutput creates a new stdout output plugin
func NewStdoutOutput(id string) *StdoutOutput {
	return &StdoutOutput{
		BasePlugin: plugin.NewBasePlugin(id, "Stdout Output", model.OutputPluginType),
		colorize:   false,
		format:     "text",
		writer:     os.Stdout,
	}
}

// SetWriter redirects the echo
func (s *StdoutOutput) SetWriter(w io.Writer) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.writer = w
}

// Initialize prepares the stdout output for operation
func (s *StdoutOutput) Initialize() bool {
	s.colorize = s.ConfigBool("colorize", s.colorize)
	s.format = s.ConfigString("format", s.format)

	s.SetStatus(model.StatusInitialized)
	return true
}

// Start begins stdout output operation
func (s *StdoutOutput) Start() bool {
	s.SetStatus(model.StatusRunning)
	return true
}

// Stop halts stdout output operation
func (s *StdoutOutput) Stop() bool {
	s.SetStatus(model.StatusStopped)
	return true
}

// Validate checks the echo format
func (s *StdoutOutput) Validate() bool {
	format := s.ConfigString("format", s.format)
	return format == "text" || format == "json"
}

// Send echoes one record
func (s *StdoutOutput) Send(record model.HopRecord) error {
	if s.GetStatus() != model.StatusRunning {
		return fmt.Errorf("output %s is not running", s.ID())
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.format == "json" {
		return s.outputJSON(record)
	}
	return s.outputText(record)
}

// outputJSON prints a record as one JSON object per line
func (s *StdoutOutput) outputJSON(record model.HopRecord) error {
	data, err := json.Marshal(record.ToMap())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(s.writer, string(data))
	return err
}

// outputText prints a record as the processed line
func (s *StdoutOutput) outputText(record model.HopRecord) error {
	timestamp := time.Now().Format(time.RFC3339)

	if !s.colorize {
		_, err := fmt.Fprintf(s.writer, "[%s] PROCESSED %s\n", timestamp, record.String())
		return err
	}

	_, err := fmt.Fprintf(s.writer, "[%s] PROCESSED %s -> %s retries=%s  %s\n",
		timestamp,
		sourceStyle.Render(record.Source),
		record.Destination,
		retriesStyle.Render(fmt.Sprint(record.Retries)),
		record.String())
	return err
}
