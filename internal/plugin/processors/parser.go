package processors

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sliink/hopmon/internal/model"
	"github.com/sliink/hopmon/internal/plugin"
)

// Parse failure categories
var (
	ErrMalformedHeader    = errors.New("malformed header")
	ErrFieldCountMismatch = errors.New("field count mismatch")
	ErrInvalidNumber      = errors.New("invalid number")
)

// payloadFields is the number of tokens after the date and time
const payloadFields = model.FieldCount - 2

var headerPattern = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4});(\d{2}:\d{2}:\d{2});(.+)$`)

// ParseError describes why a line was rejected
type ParseError struct {
	Kind   error
	Line   string
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %q", e.Kind, e.Line)
	}
	return fmt.Sprintf("%v: %s: %q", e.Kind, e.Detail, e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

// Reason returns a stable name for the failure category
func (e *ParseError) Reason() string {
	switch e.Kind {
	case ErrMalformedHeader:
		return "malformed_header"
	case ErrFieldCountMismatch:
		return "field_count_mismatch"
	case ErrInvalidNumber:
		return "invalid_number"
	default:
		return "unknown"
	}
}

// ParseLine validates one raw line and maps its tokens positionally onto a
// HopRecord. It has no side effects.
func ParseLine(raw string) (model.HopRecord, error) {
	line := strings.TrimSpace(raw)

	match := headerPattern.FindStringSubmatch(line)
	if match == nil {
		return model.HopRecord{}, &ParseError{Kind: ErrMalformedHeader, Line: line}
	}

	tokens := strings.Split(match[3], model.Delimiter)
	if len(tokens) != payloadFields {
		return model.HopRecord{}, &ParseError{
			Kind:   ErrFieldCountMismatch,
			Line:   line,
			Detail: fmt.Sprintf("want %d payload fields, got %d", payloadFields, len(tokens)),
		}
	}

	retries, err := parseCount(tokens[6])
	if err != nil {
		return model.HopRecord{}, &ParseError{Kind: ErrInvalidNumber, Line: line, Detail: err.Error()}
	}

	return model.HopRecord{
		Date:        match[1],
		Time:        match[2],
		Source:      tokens[0],
		Destination: tokens[1],
		Sequence:    tokens[2],
		NextHop:     tokens[3],
		QtyHops:     tokens[4],
		Kind:        tokens[5],
		Retries:     retries,
		RetriesText: tokens[6],
	}, nil
}

// parseCount accepts only unsigned decimal digits
func parseCount(token string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, fmt.Errorf("retries is empty")
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("retries %q is not a non-negative integer", token)
		}
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("retries %q out of range", token)
	}
	return n, nil
}

// Parser is the processor plugin wrapping ParseLine
type Parser struct {
	plugin.BasePlugin
}

// NewParser creates a new parser plugin
func NewParser(id string) *Parser {
	return &Parser{
		BasePlugin: plugin.NewBasePlugin(id, "Hop Record Parser", model.ProcessorPluginType),
	}
}

// Initialize prepares the parser for operation
func (p *Parser) Initialize() bool {
	p.SetStatus(model.StatusInitialized)
	return true
}

// Start begins parser operation
func (p *Parser) Start() bool {
	p.SetStatus(model.StatusRunning)
	return true
}

// Stop halts parser operation
func (p *Parser) Stop() bool {
	p.SetStatus(model.StatusStopped)
	return true
}

// Parse validates one raw line
func (p *Parser) Parse(line string) (model.HopRecord, error) {
	return ParseLine(line)
}
