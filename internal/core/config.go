package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sliink/hopmon/internal/model"
	"gopkg.in/yaml.v3"
)

// Configuration keys
const (
	KeyTransportKind        = "transport.kind"
	KeyTransportEndpoint    = "transport.endpoint"
	KeyTransportBaudRate    = "transport.baud_rate"
	KeyTransportReadTimeout = "transport.read_timeout"
	KeyTransportBufferSize  = "transport.buffer_size"
	KeyIngestInterval       = "ingest.interval"
	KeyIngestStaleThreshold = "ingest.stale_threshold"
	KeyLogDir               = "log.dir"
	KeyLogEnabled           = "log.enabled"
	KeyEchoEnabled          = "echo.enabled"
	KeyEchoFormat           = "echo.format"
	KeyEchoColorize         = "echo.colorize"
	KeyRenderEnabled        = "render.enabled"
	KeyAPIEnabled           = "api.enabled"
	KeyAPIHost              = "api.host"
	KeyAPIPort              = "api.port"
)

// Settings is the typed view of the configuration used to wire a run
type Settings struct {
	TransportKind     string
	TransportEndpoint string
	BaudRate          int
	ReadTimeout       time.Duration
	BufferSize        int
	TickInterval      time.Duration
	StaleThreshold    time.Duration
	LogDir            string
	LogEnabled        bool
	EchoEnabled       bool
	EchoFormat        string
	EchoColorize      bool
	RenderEnabled     bool
	APIEnabled        bool
	APIHost           string
	APIPort           int
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		TransportKind:     "serial",
		TransportEndpoint: "/dev/ttyUSB0",
		BaudRate:          115200,
		ReadTimeout:       100 * time.Millisecond,
		BufferSize:        1000,
		TickInterval:      time.Second,
		StaleThreshold:    DefaultStaleThreshold,
		LogDir:            "LOGS",
		LogEnabled:        true,
		EchoFormat:        "text",
		RenderEnabled:     true,
		APIHost:           "localhost",
		APIPort:           8080,
	}
}

// Validate rejects settings the core cannot run with
func (s Settings) Validate() error {
	switch s.TransportKind {
	case "serial", "stdin":
	default:
		return fmt.Errorf("unknown transport kind %q", s.TransportKind)
	}
	if s.TransportKind == "serial" && s.TransportEndpoint == "" {
		return fmt.Errorf("serial transport needs an endpoint")
	}
	if s.BaudRate <= 0 {
		return fmt.Errorf("baud rate must be positive, got %d", s.BaudRate)
	}
	if s.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %s", s.ReadTimeout)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", s.TickInterval)
	}
	if s.StaleThreshold <= 0 {
		return fmt.Errorf("stale threshold must be positive, got %s", s.StaleThreshold)
	}
	if s.LogEnabled && s.LogDir == "" {
		return fmt.Errorf("log directory must not be empty")
	}
	if s.EchoFormat != "text" && s.EchoFormat != "json" {
		return fmt.Errorf("unknown echo format %q", s.EchoFormat)
	}
	if s.APIEnabled && (s.APIPort <= 0 || s.APIPort > 65535) {
		return fmt.Errorf("api port out of range: %d", s.APIPort)
	}
	return nil
}

// ConfigManager handles loading, storing, and accessing configuration
type ConfigManager struct {
	config     map[string]interface{}
	watchers   map[string][]func(interface{})
	mutex      sync.RWMutex
	configFile string
	BaseComponent
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config:        make(map[string]interface{}),
		watchers:      make(map[string][]func(interface{})),
		BaseComponent: NewBaseComponent("config_manager", "Configuration Manager"),
	}
}

// Initialize prepares the configuration manager for operation
func (m *ConfigManager) Initialize() bool {
	m.SetStatus(model.StatusInitialized)
	return true
}

// Start begins configuration manager operation
func (m *ConfigManager) Start() bool {
	m.SetStatus(model.StatusRunning)
	return true
}

// Stop halts configuration manager operation
func (m *ConfigManager) Stop() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.watchers = make(map[string][]func(interface{}))

	m.SetStatus(model.StatusStopped)
	return true
}

// LoadConfig loads configuration from a YAML or JSON file
func (m *ConfigManager) LoadConfig(configFile string) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if config == nil {
		config = make(map[string]interface{})
	}

	m.mutex.Lock()
	m.config = config
	m.configFile = configFile
	callbacks := m.watchers[""]
	m.mutex.Unlock()

	for _, callback := range callbacks {
		callback(config)
	}

	return nil
}

// SaveConfig saves the current configuration to a file. Files ending in
// .json are written as JSON, anything else as YAML.
func (m *ConfigManager) SaveConfig(configFile string) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if configFile == "" {
		configFile = m.configFile
	}
	if configFile == "" {
		return fmt.Errorf("no config file specified")
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(configFile), ".json") {
		data, err = json.MarshalIndent(m.config, "", "  ")
	} else {
		data, err = yaml.Marshal(m.config)
	}
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// GetConfig retrieves a configuration value by dotted path
func (m *ConfigManager) GetConfig(path string, defaultValue interface{}) interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.lookup(path, defaultValue)
}

// AllConfig returns a deep copy of the whole configuration tree
func (m *ConfigManager) AllConfig() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return copyTree(m.config)
}

func copyTree(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		if child, ok := v.(map[string]interface{}); ok {
			dst[k] = copyTree(child)
			continue
		}
		dst[k] = v
	}
	return dst
}

func (m *ConfigManager) lookup(path string, defaultValue interface{}) interface{} {
	if path == "" {
		return m.config
	}

	parts := strings.Split(path, ".")
	current := m.config

	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return defaultValue
		}

		if i == len(parts)-1 {
			return v
		}

		current, ok = v.(map[string]interface{})
		if !ok {
			return defaultValue
		}
	}

	return defaultValue
}

// SetConfig sets a configuration value by dotted path
func (m *ConfigManager) SetConfig(path string, value interface{}) error {
	m.mutex.Lock()

	if path == "" {
		newConfig, ok := value.(map[string]interface{})
		if !ok {
			m.mutex.Unlock()
			return fmt.Errorf("cannot set root config to non-map value")
		}
		m.config = newConfig
		callbacks := m.watchers[""]
		m.mutex.Unlock()

		for _, callback := range callbacks {
			callback(newConfig)
		}
		return nil
	}

	parts := strings.Split(path, ".")
	current := m.config

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value

	// Collect watchers for this path and every parent path
	type notification struct {
		callback func(interface{})
		value    interface{}
	}
	var pending []notification
	for i := 0; i <= len(parts); i++ {
		subPath := strings.Join(parts[:i], ".")
		for _, callback := range m.watchers[subPath] {
			pending = append(pending, notification{callback, m.lookup(subPath, nil)})
		}
	}
	m.mutex.Unlock()

	for _, n := range pending {
		n.callback(n.value)
	}

	return nil
}

// WatchConfig registers a callback for configuration changes at path and
// calls it once with the current value
func (m *ConfigManager) WatchConfig(path string, callback func(interface{})) {
	m.mutex.Lock()
	m.watchers[path] = append(m.watchers[path], callback)
	current := m.lookup(path, nil)
	m.mutex.Unlock()

	callback(current)
}

// GetString returns a string value or the default
func (m *ConfigManager) GetString(path, defaultValue string) string {
	switch v := m.GetConfig(path, nil).(type) {
	case string:
		return v
	case nil:
		return defaultValue
	default:
		return fmt.Sprint(v)
	}
}

// GetInt returns an integer value or the default
func (m *ConfigManager) GetInt(path string, defaultValue int) int {
	switch v := m.GetConfig(path, nil).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultValue
}

// GetBool returns a boolean value or the default
func (m *ConfigManager) GetBool(path string, defaultValue bool) bool {
	switch v := m.GetConfig(path, nil).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetDuration returns a duration value or the default. Strings use Go
// duration syntax ("250ms", "3m"); bare numbers are seconds.
func (m *ConfigManager) GetDuration(path string, defaultValue time.Duration) time.Duration {
	switch v := m.GetConfig(path, nil).(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return time.Duration(n * float64(time.Second))
		}
	}
	return defaultValue
}

// Settings resolves the typed settings, falling back to DefaultSettings for
// every key that is not configured
func (m *ConfigManager) Settings() Settings {
	d := DefaultSettings()

	return Settings{
		TransportKind:     m.GetString(KeyTransportKind, d.TransportKind),
		TransportEndpoint: m.GetString(KeyTransportEndpoint, d.TransportEndpoint),
		BaudRate:          m.GetInt(KeyTransportBaudRate, d.BaudRate),
		ReadTimeout:       m.GetDuration(KeyTransportReadTimeout, d.ReadTimeout),
		BufferSize:        m.GetInt(KeyTransportBufferSize, d.BufferSize),
		TickInterval:      m.GetDuration(KeyIngestInterval, d.TickInterval),
		StaleThreshold:    m.GetDuration(KeyIngestStaleThreshold, d.StaleThreshold),
		LogDir:            m.GetString(KeyLogDir, d.LogDir),
		LogEnabled:        m.GetBool(KeyLogEnabled, d.LogEnabled),
		EchoEnabled:       m.GetBool(KeyEchoEnabled, d.EchoEnabled),
		EchoFormat:        m.GetString(KeyEchoFormat, d.EchoFormat),
		EchoColorize:      m.GetBool(KeyEchoColorize, d.EchoColorize),
		RenderEnabled:     m.GetBool(KeyRenderEnabled, d.RenderEnabled),
		APIEnabled:        m.GetBool(KeyAPIEnabled, d.APIEnabled),
		APIHost:           m.GetString(KeyAPIHost, d.APIHost),
		APIPort:           m.GetInt(KeyAPIPort, d.APIPort),
	}
}
