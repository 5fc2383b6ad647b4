package plugin

import (
	"fmt"

	"github.com/sliink/hopmon/internal/model"
)

// CreateTransport builds and configures the input plugin for a transport
// kind. The returned plugin has not been started.
func CreateTransport(factory *PluginFactory, kind string, config map[string]interface{}) (model.InputPlugin, error) {
	p, err := factory.CreatePlugin(model.InputPluginType, kind, kind+"_input")
	if err != nil {
		return nil, fmt.Errorf("transport %q: %w", kind, err)
	}

	input, ok := p.(model.InputPlugin)
	if !ok {
		return nil, fmt.Errorf("transport %q: plugin is not an input", kind)
	}

	if config != nil && !input.Configure(config) {
		return nil, fmt.Errorf("transport %q: configuration rejected", kind)
	}

	return input, nil
}
