package template

import (
	"gopkg.in/yaml.v3"

	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

// catalogEntry mirrors a single tool in a YAML-described catalog fixture.
type catalogEntry struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Parameters  map[string]interface{} `yaml:"parameters"`
}

// LoadCatalog parses a YAML-described tool catalog (a list of
// {name, description, parameters} entries) into []toolprotocol.Tool, for
// assembling a tool set the same way a caller's own configuration loader
// would.
func LoadCatalog(data []byte) ([]toolprotocol.Tool, error) {
	var entries []catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	tools := make([]toolprotocol.Tool, 0, len(entries))
	for _, e := range entries {
		tools = append(tools, toolprotocol.Tool{
			Name:        e.Name,
			Description: e.Description,
			InputSchema: e.Parameters,
		})
	}
	return tools, nil
}
