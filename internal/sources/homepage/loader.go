package homepage

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Homepage resolves {{HOMEPAGE_VAR_*}} placeholders itself; an import has no
// access to those values. A placeholder that is a whole value becomes an empty
// string, one embedded in a longer value is dropped.
var (
	wholeValueVar = regexp.MustCompile(`(?m)(:[ \t]*)["']?\{\{[^}]+\}\}["']?[ \t]*$`)
	inlineVar     = regexp.MustCompile(`\{\{[^}]+\}\}`)
)

// LoadFile reads and parses a services.yaml from disk.
func LoadFile(path string) (ServicesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read services file: %w", err)
	}
	return Parse(data)
}

// Parse decodes services.yaml content. An empty document yields no groups.
func Parse(data []byte) (ServicesConfig, error) {
	var config ServicesConfig
	if err := yaml.Unmarshal(stripTemplateVariables(data), &config); err != nil {
		return nil, fmt.Errorf("parse services yaml: %w", err)
	}
	return config, nil
}

func stripTemplateVariables(data []byte) []byte {
	data = wholeValueVar.ReplaceAll(data, []byte(`${1}""`))
	return inlineVar.ReplaceAll(data, nil)
}
