package catalog

import (
	_ "embed"
	"fmt"
)

//go:embed defaults.yaml
var defaultContent []byte

// Defaults returns a registry loaded with the built-in roster, locations,
// curbstomp rules and combat tables.
func Defaults() (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadFromYAML(defaultContent); err != nil {
		return nil, fmt.Errorf("built-in content: %w", err)
	}
	return r, nil
}
