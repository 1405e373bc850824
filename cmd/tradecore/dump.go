package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/quantpulse/tradecore/internal/config"
)

// yamlMarshal renders the active config the same way a config file would be
// written, so explain output can be pasted back in as an override file.
func yamlMarshal(cfg config.Config) (string, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("render config: %w", err)
	}
	return string(out), nil
}
