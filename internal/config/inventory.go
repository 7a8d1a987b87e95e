package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"skywatch-agent/internal/model"
)

// ResourceSpec declares one monitored resource: identity, the
// monitor-specific connection parameters, and the threshold rules
// evaluated against its samples. Rule order is preserved.
type ResourceSpec struct {
	ID             string                `yaml:"id"`
	Type           model.ResourceType    `yaml:"type"`
	Region         string                `yaml:"region"`
	Params         map[string]string     `yaml:"params"`
	CollectTimeout time.Duration         `yaml:"collect_timeout"`
	Rules          []model.ThresholdRule `yaml:"rules"`
}

type Inventory struct {
	Resources []ResourceSpec `yaml:"resources"`
}

// LoadInventory parses and validates the resource inventory file.
func LoadInventory(path string) (Inventory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Inventory{}, fmt.Errorf("read inventory %s: %w", path, err)
	}
	var inv Inventory
	if err := yaml.Unmarshal(raw, &inv); err != nil {
		return Inventory{}, fmt.Errorf("parse inventory %s: %w", path, err)
	}
	if err := inv.Validate(); err != nil {
		return Inventory{}, fmt.Errorf("inventory %s: %w", path, err)
	}
	return inv, nil
}

func (inv Inventory) Validate() error {
	if len(inv.Resources) == 0 {
		return fmt.Errorf("no resources declared")
	}
	seen := map[string]bool{}
	for i, spec := range inv.Resources {
		if spec.ID == "" {
			return fmt.Errorf("resource %d: id is required", i)
		}
		if !spec.Type.Valid() {
			return fmt.Errorf("resource %s: unknown type %q", spec.ID, spec.Type)
		}
		if spec.Region == "" {
			return fmt.Errorf("resource %s: region is required", spec.ID)
		}
		// IDs are unique within a (region, type) pair.
		key := spec.Region + "/" + string(spec.Type) + "/" + spec.ID
		if seen[key] {
			return fmt.Errorf("duplicate resource %s", key)
		}
		seen[key] = true
		if spec.CollectTimeout < 0 {
			return fmt.Errorf("resource %s: collect_timeout must be >= 0", spec.ID)
		}
		if spec.Type == model.ResourceEndpoint && spec.Params["address"] == "" {
			return fmt.Errorf("resource %s: params.address is required for %s", spec.ID, model.ResourceEndpoint)
		}
		for j, rule := range spec.Rules {
			if err := rule.Validate(); err != nil {
				return fmt.Errorf("resource %s rule %d: %w", spec.ID, j, err)
			}
		}
	}
	return nil
}
