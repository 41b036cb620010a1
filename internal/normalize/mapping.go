package normalize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// mappingOverrideFile is the on-disk shape of a field-mapping override
// file. Each dialect section is optional; within a section only the
// fields named are overridden.
type mappingOverrideFile struct {
	V7 *FieldMapping `yaml:"v7"`
	V8 *FieldMapping `yaml:"v8"`
}

// LoadMappingOverrides reads a YAML override file and applies it on
// top of the built-in mapping for the dialect. Used for appliances
// with customized structured-log field names.
func LoadMappingOverrides(path string, d Dialect) (FieldMapping, error) {
	base := mappingFor(d)
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read mapping overrides: %w", err)
	}

	var file mappingOverrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return base, fmt.Errorf("parse mapping overrides: %w", err)
	}

	var override *FieldMapping
	if d == DialectV8 {
		override = file.V8
	} else {
		override = file.V7
	}
	if override == nil {
		return base, nil
	}
	return mergeMapping(base, *override), nil
}

// mergeMapping overlays non-empty override fields onto the base
// mapping.
func mergeMapping(base, override FieldMapping) FieldMapping {
	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&base.ID, override.ID)
	merge(&base.Timestamp, override.Timestamp)
	merge(&base.Priority, override.Priority)
	merge(&base.Category, override.Category)
	merge(&base.Action, override.Action)
	merge(&base.SourceAddr, override.SourceAddr)
	merge(&base.DestAddr, override.DestAddr)
	merge(&base.SourcePort, override.SourcePort)
	merge(&base.DestPort, override.DestPort)
	merge(&base.Protocol, override.Protocol)
	merge(&base.Rule, override.Rule)
	merge(&base.Message, override.Message)
	merge(&base.TenantID, override.TenantID)
	merge(&base.CloudID, override.CloudID)
	return base
}
