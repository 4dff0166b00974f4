package rules

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile loads a rule file, dispatching on extension: .json, .yaml or
// .yml. File order becomes rule insertion order.
func LoadFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return nil, fmt.Errorf("unsupported rule file extension %q", filepath.Ext(path))
	}
}

// LoadJSON reads a rule set from a JSON object keyed by rule name. It
// decodes token by token so that key order is preserved and duplicate
// rule names are rejected instead of silently overwriting.
func LoadJSON(r io.Reader) (*RuleSet, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode rules: top level must be an object")
	}

	set := NewRuleSet()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode rules: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decode rules: non-string rule name %v", keyTok)
		}

		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode rule %q: %w", name, err)
		}

		rule, err := buildRule(name, raw)
		if err != nil {
			return nil, err
		}
		if err := set.Add(rule); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return set, nil
}

// LoadYAML reads a rule set from a YAML mapping keyed by rule name,
// walking the node tree so mapping order is preserved and duplicate
// keys are rejected.
func LoadYAML(r io.Reader) (*RuleSet, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("decode rules: empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode rules: top level must be a mapping")
	}

	set := NewRuleSet()
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value

		var raw map[string]any
		if err := root.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode rule %q: %w", name, err)
		}

		rule, err := buildRule(name, raw)
		if err != nil {
			return nil, err
		}
		if err := set.Add(rule); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// FromMap builds a rule set from an already-decoded configuration map.
// Go map iteration order is random, so callers that care about rule
// order pass names explicitly; rules not named are appended afterwards
// in unspecified order.
func FromMap(raw map[string]map[string]any, names ...string) (*RuleSet, error) {
	set := NewRuleSet()
	seen := make(map[string]bool, len(raw))
	add := func(name string) error {
		value, ok := raw[name]
		if !ok {
			return fmt.Errorf("%w: rule %q not present in map", ErrInvalidRule, name)
		}
		rule, err := buildRule(name, value)
		if err != nil {
			return err
		}
		seen[name] = true
		return set.Add(rule)
	}
	for _, name := range names {
		if err := add(name); err != nil {
			return nil, err
		}
	}
	for name := range raw {
		if seen[name] {
			continue
		}
		if err := add(name); err != nil {
			return nil, err
		}
	}
	return set, nil
}
