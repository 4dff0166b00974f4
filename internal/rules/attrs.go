package rules

// AttrKind is the inferred type of a custom metadata key.
type AttrKind int

const (
	AttrString AttrKind = iota
	AttrBool
	AttrInt
	AttrFloat
	AttrList
	AttrMap
)

func (k AttrKind) String() string {
	switch k {
	case AttrString:
		return "string"
	case AttrBool:
		return "bool"
	case AttrInt:
		return "int"
	case AttrFloat:
		return "float"
	case AttrList:
		return "list"
	case AttrMap:
		return "map"
	default:
		return "unknown"
	}
}

// AttributeRegistry is the process-wide schema of custom metadata keys,
// built once per rule-set load. Each key's type is inferred from the
// first value observed for it, and every key gets a zero default of that
// type. Any match can then expose every key uniformly, whether or not
// its rule set the key.
type AttributeRegistry struct {
	order    []string
	kinds    map[string]AttrKind
	defaults map[string]any
}

// BuildAttributes scans every rule's custom metadata in rule order and
// returns the resulting registry.
func BuildAttributes(set *RuleSet) *AttributeRegistry {
	reg := &AttributeRegistry{
		kinds:    make(map[string]AttrKind),
		defaults: make(map[string]any),
	}
	for _, r := range set.Rules() {
		// key order within one rule's map is random, but first-rule-wins
		// across rules keeps inference deterministic for the common case
		// of a key appearing in a single rule
		for key, value := range r.Meta {
			if _, seen := reg.kinds[key]; seen {
				continue
			}
			kind := inferKind(value)
			reg.order = append(reg.order, key)
			reg.kinds[key] = kind
			reg.defaults[key] = zeroValue(kind)
		}
	}
	return reg
}

// Defaults returns a fresh map of key -> typed zero default.
func (a *AttributeRegistry) Defaults() map[string]any {
	out := make(map[string]any, len(a.defaults))
	for key, kind := range a.kinds {
		out[key] = zeroValue(kind)
	}
	return out
}

// Describe reports the inferred type of a key.
func (a *AttributeRegistry) Describe(key string) (AttrKind, bool) {
	k, ok := a.kinds[key]
	return k, ok
}

// Keys returns all registered keys in first-observed order.
func (a *AttributeRegistry) Keys() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// inferKind maps a decoded config value to its attribute kind. JSON
// decodes all numbers as float64, so whole floats are treated as ints;
// this matches the original engine, where `"nice": 69` defaults to 0.
func inferKind(v any) AttrKind {
	switch n := v.(type) {
	case bool:
		return AttrBool
	case int, int64:
		return AttrInt
	case float64:
		if n == float64(int64(n)) {
			return AttrInt
		}
		return AttrFloat
	case string:
		return AttrString
	case []any, []string:
		return AttrList
	case map[string]any:
		return AttrMap
	default:
		return AttrString
	}
}

func zeroValue(k AttrKind) any {
	switch k {
	case AttrBool:
		return false
	case AttrInt:
		return 0
	case AttrFloat:
		return 0.0
	case AttrList:
		return []any{}
	case AttrMap:
		return map[string]any{}
	default:
		return ""
	}
}
