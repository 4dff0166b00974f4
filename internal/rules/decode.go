package rules

import (
	"fmt"
	"strings"
)

// knownRuleFields are the reserved keys of a rule object; everything
// else on a rule is custom metadata.
var knownRuleFields = map[string]bool{
	"patterns":    true,
	"suggestions": true,
	"match_hook":  true,
	"test":        true,
	"comment":     true,
	"description": true,
	"category":    true,
}

// patternAttrs are the token attributes a pattern may constrain.
var patternAttrs = map[string]bool{
	"TEXT":     true,
	"LOWER":    true,
	"LEMMA":    true,
	"POS":      true,
	"TAG":      true,
	"DEP":      true,
	"IS_SPACE": true,
}

// buildRule assembles a Rule from a decoded config value. It performs
// shape validation only; cross-references (template ids, pattern refs,
// hook names) are checked at compile time where the hook registry is
// available.
func buildRule(name string, raw map[string]any) (*Rule, error) {
	r := &Rule{Name: name}

	pv, ok := raw["patterns"]
	if !ok {
		return nil, invalidf(name, "missing patterns")
	}
	patterns, err := buildPatterns(name, pv)
	if err != nil {
		return nil, err
	}
	r.Patterns = patterns

	if sv, ok := raw["suggestions"]; ok {
		suggestions, err := buildSuggestions(name, sv)
		if err != nil {
			return nil, err
		}
		r.Suggestions = suggestions
	}

	if hv, ok := raw["match_hook"]; ok {
		hooks, err := buildHooks(name, hv)
		if err != nil {
			return nil, err
		}
		r.Hooks = hooks
	}

	if tv, ok := raw["test"]; ok {
		test, err := buildFixtures(name, tv)
		if err != nil {
			return nil, err
		}
		r.Test = test
	}

	r.Comment, _ = raw["comment"].(string)
	r.Description, _ = raw["description"].(string)
	r.Category, _ = raw["category"].(string)

	for k, v := range raw {
		if knownRuleFields[k] {
			continue
		}
		if r.Meta == nil {
			r.Meta = make(map[string]any)
		}
		r.Meta[k] = v
	}
	return r, nil
}

// buildPatterns accepts either a single pattern (list of token objects)
// or a list of pattern alternatives (list of lists).
func buildPatterns(rule string, v any) ([][]PatternToken, error) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, invalidf(rule, "patterns must be a non-empty list")
	}
	// a list of lists means alternatives
	if _, nested := list[0].([]any); nested {
		var out [][]PatternToken
		for i, alt := range list {
			altList, ok := alt.([]any)
			if !ok {
				return nil, invalidf(rule, "pattern alternative %d is not a list", i)
			}
			p, err := buildPattern(rule, altList)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	}
	p, err := buildPattern(rule, list)
	if err != nil {
		return nil, err
	}
	return [][]PatternToken{p}, nil
}

func buildPattern(rule string, list []any) ([]PatternToken, error) {
	if len(list) == 0 {
		return nil, invalidf(rule, "empty pattern")
	}
	out := make([]PatternToken, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, invalidf(rule, "pattern token %d is not an object", i)
		}
		tok, err := buildPatternToken(rule, i, m)
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

func buildPatternToken(rule string, pos int, m map[string]any) (PatternToken, error) {
	tok := PatternToken{Attrs: make(map[string]AttrSpec)}
	for key, val := range m {
		switch key {
		case "OP":
			op, ok := val.(string)
			if !ok {
				return tok, invalidf(rule, "pattern token %d: OP must be a string", pos)
			}
			switch op {
			case "", "?", "*", "+":
				tok.Op = op
			default:
				return tok, invalidf(rule, "pattern token %d: unsupported OP %q", pos, op)
			}
		case "TEMPLATE_ID":
			id, ok := asInt(val)
			if !ok || id <= 0 {
				return tok, invalidf(rule, "pattern token %d: TEMPLATE_ID must be a positive integer", pos)
			}
			tok.TemplateID = id
		default:
			if !patternAttrs[key] {
				return tok, invalidf(rule, "pattern token %d: unknown attribute %q", pos, key)
			}
			spec, err := buildAttrSpec(val)
			if err != nil {
				return tok, invalidf(rule, "pattern token %d: attribute %s: %v", pos, key, err)
			}
			tok.Attrs[key] = spec
		}
	}
	return tok, nil
}

func buildAttrSpec(v any) (AttrSpec, error) {
	switch val := v.(type) {
	case string:
		return AttrSpec{Value: val}, nil
	case bool:
		b := val
		return AttrSpec{Bool: &b}, nil
	case map[string]any:
		if len(val) != 1 {
			return AttrSpec{}, fmt.Errorf("constraint object must have exactly one key")
		}
		for k, inner := range val {
			switch k {
			case "IN":
				ss, ok := asStringList(inner)
				if !ok {
					return AttrSpec{}, fmt.Errorf("IN expects a list of strings")
				}
				return AttrSpec{In: ss}, nil
			case "NOT_IN":
				ss, ok := asStringList(inner)
				if !ok {
					return AttrSpec{}, fmt.Errorf("NOT_IN expects a list of strings")
				}
				return AttrSpec{NotIn: ss}, nil
			case "REGEX":
				s, ok := inner.(string)
				if !ok {
					return AttrSpec{}, fmt.Errorf("REGEX expects a string")
				}
				return AttrSpec{Regex: s}, nil
			default:
				return AttrSpec{}, fmt.Errorf("unknown constraint %q", k)
			}
		}
	}
	return AttrSpec{}, fmt.Errorf("unsupported constraint value %T", v)
}

func buildSuggestions(rule string, v any) ([][]SuggestionToken, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, invalidf(rule, "suggestions must be a list")
	}
	out := make([][]SuggestionToken, 0, len(list))
	for i, alt := range list {
		altList, ok := alt.([]any)
		if !ok {
			return nil, invalidf(rule, "suggestion %d is not a list", i)
		}
		toks := make([]SuggestionToken, 0, len(altList))
		for j, item := range altList {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, invalidf(rule, "suggestion %d token %d is not an object", i, j)
			}
			tok, err := buildSuggestionToken(m)
			if err != nil {
				return nil, invalidf(rule, "suggestion %d token %d: %v", i, j, err)
			}
			toks = append(toks, tok)
		}
		out = append(out, toks)
	}
	return out, nil
}

// buildSuggestionToken classifies a suggestion token into exactly one of
// the four shapes: TEXT, PATTERN_REF, TEXT+FROM_TEMPLATE_ID, or
// PATTERN_REF+INFLECTION. Anything else is a configuration error.
func buildSuggestionToken(m map[string]any) (SuggestionToken, error) {
	var tok SuggestionToken
	var hasText, hasRef, hasTemplate, hasInflection bool

	for key, val := range m {
		switch key {
		case "TEXT":
			hasText = true
			switch tv := val.(type) {
			case string:
				tok.Text = tv
			case map[string]any:
				inner, ok := tv["IN"]
				if !ok || len(tv) != 1 {
					return tok, fmt.Errorf("TEXT object form must be {IN: [...]}")
				}
				ss, ok := asStringList(inner)
				if !ok || len(ss) == 0 {
					return tok, fmt.Errorf("TEXT IN expects a non-empty list of strings")
				}
				tok.TextOptions = ss
			default:
				return tok, fmt.Errorf("TEXT must be a string or {IN: [...]}")
			}
		case "PATTERN_REF":
			ref, ok := asInt(val)
			if !ok {
				return tok, fmt.Errorf("PATTERN_REF must be an integer")
			}
			hasRef = true
			tok.PatternRef = ref
		case "FROM_TEMPLATE_ID":
			id, ok := asInt(val)
			if !ok || id <= 0 {
				return tok, fmt.Errorf("FROM_TEMPLATE_ID must be a positive integer")
			}
			hasTemplate = true
			tok.FromTemplateID = id
		case "INFLECTION":
			s, ok := val.(string)
			if !ok || s == "" {
				return tok, fmt.Errorf("INFLECTION must be a non-empty string")
			}
			hasInflection = true
			tok.Inflection = s
		case "OP":
			s, ok := val.(string)
			if !ok {
				return tok, fmt.Errorf("OP must be a string")
			}
			switch strings.ToUpper(s) {
			case "LOWER", "TITLE", "UPPER":
				tok.CaseOp = strings.ToUpper(s)
			default:
				return tok, fmt.Errorf("unsupported case op %q", s)
			}
		case "SUFFIX":
			s, ok := val.(string)
			if !ok {
				return tok, fmt.Errorf("SUFFIX must be a string")
			}
			tok.Suffix = s
		case "REGEX":
			s, ok := val.(string)
			if !ok {
				return tok, fmt.Errorf("REGEX must be a string")
			}
			tok.Regex = s
		case "MAX_COUNT":
			n, ok := asInt(val)
			if !ok || n <= 0 {
				return tok, fmt.Errorf("MAX_COUNT must be a positive integer")
			}
			tok.MaxCount = n
		default:
			return tok, fmt.Errorf("unknown suggestion key %q", key)
		}
	}

	switch {
	case hasText && !hasRef && !hasTemplate && !hasInflection:
		tok.Kind = SuggestText
	case hasRef && !hasText && !hasTemplate && !hasInflection:
		tok.Kind = SuggestCopy
	case hasText && hasTemplate && !hasRef && !hasInflection:
		tok.Kind = SuggestInflectText
	case hasRef && hasInflection && !hasText && !hasTemplate:
		tok.Kind = SuggestReinflectCopy
	default:
		return tok, fmt.Errorf("suggestion token must be exactly one of TEXT, PATTERN_REF, TEXT+FROM_TEMPLATE_ID, PATTERN_REF+INFLECTION")
	}
	if tok.Suffix != "" && tok.Kind != SuggestCopy {
		return tok, fmt.Errorf("SUFFIX only applies to PATTERN_REF tokens")
	}
	if tok.Regex != "" && tok.Kind != SuggestCopy {
		return tok, fmt.Errorf("REGEX only applies to PATTERN_REF tokens")
	}
	return tok, nil
}

func buildHooks(rule string, v any) ([]HookSpec, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, invalidf(rule, "match_hook must be a list")
	}
	out := make([]HookSpec, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, invalidf(rule, "match_hook %d is not an object", i)
		}
		name, _ := m["name"].(string)
		if name == "" {
			return nil, invalidf(rule, "match_hook %d: missing name", i)
		}
		spec := HookSpec{Name: name, Arg: m["args"]}
		if p, ok := m["match_if_predicate_is"].(bool); ok {
			spec.MatchIfPredicateIs = p
		}
		for k := range m {
			switch k {
			case "name", "args", "match_if_predicate_is":
			default:
				return nil, invalidf(rule, "match_hook %d: unknown key %q", i, k)
			}
		}
		out = append(out, spec)
	}
	return out, nil
}

func buildFixtures(rule string, v any) (Fixtures, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Fixtures{}, invalidf(rule, "test must be an object with positive/negative lists")
	}
	var f Fixtures
	if pv, ok := m["positive"]; ok {
		ss, ok := asStringList(pv)
		if !ok {
			return f, invalidf(rule, "test.positive must be a list of strings")
		}
		f.Positive = ss
	}
	if nv, ok := m["negative"]; ok {
		ss, ok := asStringList(nv)
		if !ok {
			return f, invalidf(rule, "test.negative must be a list of strings")
		}
		f.Negative = ss
	}
	return f, nil
}

// asInt accepts the integer encodings produced by both the JSON decoder
// (float64) and the YAML decoder (int).
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func asStringList(v any) ([]string, bool) {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case []string:
		return val, true
	}
	return nil, false
}
