// Package match lowers declarative rules into executable matchers and
// scans annotated token sequences with them. A compiled rule set is
// immutable once built and safe for concurrent matching.
package match

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"replacy/internal/annotate"
	"replacy/internal/hooks"
	"replacy/internal/rules"
)

// tokenPred matches a single token against one pattern position.
type tokenPred func(t annotate.Token) bool

type quantifier int

const (
	quantOne  quantifier = iota // exactly one
	quantOpt                    // zero or one
	quantStar                   // zero or more
	quantPlus                   // one or more
)

// ctoken is one compiled pattern position. Whitespace-tolerance tokens
// injected by the compiler carry ws=true and patternPos -1; they do not
// correspond to any declared pattern position.
type ctoken struct {
	pred       tokenPred
	quant      quantifier
	patternPos int
	ws         bool
}

// program is one compiled pattern alternative.
type program struct {
	tokens []ctoken
	// n is the number of declared pattern tokens (before whitespace
	// injection); matched spans are recorded per declared position.
	n int
	// alt is the index of this alternative within the rule's patterns.
	alt int
	// templates maps template id -> declared pattern position.
	templates map[int]int
}

type compiledHook struct {
	name     string
	pred     hooks.Predicate
	polarity bool
}

// CompiledRule is a rule lowered to executable form. Immutable after
// compilation.
type CompiledRule struct {
	Name string
	// Rule is the declarative source, kept for suggestion templates and
	// metadata. Read-only.
	Rule *rules.Rule

	programs []program
	hooks    []compiledHook
}

// CompiledRuleSet is an ordered, immutable set of compiled rules plus
// the attribute registry derived from the same load.
type CompiledRuleSet struct {
	list       []*CompiledRule
	byName     map[string]*CompiledRule
	Attributes *rules.AttributeRegistry
	logger     *zap.Logger
}

// Rules returns the compiled rules in rule-set insertion order.
func (s *CompiledRuleSet) Rules() []*CompiledRule { return s.list }

// Get looks up a compiled rule by name.
func (s *CompiledRuleSet) Get(name string) (*CompiledRule, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// Compile lowers every rule in the set: attribute constraints become
// predicates, quantifiers are normalized, hook specs are resolved
// against the registry, and suggestion references are validated against
// the declared pattern. Any failure is a configuration error that
// aborts compilation; there is nothing to retry until the rule set is
// fixed.
//
// With whitespaceTolerant set, an optional whitespace wildcard is
// threaded around every declared pattern token, so stray whitespace
// tokens in noisy input extend a match instead of breaking it. The
// wildcards consume greedily and never fork the scan.
func Compile(set *rules.RuleSet, registry *hooks.Registry, whitespaceTolerant bool, logger *zap.Logger) (*CompiledRuleSet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := &CompiledRuleSet{
		byName:     make(map[string]*CompiledRule, set.Len()),
		Attributes: rules.BuildAttributes(set),
		logger:     logger,
	}
	for _, r := range set.Rules() {
		cr, err := compileRule(r, registry, whitespaceTolerant)
		if err != nil {
			return nil, err
		}
		out.list = append(out.list, cr)
		out.byName[cr.Name] = cr
	}
	return out, nil
}

func compileRule(r *rules.Rule, registry *hooks.Registry, tolerant bool) (*CompiledRule, error) {
	cr := &CompiledRule{Name: r.Name, Rule: r}

	for ai, alt := range r.Patterns {
		prog, err := compilePattern(r.Name, alt, tolerant)
		if err != nil {
			return nil, err
		}
		prog.alt = ai
		cr.programs = append(cr.programs, prog)
	}

	for _, spec := range r.Hooks {
		pred, err := registry.Resolve(spec.Name, spec.Arg)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		cr.hooks = append(cr.hooks, compiledHook{
			name:     spec.Name,
			pred:     pred,
			polarity: spec.MatchIfPredicateIs,
		})
	}

	if err := validateSuggestions(r); err != nil {
		return nil, err
	}
	return cr, nil
}

func compilePattern(rule string, pattern []rules.PatternToken, tolerant bool) (program, error) {
	prog := program{n: len(pattern), templates: make(map[int]int)}

	for pos, pt := range pattern {
		if pt.TemplateID != 0 {
			if prev, dup := prog.templates[pt.TemplateID]; dup {
				return prog, fmt.Errorf("%w: rule %q: TEMPLATE_ID %d declared at positions %d and %d",
					rules.ErrInvalidRule, rule, pt.TemplateID, prev, pos)
			}
			prog.templates[pt.TemplateID] = pos
		}

		pred, err := compileAttrs(pt.Attrs)
		if err != nil {
			return prog, fmt.Errorf("%w: rule %q: pattern token %d: %v", rules.ErrInvalidRule, rule, pos, err)
		}

		if tolerant {
			prog.tokens = append(prog.tokens, wsWildcard())
		}
		prog.tokens = append(prog.tokens, ctoken{
			pred:       pred,
			quant:      opQuant(pt.Op),
			patternPos: pos,
		})
	}
	if tolerant {
		prog.tokens = append(prog.tokens, wsWildcard())
	}
	return prog, nil
}

func wsWildcard() ctoken {
	return ctoken{
		pred:       func(t annotate.Token) bool { return t.IsSpace() },
		quant:      quantOpt,
		patternPos: -1,
		ws:         true,
	}
}

func opQuant(op string) quantifier {
	switch op {
	case "?":
		return quantOpt
	case "*":
		return quantStar
	case "+":
		return quantPlus
	default:
		return quantOne
	}
}

// compileAttrs folds a token's attribute constraints into one predicate.
// An empty constraint map is a wildcard.
func compileAttrs(attrs map[string]rules.AttrSpec) (tokenPred, error) {
	var checks []tokenPred
	for name, spec := range attrs {
		if name == "IS_SPACE" {
			if spec.Bool == nil {
				return nil, fmt.Errorf("IS_SPACE expects a boolean")
			}
			want := *spec.Bool
			checks = append(checks, func(t annotate.Token) bool { return t.IsSpace() == want })
			continue
		}
		getter, err := attrGetter(name)
		if err != nil {
			return nil, err
		}
		check, err := specCheck(name, spec, getter)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	if len(checks) == 0 {
		return func(annotate.Token) bool { return true }, nil
	}
	if len(checks) == 1 {
		return checks[0], nil
	}
	return func(t annotate.Token) bool {
		for _, c := range checks {
			if !c(t) {
				return false
			}
		}
		return true
	}, nil
}

func attrGetter(name string) (func(annotate.Token) string, error) {
	switch name {
	case "TEXT":
		return func(t annotate.Token) string { return t.Text }, nil
	case "LOWER":
		return func(t annotate.Token) string { return strings.ToLower(t.Text) }, nil
	case "LEMMA":
		return func(t annotate.Token) string { return t.Lemma }, nil
	case "POS":
		return func(t annotate.Token) string { return t.POS }, nil
	case "TAG":
		return func(t annotate.Token) string { return t.Tag }, nil
	case "DEP":
		return func(t annotate.Token) string { return t.Dep }, nil
	default:
		return nil, fmt.Errorf("unknown attribute %q", name)
	}
}

func specCheck(name string, spec rules.AttrSpec, getter func(annotate.Token) string) (tokenPred, error) {
	switch {
	case spec.Regex != "":
		re, err := regexp.Compile(spec.Regex)
		if err != nil {
			return nil, fmt.Errorf("%s REGEX: %v", name, err)
		}
		return func(t annotate.Token) bool { return re.MatchString(getter(t)) }, nil
	case len(spec.In) > 0:
		members := toSet(spec.In)
		return func(t annotate.Token) bool { return members[getter(t)] }, nil
	case len(spec.NotIn) > 0:
		members := toSet(spec.NotIn)
		return func(t annotate.Token) bool { return !members[getter(t)] }, nil
	case spec.Bool != nil:
		return nil, fmt.Errorf("%s does not accept a boolean", name)
	default:
		want := spec.Value
		return func(t annotate.Token) bool { return getter(t) == want }, nil
	}
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

// validateSuggestions checks every suggestion reference against every
// pattern alternative of the rule, so a suggestion can be produced no
// matter which alternative matched.
func validateSuggestions(r *rules.Rule) error {
	for si, alt := range r.Suggestions {
		for ti, st := range alt {
			switch st.Kind {
			case rules.SuggestCopy, rules.SuggestReinflectCopy:
				for pi, pattern := range r.Patterns {
					// negative references count from the end of the pattern
					if st.PatternRef < -len(pattern) || st.PatternRef >= len(pattern) {
						return fmt.Errorf("%w: rule %q: suggestion %d token %d: PATTERN_REF %d out of range for pattern %d (length %d)",
							rules.ErrInvalidRule, r.Name, si, ti, st.PatternRef, pi, len(pattern))
					}
					if st.Regex == "" {
						continue
					}
					ref := st.PatternRef
					if ref < 0 {
						ref += len(pattern)
					}
					src := pattern[ref].RegexSource()
					if src == "" {
						return fmt.Errorf("%w: rule %q: suggestion %d token %d: REGEX needs a LOWER or TEXT REGEX constraint on pattern %d token %d",
							rules.ErrInvalidRule, r.Name, si, ti, pi, ref)
					}
					if _, err := regexp.Compile("(?i)" + src); err != nil {
						return fmt.Errorf("%w: rule %q: suggestion %d token %d: REGEX target does not compile: %v",
							rules.ErrInvalidRule, r.Name, si, ti, err)
					}
				}
			case rules.SuggestInflectText:
				for pi, pattern := range r.Patterns {
					if !patternHasTemplate(pattern, st.FromTemplateID) {
						return fmt.Errorf("%w: rule %q: suggestion %d token %d: FROM_TEMPLATE_ID %d not declared in pattern %d",
							rules.ErrInvalidRule, r.Name, si, ti, st.FromTemplateID, pi)
					}
				}
			}
		}
	}
	return nil
}

func patternHasTemplate(pattern []rules.PatternToken, id int) bool {
	for _, pt := range pattern {
		if pt.TemplateID == id {
			return true
		}
	}
	return false
}
