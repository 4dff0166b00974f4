// Package rules holds the declarative rule model: patterns, suggestion
// templates, hook specs and test fixtures, loaded from JSON or YAML rule
// files. Rules are plain data here; compiling them into something
// executable is the match package's job.
package rules

import (
	"errors"
	"fmt"
)

// ErrInvalidRule is wrapped by every configuration error raised while
// decoding or validating a rule. Configuration errors are fatal and
// deterministic: the rule set must be fixed before retrying.
var ErrInvalidRule = errors.New("invalid rule")

// ErrDuplicateRule is returned when two rules share a name.
var ErrDuplicateRule = errors.New("duplicate rule name")

// Fixtures carries the example strings attached to a rule. Positive
// examples must trigger the rule, negative examples must not. They are
// used only by validation tooling and tests.
type Fixtures struct {
	Positive []string
	Negative []string
}

// Rule is one declarative correction rule.
type Rule struct {
	// Name is the unique key of the rule within its set.
	Name string
	// Patterns is a list of pattern alternatives. Each alternative is an
	// ordered list of token constraints; most rules have exactly one.
	Patterns [][]PatternToken
	// Suggestions is the list of suggestion alternatives. Each yields one
	// or more ranked suggestion strings per match, in declaration order.
	Suggestions [][]SuggestionToken
	// Hooks filter candidate spans after pattern matching.
	Hooks []HookSpec
	// Test holds the rule's positive/negative fixtures.
	Test Fixtures

	Comment     string
	Description string
	Category    string

	// Meta carries any extra keys found on the rule in the config file.
	// Types are inferred per key across the whole set, see attrs.go.
	Meta map[string]any
}

// PatternToken is one token constraint in a pattern: an attribute
// constraint map plus an optional quantifier and template id.
type PatternToken struct {
	// Attrs maps an attribute name (TEXT, LOWER, LEMMA, POS, TAG, DEP,
	// IS_SPACE) to its constraint. An empty map is a wildcard token.
	Attrs map[string]AttrSpec
	// Op is the quantifier: "" (exactly one), "?", "*" or "+".
	Op string
	// TemplateID names this pattern position so suggestions can inflect
	// against the token matched here. 0 means unset. Ids must be unique
	// within one pattern.
	TemplateID int
}

// RegexSource returns the token's REGEX constraint, preferring LOWER
// over TEXT, or "" when neither attribute carries one. Suggestion
// tokens that rewrite a copied reference substitute against it.
func (pt PatternToken) RegexSource() string {
	if spec, ok := pt.Attrs["LOWER"]; ok && spec.Regex != "" {
		return spec.Regex
	}
	if spec, ok := pt.Attrs["TEXT"]; ok && spec.Regex != "" {
		return spec.Regex
	}
	return ""
}

// AttrSpec is a single attribute constraint. Exactly one of the fields
// is set.
type AttrSpec struct {
	// Value matches the attribute exactly.
	Value string
	// In matches if the attribute equals any listed value.
	In []string
	// NotIn matches if the attribute equals none of the listed values.
	NotIn []string
	// Regex matches the attribute against an (anchored) pattern.
	Regex string
	// Bool is used for boolean attributes such as IS_SPACE.
	Bool *bool
}

// HookSpec names a registered hook, its single optional argument and the
// polarity the predicate must report for the candidate to survive.
type HookSpec struct {
	Name string
	// Arg is the hook's argument as decoded from the config file: a
	// scalar, a string, or a nested list/map. Hooks take at most one.
	Arg any
	// MatchIfPredicateIs is the polarity flag: a candidate is kept only
	// if the predicate result equals this value. Defaults to false,
	// matching the original engine's "predicate true means discard".
	MatchIfPredicateIs bool
}

// SuggestionKind discriminates the four SuggestionToken shapes.
type SuggestionKind int

const (
	// SuggestText emits literal text.
	SuggestText SuggestionKind = iota
	// SuggestCopy copies the surface text of the matched token(s) at a
	// 0-based pattern position.
	SuggestCopy
	// SuggestInflectText inflects literal text, read as a lemma, using
	// the morphological tag of the token bound to FromTemplateID.
	SuggestInflectText
	// SuggestReinflectCopy inflects the lemma of the referenced matched
	// token using an explicitly supplied tag, ignoring its own tag.
	SuggestReinflectCopy
)

func (k SuggestionKind) String() string {
	switch k {
	case SuggestText:
		return "TEXT"
	case SuggestCopy:
		return "PATTERN_REF"
	case SuggestInflectText:
		return "TEXT+FROM_TEMPLATE_ID"
	case SuggestReinflectCopy:
		return "PATTERN_REF+INFLECTION"
	default:
		return fmt.Sprintf("SuggestionKind(%d)", int(k))
	}
}

// SuggestionToken is one piece of a suggestion template. Exactly one of
// the four kinds applies; the loader rejects anything else.
type SuggestionToken struct {
	Kind SuggestionKind

	// Text is the literal text (SuggestText, SuggestInflectText). When
	// TextOptions is non-empty the token expands to one suggestion per
	// option instead.
	Text        string
	TextOptions []string

	// PatternRef is the pattern position for the copy kinds. Negative
	// values count from the end of the pattern, -1 being the last
	// position.
	PatternRef int
	// FromTemplateID is the template id whose matched token provides the
	// target tag (SuggestInflectText).
	FromTemplateID int
	// Inflection is the explicit target tag (SuggestReinflectCopy).
	Inflection string

	// CaseOp optionally recases the resolved text: LOWER, TITLE, UPPER.
	CaseOp string
	// Suffix is appended verbatim after a copied reference.
	Suffix string
	// Regex is a replacement applied to a copied reference against the
	// REGEX constraint of the referenced pattern token.
	Regex string
	// MaxCount caps how many rendered variants may differ at this token
	// while agreeing everywhere else. 0 means uncapped.
	MaxCount int
}

// RuleSet is an ordered, name-indexed collection of rules. Iteration
// order is file/insertion order; the matcher relies on it for stable
// output ordering.
type RuleSet struct {
	rules  []*Rule
	byName map[string]*Rule
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{byName: make(map[string]*Rule)}
}

// Add appends a rule, rejecting duplicate names.
func (s *RuleSet) Add(r *Rule) error {
	if _, exists := s.byName[r.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRule, r.Name)
	}
	s.rules = append(s.rules, r)
	s.byName[r.Name] = r
	return nil
}

// Rules returns the rules in insertion order. The returned slice is
// shared; callers must not mutate it.
func (s *RuleSet) Rules() []*Rule { return s.rules }

// Get looks a rule up by name.
func (s *RuleSet) Get(name string) (*Rule, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// Len reports the number of rules.
func (s *RuleSet) Len() int { return len(s.rules) }

func invalidf(rule, format string, args ...any) error {
	return fmt.Errorf("%w: rule %q: %s", ErrInvalidRule, rule, fmt.Sprintf(format, args...))
}
