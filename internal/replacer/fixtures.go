package replacer

import "fmt"

// FixtureFailure records one test sentence that did not behave as its
// rule declares: a positive fixture the rule failed to match, or a
// negative fixture it matched anyway.
type FixtureFailure struct {
	Rule     string
	Input    string
	Positive bool
	Matched  []string
}

func (f FixtureFailure) String() string {
	kind := "negative"
	if f.Positive {
		kind = "positive"
	}
	return fmt.Sprintf("rule %q: %s fixture %q (matched rules: %v)", f.Rule, kind, f.Input, f.Matched)
}

// RunFixtures checks every rule's declared positive and negative test
// sentences against the compiled pipeline and returns the failures.
// Rules without fixtures are skipped.
func (rm *ReplaceMatcher) RunFixtures() ([]FixtureFailure, error) {
	if rm.annotator == nil {
		return nil, fmt.Errorf("no annotator configured")
	}

	var failures []FixtureFailure
	for _, rule := range rm.set.Rules() {
		for _, input := range rule.Test.Positive {
			matched, err := rm.matchedRules(input)
			if err != nil {
				return nil, fmt.Errorf("rule %q positive fixture: %w", rule.Name, err)
			}
			if !matched[rule.Name] {
				failures = append(failures, FixtureFailure{
					Rule: rule.Name, Input: input, Positive: true, Matched: ruleNames(matched),
				})
			}
		}
		for _, input := range rule.Test.Negative {
			matched, err := rm.matchedRules(input)
			if err != nil {
				return nil, fmt.Errorf("rule %q negative fixture: %w", rule.Name, err)
			}
			if matched[rule.Name] {
				failures = append(failures, FixtureFailure{
					Rule: rule.Name, Input: input, Positive: false, Matched: ruleNames(matched),
				})
			}
		}
	}
	return failures, nil
}

func (rm *ReplaceMatcher) matchedRules(input string) (map[string]bool, error) {
	spans, err := rm.Check(input)
	if err != nil {
		return nil, err
	}
	matched := make(map[string]bool, len(spans))
	for _, sp := range spans {
		matched[sp.RuleName] = true
	}
	return matched, nil
}

func ruleNames(matched map[string]bool) []string {
	names := make([]string, 0, len(matched))
	for name := range matched {
		names = append(names, name)
	}
	return names
}
