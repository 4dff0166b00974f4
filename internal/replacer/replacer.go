// Package replacer ties the pipeline together: it compiles a rule set
// once, then for each annotated token sequence finds matches, renders
// their suggestions and exposes the results as annotated spans.
package replacer

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"replacy/internal/annotate"
	"replacy/internal/hooks"
	"replacy/internal/inflect"
	"replacy/internal/match"
	"replacy/internal/rules"
	"replacy/internal/suggest"
	"replacy/pkg/options"
)

// Span is the external representation of one accepted match. Start and
// End are token indices (end exclusive); CharStart and CharEnd are byte
// offsets into the original text. Meta merges the rule's declared
// metadata over the registry defaults for every key any rule declares.
type Span struct {
	ID          uuid.UUID      `json:"id"`
	RuleName    string         `json:"rule_name"`
	Start       int            `json:"start"`
	End         int            `json:"end"`
	CharStart   int            `json:"char_start"`
	CharEnd     int            `json:"char_end"`
	Text        string         `json:"text"`
	Suggestions []string       `json:"suggestions"`
	Unverified  bool           `json:"unverified,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// ReplaceMatcher is the compiled pipeline. Compilation happens once in
// New; Match and Check are safe for concurrent use afterwards.
type ReplaceMatcher struct {
	set       *rules.RuleSet
	compiled  *match.CompiledRuleSet
	generator *suggest.Generator
	annotator annotate.Annotator
	conf      options.MatcherOptions
	logger    *zap.Logger
}

// New compiles the rule set against the hook registry and prepares the
// suggestion generator. annotator may be nil when only Match and
// pre-annotated sequences are used.
func New(set *rules.RuleSet, registry *hooks.Registry, inflector *inflect.Engine, annotator annotate.Annotator, opts ...options.Options) (*ReplaceMatcher, error) {
	conf := options.DefaultOptions
	for _, o := range opts {
		o.Apply(&conf)
	}
	if conf.Logger == nil {
		conf.Logger = zap.NewNop()
	}

	compiled, err := match.Compile(set, registry, conf.AllowMultipleWhitespaces, conf.Logger)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}

	return &ReplaceMatcher{
		set:       set,
		compiled:  compiled,
		generator: suggest.NewGenerator(inflector, conf.MaxSuggestionVariants, conf.Logger),
		annotator: annotator,
		conf:      conf,
		logger:    conf.Logger,
	}, nil
}

// Attributes exposes the metadata schema built from the rule set.
func (rm *ReplaceMatcher) Attributes() *rules.AttributeRegistry {
	return rm.compiled.Attributes
}

// RuleCount reports how many rules were compiled.
func (rm *ReplaceMatcher) RuleCount() int {
	return rm.set.Len()
}

// Check annotates the text and returns its spans.
func (rm *ReplaceMatcher) Check(text string) ([]Span, error) {
	if rm.annotator == nil {
		return nil, fmt.Errorf("no annotator configured")
	}
	seq, err := rm.annotator.Annotate(text)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	return rm.Match(seq), nil
}

// Match runs every compiled rule over the sequence and returns the
// accepted matches as spans, in match order.
func (rm *ReplaceMatcher) Match(seq []annotate.Token) []Span {
	matches := rm.compiled.FindMatches(seq)
	if len(matches) == 0 {
		return nil
	}

	offsets := charOffsets(seq)
	spans := make([]Span, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		rule, ok := rm.set.Get(m.RuleName)
		if !ok {
			continue
		}
		sp, ok := rm.buildSpan(seq, offsets, m, rule)
		if ok {
			spans = append(spans, sp)
		}
	}
	return spans
}

func (rm *ReplaceMatcher) buildSpan(seq []annotate.Token, offsets []int, m *match.Match, rule *rules.Rule) (Span, bool) {
	text := annotate.Text(seq, m.Start, m.End)

	suggestions := rm.generator.Generate(seq, m, rule)
	texts := make([]string, 0, len(suggestions))
	unverified := false
	seen := make(map[string]bool, len(suggestions))
	for _, s := range suggestions {
		if seen[s.Text] {
			continue
		}
		if rm.conf.FilterZeroDistance && s.Text == text {
			continue
		}
		seen[s.Text] = true
		texts = append(texts, s.Text)
		unverified = unverified || s.Unverified
	}
	if rm.conf.FilterZeroDistance && len(suggestions) > 0 && len(texts) == 0 {
		// every suggestion reproduced the input, nothing to offer
		return Span{}, false
	}
	if rm.conf.Scorer != nil && len(texts) > 1 {
		sort.SliceStable(texts, func(i, j int) bool {
			return rm.conf.Scorer.Score(texts[i]) > rm.conf.Scorer.Score(texts[j])
		})
	}

	meta := rm.compiled.Attributes.Defaults()
	for k, v := range rule.Meta {
		meta[k] = v
	}

	return Span{
		ID:          uuid.New(),
		RuleName:    m.RuleName,
		Start:       m.Start,
		End:         m.End,
		CharStart:   offsets[m.Start],
		CharEnd:     offsets[m.End-1] + len(seq[m.End-1].Text),
		Text:        text,
		Suggestions: texts,
		Unverified:  unverified,
		Meta:        meta,
	}, true
}

// charOffsets returns, per token, its byte offset in the original text.
func charOffsets(seq []annotate.Token) []int {
	offsets := make([]int, len(seq))
	pos := 0
	for i, t := range seq {
		offsets[i] = pos
		pos += len(t.Text) + len(t.Whitespace)
	}
	return offsets
}
