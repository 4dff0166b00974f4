package replacer

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"replacy/internal/annotate"
	"replacy/internal/hooks"
	"replacy/internal/inflect"
	"replacy/internal/rules"
	"replacy/pkg/options"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func annotator() *annotate.Simple {
	return annotate.NewSimple(map[string]annotate.Analysis{
		"extract": {Lemma: "extract", POS: "VERB", Tag: "VB"},
		"exact":   {Lemma: "exact", POS: "VERB", Tag: "VB"},
		"revenge": {Lemma: "revenge", POS: "NOUN", Tag: "NN"},
		"custard": {Lemma: "custard", POS: "NOUN", Tag: "NN"},
		"require": {Lemma: "require", POS: "VERB", Tag: "VB"},
		"effect":  {Lemma: "effect", POS: "NOUN", Tag: "NN"},
		"affect":  {Lemma: "affect", POS: "VERB", Tag: "VB"},
	})
}

func matcher(t *testing.T, rulesJSON string, opts ...options.Options) *ReplaceMatcher {
	t.Helper()
	set, err := rules.LoadJSON(strings.NewReader(rulesJSON))
	require.NoError(t, err)
	rm, err := New(set, hooks.NewRegistry(), inflect.NewEngine(nil), annotator(), opts...)
	require.NoError(t, err)
	return rm
}

const extractRule = `{
	"extract-revenge": {
		"patterns": [{"LEMMA": "extract", "TEMPLATE_ID": 1}],
		"suggestions": [[{"TEXT": "exact", "FROM_TEMPLATE_ID": 1}]],
		"match_hook": [{"name": "succeeded_by_phrase", "args": "revenge", "match_if_predicate_is": true}],
		"test": {
			"positive": ["She extracts revenge."],
			"negative": [
				"She extracts custard.",
				"Mother flavours her custards with lemon extract."
			]
		},
		"coolness": true
	}
}`

func TestCheckExtractRevenge(t *testing.T) {
	rm := matcher(t, extractRule)

	spans, err := rm.Check("She extracts revenge.")
	require.NoError(t, err)
	require.Len(t, spans, 1)

	sp := spans[0]
	assert.Equal(t, "extract-revenge", sp.RuleName)
	assert.Equal(t, "extracts", sp.Text)
	assert.Equal(t, []string{"exacts"}, sp.Suggestions)
	assert.Equal(t, 4, sp.CharStart)
	assert.Equal(t, 12, sp.CharEnd)
	assert.False(t, sp.Unverified)
	assert.NotEqual(t, uuid.Nil, sp.ID)
	assert.Equal(t, true, sp.Meta["coolness"])
}

func TestCheckNegativeContext(t *testing.T) {
	rm := matcher(t, extractRule)
	spans, err := rm.Check("She extracts custard.")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestMetaDefaults(t *testing.T) {
	rm := matcher(t, `{
		"cool-rule": {"patterns": [{"LOWER": "revenge"}], "coolness": true},
		"plain-rule": {"patterns": [{"LOWER": "custard"}]}
	}`)

	spans, err := rm.Check("revenge custard")
	require.NoError(t, err)
	require.Len(t, spans, 2)

	assert.Equal(t, true, spans[0].Meta["coolness"])
	// the key exists on every span, defaulted to its typed zero
	assert.Equal(t, false, spans[1].Meta["coolness"])
}

func TestReinflectedCopy(t *testing.T) {
	rm := matcher(t, `{
		"require-past": {
			"patterns": [{"LEMMA": "require"}],
			"suggestions": [[{"PATTERN_REF": 0, "INFLECTION": "VBN"}]]
		}
	}`)

	spans, err := rm.Check("they require it")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, []string{"required"}, spans[0].Suggestions)
}

func TestZeroDistanceFilter(t *testing.T) {
	const ruleJSON = `{
		"echo": {
			"patterns": [{"LOWER": "effect"}],
			"suggestions": [[{"PATTERN_REF": 0}]]
		}
	}`

	spans, err := matcher(t, ruleJSON).Check("the effect here")
	require.NoError(t, err)
	require.Len(t, spans, 1)

	// with the filter on, the echoed suggestion and then the whole span drop
	spans, err = matcher(t, ruleJSON, options.WithZeroDistanceFilter()).Check("the effect here")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestZeroDistanceKeepsDifferingSuggestion(t *testing.T) {
	rm := matcher(t, `{
		"affect-effect": {
			"patterns": [{"LOWER": "effect"}],
			"suggestions": [[{"TEXT": "effect"}], [{"TEXT": "affect"}]]
		}
	}`, options.WithZeroDistanceFilter())

	spans, err := rm.Check("the effect here")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, []string{"affect"}, spans[0].Suggestions)
}

func TestSuggestionsDeduplicated(t *testing.T) {
	rm := matcher(t, `{
		"dupes": {
			"patterns": [{"LOWER": "custard"}],
			"suggestions": [[{"TEXT": "pudding"}], [{"TEXT": "pudding"}]]
		}
	}`)

	spans, err := rm.Check("custard")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, []string{"pudding"}, spans[0].Suggestions)
}

type lengthScorer struct{}

func (lengthScorer) Score(text string) float64 { return float64(len(text)) }

func TestScorerOrdersSuggestions(t *testing.T) {
	rm := matcher(t, `{
		"ranked": {
			"patterns": [{"LOWER": "custard"}],
			"suggestions": [[{"TEXT": "a"}], [{"TEXT": "lengthy option"}], [{"TEXT": "mid"}]]
		}
	}`, options.WithScorer(lengthScorer{}))

	spans, err := rm.Check("custard")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, []string{"lengthy option", "mid", "a"}, spans[0].Suggestions)
}

func TestMatchOnPreAnnotatedSequence(t *testing.T) {
	rm := matcher(t, extractRule)
	seq, err := annotator().Annotate("She extracts revenge.")
	require.NoError(t, err)

	spans := rm.Match(seq)
	require.Len(t, spans, 1)
	assert.Equal(t, "extracts", spans[0].Text)
}

func TestWhitespaceTolerantOption(t *testing.T) {
	const ruleJSON = `{
		"phrase": {"patterns": [{"LOWER": "extracts"}, {"LOWER": "revenge"}]}
	}`

	spans, err := matcher(t, ruleJSON).Check("She extracts  revenge.")
	require.NoError(t, err)
	assert.Empty(t, spans)

	spans, err = matcher(t, ruleJSON, options.WithMultipleWhitespaces()).Check("She extracts  revenge.")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "extracts  revenge", spans[0].Text)
}

func TestRunFixtures(t *testing.T) {
	rm := matcher(t, extractRule)
	failures, err := rm.RunFixtures()
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestRunFixturesReportsFailures(t *testing.T) {
	rm := matcher(t, `{
		"broken": {
			"patterns": [{"LOWER": "revenge"}],
			"test": {
				"positive": ["no trigger word here"],
				"negative": ["revenge is present"]
			}
		}
	}`)

	failures, err := rm.RunFixtures()
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.True(t, failures[0].Positive)
	assert.False(t, failures[1].Positive)
	assert.Contains(t, failures[1].String(), "broken")
}

func TestFilterByCategory(t *testing.T) {
	spans := []Span{
		{RuleName: "short", Start: 1, End: 2, Meta: map[string]any{"category": "grammar"}},
		{RuleName: "long", Start: 0, End: 3, Meta: map[string]any{"category": "grammar"}},
		{RuleName: "other", Start: 1, End: 2, Meta: map[string]any{"category": "style"}},
		{RuleName: "disjoint", Start: 5, End: 6, Meta: map[string]any{"category": "grammar"}},
	}

	kept := FilterByCategory(spans, "category")
	var names []string
	for _, sp := range kept {
		names = append(names, sp.RuleName)
	}
	// "short" loses to the longer overlapping span in its own category;
	// "other" survives because it competes in a different category
	assert.Equal(t, []string{"long", "other", "disjoint"}, names)
}

func TestMatchIdempotent(t *testing.T) {
	rm := matcher(t, extractRule)
	seq, err := annotator().Annotate("She extracts revenge.")
	require.NoError(t, err)

	first := rm.Match(seq)
	second := rm.Match(seq)
	// span ids are fresh per call, everything else is stable
	ignoreID := cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".ID"
	}, cmp.Ignore())
	if diff := cmp.Diff(first, second, ignoreID); diff != "" {
		t.Fatalf("matches differ between runs:\n%s", diff)
	}
}

func TestIndependentMatchersAgree(t *testing.T) {
	seq, err := annotator().Annotate("She extracts revenge.")
	require.NoError(t, err)

	// two matchers built from scratch off the same rule configuration
	first := matcher(t, extractRule).Match(seq)
	second := matcher(t, extractRule).Match(seq)
	require.NotEmpty(t, first)

	ignoreID := cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".ID"
	}, cmp.Ignore())
	if diff := cmp.Diff(first, second, ignoreID); diff != "" {
		t.Fatalf("matches differ between matchers:\n%s", diff)
	}
}

func TestConcurrentChecks(t *testing.T) {
	rm := matcher(t, extractRule)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				spans, err := rm.Check("She extracts revenge.")
				assert.NoError(t, err)
				assert.Len(t, spans, 1)
			}
		}()
	}
	wg.Wait()
}

func TestCheckWithoutAnnotator(t *testing.T) {
	set, err := rules.LoadJSON(strings.NewReader(extractRule))
	require.NoError(t, err)
	rm, err := New(set, hooks.NewRegistry(), inflect.NewEngine(nil), nil)
	require.NoError(t, err)

	_, err = rm.Check("anything")
	require.Error(t, err)
	_, err = rm.RunFixtures()
	require.Error(t, err)
}

func TestNewRejectsBadRules(t *testing.T) {
	set, err := rules.LoadJSON(strings.NewReader(`{
		"bad": {
			"patterns": [{"LOWER": "a"}],
			"match_hook": [{"name": "no_such_hook"}]
		}
	}`))
	require.NoError(t, err)
	_, err = New(set, hooks.NewRegistry(), inflect.NewEngine(nil), annotator())
	require.Error(t, err)
}
