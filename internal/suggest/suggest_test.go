package suggest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replacy/internal/annotate"
	"replacy/internal/hooks"
	"replacy/internal/inflect"
	"replacy/internal/match"
	"replacy/internal/rules"
)

func annotator() *annotate.Simple {
	return annotate.NewSimple(map[string]annotate.Analysis{
		"extract": {Lemma: "extract", POS: "VERB", Tag: "VB"},
		"require": {Lemma: "require", POS: "VERB", Tag: "VB"},
		"sort":    {Lemma: "sort", POS: "NOUN", Tag: "NN"},
		"of":      {Lemma: "of", POS: "ADP", Tag: "IN"},
		"thing":   {Lemma: "thing", POS: "NOUN", Tag: "NN"},
		"xyzzy":   {Lemma: "xyzzy", POS: "X", Tag: "FW"},
	})
}

// matchRule compiles one rule, annotates text and returns the first
// match plus everything needed to generate suggestions for it.
func matchRule(t *testing.T, ruleJSON, text string) ([]annotate.Token, *match.Match, *rules.Rule) {
	t.Helper()
	set, err := rules.LoadJSON(strings.NewReader(ruleJSON))
	require.NoError(t, err)
	compiled, err := match.Compile(set, hooks.NewRegistry(), false, nil)
	require.NoError(t, err)

	seq, err := annotator().Annotate(text)
	require.NoError(t, err)
	matches := compiled.FindMatches(seq)
	require.NotEmpty(t, matches, "rule did not match %q", text)

	rule := set.Rules()[0]
	return seq, &matches[0], rule
}

func generator() *Generator {
	return NewGenerator(inflect.NewEngine(nil), 0, nil)
}

func TestGenerateLiteralText(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"sorta": {
			"patterns": [{"LOWER": "sorta"}],
			"suggestions": [[{"TEXT": "sort of"}], [{"TEXT": "kind of"}]]
		}
	}`, "sorta")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 2)
	assert.Equal(t, Suggestion{Text: "sort of"}, got[0])
	assert.Equal(t, Suggestion{Text: "kind of"}, got[1])
}

func TestGenerateInflectedFromTemplate(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"extract-revenge": {
			"patterns": [{"LEMMA": "extract", "TEMPLATE_ID": 1}],
			"suggestions": [[{"TEXT": "exact", "FROM_TEMPLATE_ID": 1}]]
		}
	}`, "She extracts revenge.")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 1)
	// "extracts" carries VBZ, so "exact" is rendered third person singular
	assert.Equal(t, "exacts", got[0].Text)
	assert.False(t, got[0].Unverified)
}

func TestGenerateReinflectedCopy(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"needs-past": {
			"patterns": [{"LEMMA": "require"}],
			"suggestions": [[{"PATTERN_REF": 0, "INFLECTION": "VBN"}]]
		}
	}`, "they require it")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "required", got[0].Text)
}

func TestGenerateCopyRoundTrip(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"echo": {
			"patterns": [{"LOWER": "sort"}, {"LOWER": "of"}, {"LOWER": "thing"}],
			"suggestions": [[{"PATTERN_REF": 0}, {"PATTERN_REF": 1}, {"PATTERN_REF": 2}]]
		}
	}`, "a sort of thing")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 1)
	assert.Equal(t, annotate.Text(seq, m.Start, m.End), got[0].Text)
}

func TestSeparatorKeepsOriginalWhitespace(t *testing.T) {
	seq := []annotate.Token{
		{Text: "sort", Whitespace: "\n", Index: 0, Head: 0},
		{Text: "of", Index: 1, Head: 1},
	}
	// adjacent copies are re-joined with the whitespace that separated
	// the underlying tokens, not a normalized space
	pieces := []piece{
		{options: []string{"sort"}, span: &match.Span{Start: 0, End: 1}},
		{options: []string{"of"}, span: &match.Span{Start: 1, End: 2}},
	}
	got := generator().joinVariants(seq, pieces)
	require.Len(t, got, 1)
	assert.Equal(t, "sort\nof", got[0].Text)
}

func TestGenerateCopyKeepsPunctuationTight(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"echo-comma": {
			"patterns": [{"LOWER": "sort"}, {"TEXT": ","}],
			"suggestions": [[{"PATTERN_REF": 0}, {"PATTERN_REF": 1}]]
		}
	}`, "a sort, of thing")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 1)
	// no space is injected between a word and the punctuation that
	// followed it in the input
	assert.Equal(t, "sort,", got[0].Text)
}

func TestGenerateNegativeReference(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"last-token": {
			"patterns": [{"LOWER": "sort"}, {"LOWER": "of"}, {"LOWER": "thing"}],
			"suggestions": [[{"TEXT": "one"}, {"PATTERN_REF": -1}]]
		}
	}`, "a sort of thing")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "one thing", got[0].Text)
}

func TestGenerateCopyRegexRewrite(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"depluralize": {
			"patterns": [{"LOWER": {"REGEX": "^(thing)s$"}}],
			"suggestions": [[{"PATTERN_REF": 0, "REGEX": "${1}y"}]]
		}
	}`, "Things happen")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 1)
	// the rewrite matches the reference's own REGEX constraint without
	// regard to case; the capture keeps the surface form
	assert.Equal(t, "Thingy", got[0].Text)
}

func TestGenerateMaxCountPinsCappedSlot(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"capped": {
			"patterns": [{"LOWER": "thing"}],
			"suggestions": [[
				{"TEXT": {"IN": ["a", "b"]}, "MAX_COUNT": 1},
				{"TEXT": {"IN": ["x", "y"]}}
			]]
		}
	}`, "thing")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 2)
	// per combination of the other slots, only one value survives at
	// the capped slot
	assert.Equal(t, "a x", got[0].Text)
	assert.Equal(t, "a y", got[1].Text)
}

func TestGenerateMaxCountMutualExclusion(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"exclusive": {
			"patterns": [{"LOWER": "thing"}],
			"suggestions": [[
				{"TEXT": {"IN": ["a", "b"]}, "MAX_COUNT": 1},
				{"TEXT": {"IN": ["x", "y"]}, "MAX_COUNT": 1}
			]]
		}
	}`, "thing")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 2)
	assert.Equal(t, "a x", got[0].Text)
	assert.Equal(t, "b y", got[1].Text)
}

func TestGenerateMixedPieces(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"wrap": {
			"patterns": [{"LOWER": "thing", "OP": "+"}],
			"suggestions": [[{"TEXT": "the"}, {"PATTERN_REF": 0, "SUFFIX": "!"}]]
		}
	}`, "thing")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "the thing!", got[0].Text)
}

func TestGenerateTextOptions(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"opts": {
			"patterns": [{"LOWER": "thing"}],
			"suggestions": [[{"TEXT": {"IN": ["item", "object"]}}, {"TEXT": "here"}]]
		}
	}`, "thing")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 2)
	assert.Equal(t, "item here", got[0].Text)
	assert.Equal(t, "object here", got[1].Text)
}

func TestGenerateVariantCap(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"many": {
			"patterns": [{"LOWER": "thing"}],
			"suggestions": [[
				{"TEXT": {"IN": ["a", "b", "c"]}},
				{"TEXT": {"IN": ["x", "y", "z"]}}
			]]
		}
	}`, "thing")

	capped := NewGenerator(inflect.NewEngine(nil), 4, nil)
	got := capped.Generate(seq, m, rule)
	assert.Len(t, got, 4)
}

func TestGenerateCaseOps(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"cased": {
			"patterns": [{"LOWER": "thing"}],
			"suggestions": [
				[{"TEXT": "sort of", "OP": "TITLE"}],
				[{"TEXT": "Sort", "OP": "lower"}],
				[{"TEXT": "sort", "OP": "upper"}]
			]
		}
	}`, "thing")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 3)
	assert.Equal(t, "Sort Of", got[0].Text)
	assert.Equal(t, "sort", got[1].Text)
	assert.Equal(t, "SORT", got[2].Text)
}

func TestGenerateUnverifiedFallback(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"odd": {
			"patterns": [{"LOWER": "xyzzy", "TEMPLATE_ID": 1}],
			"suggestions": [[{"TEXT": "borogove", "FROM_TEMPLATE_ID": 1}]]
		}
	}`, "xyzzy")

	// "xyzzy" carries the FW tag, which no inflection source covers, so
	// the lemma comes back unchanged and flagged
	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "borogove", got[0].Text)
	assert.True(t, got[0].Unverified)
}

func TestGenerateZeroWidthReferenceSkipped(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"optional": {
			"patterns": [{"LOWER": "sort"}, {"LOWER": "of", "OP": "?"}],
			"suggestions": [[{"PATTERN_REF": 0}, {"PATTERN_REF": 1}]]
		}
	}`, "sort")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "sort", got[0].Text)
}

func TestGenerateUnboundTemplateKeepsLiteral(t *testing.T) {
	seq, m, rule := matchRule(t, `{
		"maybe": {
			"patterns": [{"LOWER": "sort"}, {"LOWER": "of", "OP": "?", "TEMPLATE_ID": 1}],
			"suggestions": [[{"TEXT": "kind", "FROM_TEMPLATE_ID": 1}]]
		}
	}`, "sort")

	got := generator().Generate(seq, m, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "kind", got[0].Text)
}
