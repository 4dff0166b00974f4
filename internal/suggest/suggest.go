// Package suggest renders a rule's suggestion templates against an
// accepted match: literal text is kept, pattern references copy matched
// surface text, and the inflection engine conjugates replacement lemmas
// to agree with what was matched.
package suggest

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"replacy/internal/annotate"
	"replacy/internal/inflect"
	"replacy/internal/match"
	"replacy/internal/rules"
)

// Suggestion is one rendered replacement string. Unverified is set when
// any inflection in it fell back to an unchanged lemma.
type Suggestion struct {
	Text       string
	Unverified bool
}

// Generator renders suggestions for matches. Safe for concurrent use.
type Generator struct {
	inflector   *inflect.Engine
	maxVariants int
	logger      *zap.Logger
}

// NewGenerator builds a generator. maxVariants caps how many variant
// strings one suggestion alternative may expand to through TEXT {IN}
// options; zero means the default of 16. logger may be nil.
func NewGenerator(inflector *inflect.Engine, maxVariants int, logger *zap.Logger) *Generator {
	if maxVariants <= 0 {
		maxVariants = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{inflector: inflector, maxVariants: maxVariants, logger: logger}
}

// Generate renders every suggestion alternative of the matched rule, in
// declaration order. Each alternative yields one suggestion per variant
// combination of its TEXT options.
func (g *Generator) Generate(seq []annotate.Token, m *match.Match, r *rules.Rule) []Suggestion {
	var out []Suggestion
	for _, alt := range r.Suggestions {
		out = append(out, g.renderAlternative(seq, m, r, alt)...)
	}
	return out
}

// piece is one resolved suggestion token: its text options plus, for a
// copy, the token span it came from so adjacent copies can be rejoined
// with the original whitespace.
type piece struct {
	options    []string
	span       *match.Span
	maxCount   int
	unverified bool
}

func (g *Generator) renderAlternative(seq []annotate.Token, m *match.Match, r *rules.Rule, alt []rules.SuggestionToken) []Suggestion {
	pieces := make([]piece, 0, len(alt))
	for _, st := range alt {
		p := g.resolveToken(seq, m, r, st)
		if len(p.options) == 0 {
			// a zero-width reference contributes nothing
			continue
		}
		p.maxCount = st.MaxCount
		pieces = append(pieces, p)
	}
	if len(pieces) == 0 {
		return nil
	}
	return g.joinVariants(seq, pieces)
}

func (g *Generator) resolveToken(seq []annotate.Token, m *match.Match, r *rules.Rule, st rules.SuggestionToken) piece {
	switch st.Kind {
	case rules.SuggestText:
		return piece{options: applyCase(st.CaseOp, textOptions(st))}

	case rules.SuggestCopy:
		ref := patternRef(st, m)
		sp := m.PatternSpans[ref]
		if sp.Start >= sp.End {
			return piece{}
		}
		text := annotate.Text(seq, sp.Start, sp.End)
		if st.Regex != "" {
			text = g.rewriteCopy(r, m, ref, st.Regex, text)
		}
		text += st.Suffix
		return piece{options: applyCase(st.CaseOp, []string{text}), span: &sp}

	case rules.SuggestInflectText:
		idx, bound := m.Bindings[st.FromTemplateID]
		if !bound {
			// the template position matched zero tokens; emit the text as-is
			g.logger.Debug("template id unbound in match, keeping literal text",
				zap.String("rule", m.RuleName),
				zap.Int("template_id", st.FromTemplateID))
			return piece{options: applyCase(st.CaseOp, textOptions(st))}
		}
		tag := seq[idx].Tag
		var opts []string
		unverified := false
		for _, lemma := range textOptions(st) {
			res := g.inflector.Inflect(lemma, tag)
			opts = append(opts, res.Form)
			unverified = unverified || !res.Verified
		}
		return piece{options: applyCase(st.CaseOp, opts), unverified: unverified}

	case rules.SuggestReinflectCopy:
		sp := m.PatternSpans[patternRef(st, m)]
		if sp.Start >= sp.End {
			return piece{}
		}
		res := g.inflector.Inflect(seq[sp.Start].Lemma, st.Inflection)
		return piece{
			options:    applyCase(st.CaseOp, []string{res.Form}),
			unverified: !res.Verified,
		}

	default:
		return piece{}
	}
}

// patternRef resolves a possibly negative reference against the matched
// pattern. -1 is the last pattern position.
func patternRef(st rules.SuggestionToken, m *match.Match) int {
	if st.PatternRef < 0 {
		return len(m.PatternSpans) + st.PatternRef
	}
	return st.PatternRef
}

// rewriteCopy substitutes the replacement into the copied text wherever
// the referenced pattern token's own REGEX constraint matches, ignoring
// case. The constraint's presence is checked at compile time.
func (g *Generator) rewriteCopy(r *rules.Rule, m *match.Match, ref int, replacement, text string) string {
	src := r.Patterns[m.Pattern][ref].RegexSource()
	if src == "" {
		return text
	}
	re, err := regexp.Compile("(?i)" + src)
	if err != nil {
		g.logger.Warn("copy rewrite pattern does not compile",
			zap.String("rule", m.RuleName),
			zap.Error(err))
		return text
	}
	return re.ReplaceAllString(text, replacement)
}

// joinVariants expands the cartesian product of piece options and joins
// each combination into one suggestion string. Adjacent copies of
// neighboring token spans are re-joined with the whitespace that
// actually separated them; everything else gets a single space.
func (g *Generator) joinVariants(seq []annotate.Token, pieces []piece) []Suggestion {
	combos := [][]int{make([]int, len(pieces))}
	for i, p := range pieces {
		if len(p.options) <= 1 {
			continue
		}
		var grown [][]int
		for _, c := range combos {
			for oi := range p.options {
				next := make([]int, len(c))
				copy(next, c)
				next[i] = oi
				grown = append(grown, next)
				if len(grown) >= g.maxVariants {
					break
				}
			}
			if len(grown) >= g.maxVariants {
				break
			}
		}
		combos = grown
	}
	if len(combos) > g.maxVariants {
		combos = combos[:g.maxVariants]
	}
	combos = applyMaxCounts(pieces, combos)

	out := make([]Suggestion, 0, len(combos))
	for _, c := range combos {
		var b strings.Builder
		unverified := false
		for i, p := range pieces {
			if i > 0 {
				b.WriteString(separator(seq, pieces[i-1], p))
			}
			b.WriteString(p.options[c[i]])
			unverified = unverified || p.unverified
		}
		out = append(out, Suggestion{Text: b.String(), Unverified: unverified})
	}
	return out
}

// applyMaxCounts walks the combinations in order and enforces each
// capped piece's MAX_COUNT: once a combination is kept, any later
// combination that agrees with it everywhere except at a slot whose cap
// is exhausted is dropped. With a cap of 1 the first value chosen at
// that slot wins for its context.
func applyMaxCounts(pieces []piece, combos [][]int) [][]int {
	capped := false
	for _, p := range pieces {
		if p.maxCount > 0 && len(p.options) > 1 {
			capped = true
			break
		}
	}
	if !capped {
		return combos
	}

	var chosen [][]int
	rest := combos
	for len(rest) > 0 {
		elem := rest[0]
		chosen = append(chosen, elem)
		rest = rest[1:]
		for i, p := range pieces {
			if p.maxCount <= 0 || len(p.options) <= 1 {
				continue
			}
			used := 0
			for _, c := range chosen {
				if sameContext(elem, c, i) {
					used++
				}
			}
			if used < p.maxCount {
				continue
			}
			var kept [][]int
			for _, c := range rest {
				if !sameContext(elem, c, i) {
					kept = append(kept, c)
				}
			}
			rest = kept
		}
	}
	return chosen
}

// sameContext reports whether two combinations agree everywhere except
// possibly at slot i.
func sameContext(a, b []int, i int) bool {
	for j := range a {
		if j != i && a[j] != b[j] {
			return false
		}
	}
	return true
}

// separator returns what goes between two rendered pieces. Adjacent
// copies of neighboring token spans are re-joined with exactly the
// whitespace that separated the underlying tokens, which is empty for a
// word followed by its punctuation.
func separator(seq []annotate.Token, prev, cur piece) string {
	if prev.span != nil && cur.span != nil && prev.span.End == cur.span.Start {
		return seq[prev.span.End-1].Whitespace
	}
	return " "
}

func textOptions(st rules.SuggestionToken) []string {
	if len(st.TextOptions) > 0 {
		return st.TextOptions
	}
	return []string{st.Text}
}

func applyCase(op string, options []string) []string {
	if op == "" {
		return options
	}
	out := make([]string, len(options))
	for i, s := range options {
		switch op {
		case "LOWER":
			out[i] = strings.ToLower(s)
		case "UPPER":
			out[i] = strings.ToUpper(s)
		case "TITLE":
			out[i] = titleCase(s)
		default:
			out[i] = s
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
