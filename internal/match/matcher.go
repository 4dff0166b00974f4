package match

import (
	"sort"

	"go.uber.org/zap"

	"replacy/internal/annotate"
)

// Span is a half-open token range [Start, End).
type Span struct {
	Start int
	End   int
}

// Match is one accepted rule application on a token sequence.
type Match struct {
	// RuleName identifies the rule that produced the match.
	RuleName string
	// Start and End delimit the matched token span, end exclusive,
	// including any whitespace-tolerance tokens the pattern consumed.
	Start int
	End   int
	// PatternSpans records, per declared pattern position, the token
	// range it consumed. Zero-width positions (OP "?" or "*" matching
	// nothing) have Start == End.
	PatternSpans []Span
	// Pattern is the index of the pattern alternative that matched.
	Pattern int
	// Bindings maps a template id to the index of the first token
	// matched at that template's pattern position. Positions that
	// consumed no tokens are absent.
	Bindings map[int]int
}

// FindMatches scans the sequence with every compiled rule and returns
// the accepted matches ordered by span start, then rule insertion order,
// then span end. All admissible spans are reported: quantifiers emit
// every expansion length, overlapping matches are not deduplicated, and
// no span-priority resolution happens here. Rules stay independent and
// consumers apply their own policy if they need one.
//
// The scan never mutates the sequence or the compiled set, so any
// number of FindMatches calls may run concurrently over one set.
func (s *CompiledRuleSet) FindMatches(seq []annotate.Token) []Match {
	var out []Match
	for _, cr := range s.list {
		out = append(out, s.scanRule(cr, seq)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// scanRule finds all accepted spans for one rule. A panic anywhere in
// the rule's scan (a broken custom hook factory product, unexpected
// input shape) is isolated: the rule yields no matches and the failure
// is logged, but other rules keep matching.
func (s *CompiledRuleSet) scanRule(cr *CompiledRule, seq []annotate.Token) (matches []Match) {
	defer func() {
		if r := recover(); r != nil {
			matches = nil
			s.logger.Error("rule scan panicked, skipping rule",
				zap.String("rule", cr.Name),
				zap.Any("panic", r))
		}
	}()

	type spanKey struct{ start, end int }
	seen := make(map[spanKey]bool)

	for start := 0; start <= len(seq); start++ {
		for _, prog := range cr.programs {
			for _, res := range prog.run(seq, start) {
				if res.end == start {
					// zero-width matches are never useful
					continue
				}
				key := spanKey{start, res.end}
				if seen[key] {
					continue
				}
				seen[key] = true
				if !s.hooksAccept(cr, seq, start, res.end) {
					continue
				}
				matches = append(matches, buildMatch(cr, prog, start, res))
			}
		}
	}
	return matches
}

// hooksAccept applies every hook of the rule to the candidate span. The
// candidate survives only if each predicate's result equals its
// polarity flag. A predicate that panics counts as rejecting the
// candidate, and the failure is logged rather than swallowed.
func (s *CompiledRuleSet) hooksAccept(cr *CompiledRule, seq []annotate.Token, start, end int) bool {
	for _, h := range cr.hooks {
		got := s.safeEval(cr.Name, h, seq, start, end)
		if got != h.polarity {
			return false
		}
	}
	return true
}

func (s *CompiledRuleSet) safeEval(rule string, h compiledHook, seq []annotate.Token, start, end int) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			// reject the candidate, not the scan
			result = !h.polarity
			s.logger.Warn("hook panicked during evaluation",
				zap.String("rule", rule),
				zap.String("hook", h.name),
				zap.Int("start", start),
				zap.Int("end", end),
				zap.Any("panic", r))
		}
	}()
	return h.pred(seq, start, end)
}

func buildMatch(cr *CompiledRule, prog program, start int, res runResult) Match {
	m := Match{
		RuleName:     cr.Name,
		Start:        start,
		End:          res.end,
		PatternSpans: res.spans,
		Pattern:      prog.alt,
	}
	if len(prog.templates) > 0 {
		m.Bindings = make(map[int]int, len(prog.templates))
		for id, pos := range prog.templates {
			sp := res.spans[pos]
			if sp.Start < sp.End {
				m.Bindings[id] = sp.Start
			}
		}
	}
	return m
}

type runResult struct {
	end   int
	spans []Span
}

// run enumerates every way the program can consume tokens starting at
// start. Results come out shortest-expansion first; when two expansions
// cover the identical span, the caller keeps the first. Injected
// whitespace wildcards consume greedily without branching, so tolerance
// never multiplies the result set.
func (p program) run(seq []annotate.Token, start int) []runResult {
	var results []runResult
	spans := make([]Span, p.n)

	var step func(ti, pos int)
	step = func(ti, pos int) {
		if ti == len(p.tokens) {
			out := make([]Span, len(spans))
			copy(out, spans)
			results = append(results, runResult{end: pos, spans: out})
			return
		}
		ct := p.tokens[ti]
		record := func(a, b int) {
			if ct.patternPos >= 0 {
				spans[ct.patternPos] = Span{Start: a, End: b}
			}
		}
		switch ct.quant {
		case quantOne:
			if pos < len(seq) && ct.pred(seq[pos]) {
				record(pos, pos+1)
				step(ti+1, pos+1)
			}
		case quantOpt:
			if ct.ws {
				if pos < len(seq) && ct.pred(seq[pos]) {
					step(ti+1, pos+1)
				} else {
					step(ti+1, pos)
				}
				return
			}
			record(pos, pos)
			step(ti+1, pos)
			if pos < len(seq) && ct.pred(seq[pos]) {
				record(pos, pos+1)
				step(ti+1, pos+1)
			}
		case quantStar:
			record(pos, pos)
			step(ti+1, pos)
			for k := pos; k < len(seq) && ct.pred(seq[k]); k++ {
				record(pos, k+1)
				step(ti+1, k+1)
			}
		case quantPlus:
			for k := pos; k < len(seq) && ct.pred(seq[k]); k++ {
				record(pos, k+1)
				step(ti+1, k+1)
			}
		}
	}
	step(0, start)
	return results
}
