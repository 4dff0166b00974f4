package hooks

import (
	"fmt"
	"strings"
	"unicode"

	"replacy/internal/annotate"
)

// registerBuiltins installs the stock hooks. Neighbor-probing hooks skip
// whitespace tokens and report false instead of panicking when the span
// touches a sequence boundary.
func registerBuiltins(r *Registry) {
	r.Register("succeeded_by_phrase", succeededByPhrase)
	r.Register("preceded_by_phrase", precededByPhrase)
	r.Register("surrounded_by_phrase", surroundedByPhrase)
	r.Register("succeeded_by_pos", nextAttrHook(func(t annotate.Token) string { return t.POS }, false))
	r.Register("preceded_by_pos", nextAttrHook(func(t annotate.Token) string { return t.POS }, true))
	r.Register("succeeded_by_dep", nextAttrHook(func(t annotate.Token) string { return t.Dep }, false))
	r.Register("preceded_by_dep", nextAttrHook(func(t annotate.Token) string { return t.Dep }, true))
	r.Register("part_of_compound", partOfCompound)
	r.Register("part_of_phrase", partOfPhrase)
	r.Register("sentence_contains", sentenceContains)
	r.Register("relative_x_is_y", relativeXIsY)
	r.Register("succeeded_by_num", succeededByNum)
	r.Register("succeeded_by_currency", succeededByCurrency)
}

func succeededByPhrase(arg any) (Predicate, error) {
	phrases, err := stringOrList(arg)
	if err != nil {
		return nil, err
	}
	return func(seq []annotate.Token, start, end int) bool {
		after := strings.ToLower(annotate.TextAfter(seq, end))
		for _, p := range phrases {
			if strings.HasPrefix(after, strings.ToLower(p)) {
				return true
			}
		}
		return false
	}, nil
}

func precededByPhrase(arg any) (Predicate, error) {
	phrases, err := stringOrList(arg)
	if err != nil {
		return nil, err
	}
	return func(seq []annotate.Token, start, end int) bool {
		before := strings.ToLower(annotate.TextBefore(seq, start))
		for _, p := range phrases {
			if strings.HasSuffix(before, strings.ToLower(p)) {
				return true
			}
		}
		return false
	}, nil
}

func surroundedByPhrase(arg any) (Predicate, error) {
	phrase, ok := arg.(string)
	if !ok {
		return nil, fmt.Errorf("expected a string, got %T", arg)
	}
	lower := strings.ToLower(phrase)
	return func(seq []annotate.Token, start, end int) bool {
		precedes := strings.HasSuffix(strings.ToLower(annotate.TextBefore(seq, start)), lower)
		follows := strings.HasPrefix(strings.ToLower(annotate.TextAfter(seq, end)), lower)
		return precedes && follows
	}, nil
}

// nextAttrHook builds the preceded/succeeded POS and dependency checks.
// before selects the token just left of the span instead of just right.
func nextAttrHook(attr func(annotate.Token) string, before bool) Factory {
	return func(arg any) (Predicate, error) {
		values, err := stringOrList(arg)
		if err != nil {
			return nil, err
		}
		return func(seq []annotate.Token, start, end int) bool {
			var idx int
			if before {
				idx = prevNonSpace(seq, start-1)
			} else {
				idx = nextNonSpace(seq, end)
			}
			if idx < 0 {
				return false
			}
			got := attr(seq[idx])
			for _, v := range values {
				if got == v {
					return true
				}
			}
			return false
		}, nil
	}
}

func partOfCompound(arg any) (Predicate, error) {
	if arg != nil {
		return nil, fmt.Errorf("takes no argument")
	}
	return func(seq []annotate.Token, start, end int) bool {
		if start < 0 || start >= len(seq) {
			return false
		}
		if seq[start].Dep == "compound" {
			return true
		}
		for i := range seq {
			if i != start && seq[i].Dep == "compound" && seq[i].Head == start {
				return true
			}
		}
		return false
	}, nil
}

// partOfPhrase reports whether the matched span sits inside an
// occurrence of the given phrase in the sequence text.
func partOfPhrase(arg any) (Predicate, error) {
	phrase, ok := arg.(string)
	if !ok || phrase == "" {
		return nil, fmt.Errorf("expected a non-empty string, got %T", arg)
	}
	lower := strings.ToLower(phrase)
	return func(seq []annotate.Token, start, end int) bool {
		if start >= end {
			return false
		}
		full := strings.ToLower(annotate.Text(seq, 0, len(seq)))
		spanStart := len(annotate.Text(seq, 0, start))
		if start > 0 {
			spanStart += len(seq[start-1].Whitespace)
		}
		spanEnd := spanStart + len(annotate.Text(seq, start, end))
		for from := 0; ; {
			i := strings.Index(full[from:], lower)
			if i < 0 {
				return false
			}
			occStart := from + i
			occEnd := occStart + len(lower)
			if occStart <= spanStart && spanEnd <= occEnd {
				return true
			}
			from = occStart + 1
		}
	}, nil
}

func sentenceContains(arg any) (Predicate, error) {
	words, err := stringOrList(arg)
	if err != nil {
		return nil, err
	}
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	return func(seq []annotate.Token, start, end int) bool {
		for _, t := range seq {
			tl := strings.ToLower(t.Text)
			for _, w := range lowered {
				if tl == w {
					return true
				}
			}
		}
		return false
	}, nil
}

// relativeXIsY checks the dependency tree around a single matched token:
// args is [relation, attribute, value] where relation is "children" or
// "ancestors" and attribute is "pos" or "dep". True if any node reached
// via the relation has the attribute equal to the value.
func relativeXIsY(arg any) (Predicate, error) {
	parts, err := stringOrList(arg)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected [relation, attribute, value], got %d items", len(parts))
	}
	relation, attribute, value := parts[0], parts[1], parts[2]
	if relation != "children" && relation != "ancestors" {
		return nil, fmt.Errorf("relation must be children or ancestors, got %q", relation)
	}
	if attribute != "pos" && attribute != "dep" {
		return nil, fmt.Errorf("attribute must be pos or dep, got %q", attribute)
	}
	return func(seq []annotate.Token, start, end int) bool {
		// only meaningful for single-token spans
		if end-start != 1 || start < 0 || start >= len(seq) {
			return false
		}
		var relatives []int
		if relation == "children" {
			relatives = annotate.Children(seq, start)
		} else {
			relatives = annotate.Ancestors(seq, start)
		}
		for _, i := range relatives {
			var got string
			if attribute == "pos" {
				got = seq[i].POS
			} else {
				got = seq[i].Dep
			}
			if got == value {
				return true
			}
		}
		return false
	}, nil
}

func succeededByNum(arg any) (Predicate, error) {
	if arg != nil {
		return nil, fmt.Errorf("takes no argument")
	}
	return func(seq []annotate.Token, start, end int) bool {
		idx := nextNonSpace(seq, end)
		if idx < 0 {
			return false
		}
		t := seq[idx]
		if t.POS == "NUM" || t.Tag == "CD" {
			return true
		}
		for _, r := range t.Text {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return t.Text != ""
	}, nil
}

var currencySymbols = map[string]bool{
	"$": true, "€": true, "£": true, "¥": true, "₽": true, "₹": true,
}

func succeededByCurrency(arg any) (Predicate, error) {
	if arg != nil {
		return nil, fmt.Errorf("takes no argument")
	}
	return func(seq []annotate.Token, start, end int) bool {
		idx := nextNonSpace(seq, end)
		if idx < 0 {
			return false
		}
		return currencySymbols[seq[idx].Text]
	}, nil
}

func nextNonSpace(seq []annotate.Token, i int) int {
	for ; i < len(seq); i++ {
		if i >= 0 && !seq[i].IsSpace() {
			return i
		}
	}
	return -1
}

func prevNonSpace(seq []annotate.Token, i int) int {
	for ; i >= 0; i-- {
		if i < len(seq) && !seq[i].IsSpace() {
			return i
		}
	}
	return -1
}
