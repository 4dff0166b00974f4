// Package annotate fixes the shape of the annotated token stream this
// engine consumes. Tokenization, tagging and parsing are the job of an
// external annotation pipeline; the engine only reads the result. The
// package also ships a small lexicon-driven annotator used by the CLI
// and by tests; it is a stand-in, not a linguistic pipeline.
package annotate

import "strings"

// Token is one annotated unit of input text. Tokens are produced by the
// annotation collaborator and are never mutated by the engine.
type Token struct {
	// Text is the surface form as it appears in the input.
	Text string
	// Lemma is the dictionary form of the token.
	Lemma string
	// POS is the coarse part-of-speech tag, e.g. "VERB".
	POS string
	// Tag is the fine morphological tag, e.g. "VBZ".
	Tag string
	// Dep is the dependency relation label, e.g. "compound".
	Dep string
	// Head is the index of the token's dependency head. A root token
	// points at itself.
	Head int
	// Index is the 0-based position of the token in its sequence.
	Index int
	// Whitespace is the literal whitespace that followed the token in
	// the original text. Keeping it verbatim is what keeps character
	// offsets stable.
	Whitespace string
}

// IsSpace reports whether the token is a pure-whitespace token. Noisy
// input (doubled or non-standard spaces) is annotated as separate
// whitespace tokens rather than collapsed, so spans can still be mapped
// back onto the original text.
func (t Token) IsSpace() bool {
	return t.Text != "" && strings.TrimSpace(t.Text) == ""
}

// Text reconstructs the surface text of tokens[start:end], including
// each token's trailing whitespace except the last one's.
func Text(tokens []Token, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(tokens) {
		end = len(tokens)
	}
	if start >= end {
		return ""
	}
	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(tokens[i].Text)
		if i < end-1 {
			b.WriteString(tokens[i].Whitespace)
		}
	}
	return b.String()
}

// TextBefore returns the surface text strictly before tokens[start],
// trailing whitespace included. Used by phrase hooks that look at the
// left context of a span.
func TextBefore(tokens []Token, start int) string {
	if start <= 0 {
		return ""
	}
	if start > len(tokens) {
		start = len(tokens)
	}
	var b strings.Builder
	for i := 0; i < start; i++ {
		b.WriteString(tokens[i].Text)
		b.WriteString(tokens[i].Whitespace)
	}
	return strings.TrimRight(b.String(), " ")
}

// TextAfter returns the surface text from tokens[end] onward.
func TextAfter(tokens []Token, end int) string {
	if end < 0 {
		end = 0
	}
	if end >= len(tokens) {
		return ""
	}
	var b strings.Builder
	for i := end; i < len(tokens); i++ {
		b.WriteString(tokens[i].Text)
		if i < len(tokens)-1 {
			b.WriteString(tokens[i].Whitespace)
		}
	}
	return strings.TrimLeft(b.String(), " ")
}

// Children returns the indices of tokens whose dependency head is i,
// in sequence order.
func Children(tokens []Token, i int) []int {
	var out []int
	for j := range tokens {
		if j != i && tokens[j].Head == i {
			out = append(out, j)
		}
	}
	return out
}

// Ancestors returns the chain of dependency heads above token i, nearest
// first. The walk stops at a root token or after len(tokens) steps, so a
// malformed head cycle cannot loop forever.
func Ancestors(tokens []Token, i int) []int {
	var out []int
	cur := i
	for steps := 0; steps < len(tokens); steps++ {
		head := tokens[cur].Head
		if head == cur || head < 0 || head >= len(tokens) {
			break
		}
		out = append(out, head)
		cur = head
	}
	return out
}

// Annotator is the external annotation contract: it turns raw text into
// an ordered token sequence with whitespace preserved as tokens.
type Annotator interface {
	Annotate(text string) ([]Token, error)
}
