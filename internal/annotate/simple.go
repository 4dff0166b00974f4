package annotate

import (
	"strings"
	"unicode"
)

// Analysis is one lexicon entry for the Simple annotator.
type Analysis struct {
	Lemma string
	POS   string
	Tag   string
	Dep   string
}

// Simple is a lexicon-driven annotator. It splits words and punctuation,
// keeps noisy whitespace as dedicated whitespace tokens, and tags words
// from a caller-supplied lexicon with light suffix heuristics as a
// fallback. It does not parse: every token is its own dependency root
// unless the lexicon says otherwise. It exists so the CLI and the test
// suite have a deterministic annotation source; production callers are
// expected to plug in a real pipeline behind the Annotator interface.
type Simple struct {
	lexicon map[string]Analysis
}

// closedClass covers the function words the demo texts keep running into.
var closedClass = map[string]Analysis{
	"a":    {Lemma: "a", POS: "DET", Tag: "DT"},
	"an":   {Lemma: "an", POS: "DET", Tag: "DT"},
	"the":  {Lemma: "the", POS: "DET", Tag: "DT"},
	"i":    {Lemma: "I", POS: "PRON", Tag: "PRP"},
	"she":  {Lemma: "she", POS: "PRON", Tag: "PRP"},
	"he":   {Lemma: "he", POS: "PRON", Tag: "PRP"},
	"it":   {Lemma: "it", POS: "PRON", Tag: "PRP"},
	"they": {Lemma: "they", POS: "PRON", Tag: "PRP"},
	"we":   {Lemma: "we", POS: "PRON", Tag: "PRP"},
	"her":  {Lemma: "her", POS: "PRON", Tag: "PRP$"},
	"his":  {Lemma: "his", POS: "PRON", Tag: "PRP$"},
	"and":  {Lemma: "and", POS: "CCONJ", Tag: "CC"},
	"with": {Lemma: "with", POS: "ADP", Tag: "IN"},
	"on":   {Lemma: "on", POS: "ADP", Tag: "IN"},
	"in":   {Lemma: "in", POS: "ADP", Tag: "IN"},
	"of":   {Lemma: "of", POS: "ADP", Tag: "IN"},
	"to":   {Lemma: "to", POS: "PART", Tag: "TO"},
	"is":   {Lemma: "be", POS: "AUX", Tag: "VBZ"},
	"was":  {Lemma: "be", POS: "AUX", Tag: "VBD"},
	"are":  {Lemma: "be", POS: "AUX", Tag: "VBP"},
}

// NewSimple builds a Simple annotator. Entries in lexicon are keyed by
// lowercased surface form and take precedence over the built-in
// closed-class words.
func NewSimple(lexicon map[string]Analysis) *Simple {
	merged := make(map[string]Analysis, len(closedClass)+len(lexicon))
	for k, v := range closedClass {
		merged[k] = v
	}
	for k, v := range lexicon {
		merged[strings.ToLower(k)] = v
	}
	return &Simple{lexicon: merged}
}

// Annotate implements Annotator.
func (s *Simple) Annotate(text string) ([]Token, error) {
	var tokens []Token
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			run := string(runes[i:j])
			if run == " " && len(tokens) > 0 {
				// a lone standard space is carried as trailing
				// whitespace, the way annotation pipelines report it
				tokens[len(tokens)-1].Whitespace = " "
			} else {
				tokens = append(tokens, Token{
					Text:  run,
					Lemma: run,
					POS:   "SPACE",
					Tag:   "_SP",
				})
			}
			i = j
		case isWordRune(r):
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			word := string(runes[i:j])
			tokens = append(tokens, s.analyzeWord(word))
			i = j
		default:
			tokens = append(tokens, Token{
				Text:  string(r),
				Lemma: string(r),
				POS:   "PUNCT",
				Tag:   punctTag(r),
			})
			i++
		}
	}
	for idx := range tokens {
		tokens[idx].Index = idx
		tokens[idx].Head = idx
	}
	return tokens, nil
}

func (s *Simple) analyzeWord(word string) Token {
	lower := strings.ToLower(word)
	if a, ok := s.lexicon[lower]; ok {
		return Token{Text: word, Lemma: a.Lemma, POS: a.POS, Tag: a.Tag, Dep: a.Dep}
	}
	if isNumeric(lower) {
		return Token{Text: word, Lemma: lower, POS: "NUM", Tag: "CD"}
	}
	// suffix heuristics against known base forms
	for _, g := range []struct {
		suffix   string
		verbTag  string
		nounTag  string
		restoreE bool
	}{
		{suffix: "ies", verbTag: "VBZ", nounTag: "NNS"},
		{suffix: "es", verbTag: "VBZ", nounTag: "NNS"},
		{suffix: "s", verbTag: "VBZ", nounTag: "NNS"},
		{suffix: "ed", verbTag: "VBD"},
		{suffix: "ing", verbTag: "VBG", restoreE: true},
	} {
		base, ok := strings.CutSuffix(lower, g.suffix)
		if !ok || base == "" {
			continue
		}
		if g.suffix == "ies" {
			base += "y"
		}
		candidates := []string{base}
		if g.restoreE || g.suffix == "ed" {
			candidates = append(candidates, base+"e")
		}
		for _, cand := range candidates {
			a, known := s.lexicon[cand]
			if !known {
				continue
			}
			switch a.POS {
			case "VERB", "AUX":
				if g.verbTag != "" {
					return Token{Text: word, Lemma: a.Lemma, POS: a.POS, Tag: g.verbTag, Dep: a.Dep}
				}
			case "NOUN":
				if g.nounTag != "" {
					return Token{Text: word, Lemma: a.Lemma, POS: a.POS, Tag: g.nounTag, Dep: a.Dep}
				}
			}
		}
	}
	return Token{Text: word, Lemma: lower, POS: "X", Tag: ""}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-'
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return s != ""
}

func punctTag(r rune) string {
	switch r {
	case '.', '!', '?':
		return "."
	case ',':
		return ","
	case ':', ';':
		return ":"
	default:
		return "SYM"
	}
}
