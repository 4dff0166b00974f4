package inflect

import "strings"

// irregulars covers the common English irregular verbs and plurals. Less
// common irregulars belong in an external forms file.
var irregulars = map[string]map[string]string{
	"be":    {"VBZ": "is", "VBP": "are", "VBD": "was", "VBN": "been", "VBG": "being"},
	"have":  {"VBZ": "has", "VBD": "had", "VBN": "had", "VBG": "having"},
	"do":    {"VBZ": "does", "VBD": "did", "VBN": "done", "VBG": "doing"},
	"go":    {"VBZ": "goes", "VBD": "went", "VBN": "gone", "VBG": "going"},
	"say":   {"VBZ": "says", "VBD": "said", "VBN": "said"},
	"make":  {"VBD": "made", "VBN": "made"},
	"take":  {"VBD": "took", "VBN": "taken"},
	"eat":   {"VBD": "ate", "VBN": "eaten"},
	"get":   {"VBD": "got", "VBN": "gotten", "VBG": "getting"},
	"give":  {"VBD": "gave", "VBN": "given"},
	"know":  {"VBD": "knew", "VBN": "known"},
	"see":   {"VBD": "saw", "VBN": "seen"},
	"come":  {"VBD": "came", "VBN": "come"},
	"think": {"VBD": "thought", "VBN": "thought"},
	"find":  {"VBD": "found", "VBN": "found"},
	"keep":  {"VBD": "kept", "VBN": "kept"},
	"hold":  {"VBD": "held", "VBN": "held"},
	"write": {"VBD": "wrote", "VBN": "written"},
	"speak": {"VBD": "spoke", "VBN": "spoken"},
	"run":   {"VBD": "ran", "VBN": "run", "VBG": "running"},
	"sit":   {"VBD": "sat", "VBN": "sat", "VBG": "sitting"},
	"lead":  {"VBD": "led", "VBN": "led"},
	"read":  {"VBD": "read", "VBN": "read"},
	"grow":  {"VBD": "grew", "VBN": "grown"},
	"lose":  {"VBD": "lost", "VBN": "lost"},
	"fall":  {"VBD": "fell", "VBN": "fallen"},
	"break": {"VBD": "broke", "VBN": "broken"},
	"buy":   {"VBD": "bought", "VBN": "bought"},
	"wear":  {"VBD": "wore", "VBN": "worn"},

	"person": {"NNS": "people"},
	"ox":     {"NNS": "oxen"},
	"child":  {"NNS": "children"},
	"man":    {"NNS": "men"},
	"woman":  {"NNS": "women"},
	"foot":   {"NNS": "feet"},
	"tooth":  {"NNS": "teeth"},
	"mouse":  {"NNS": "mice"},
}

func lookupIrregular(lemma, tag string) (string, bool) {
	forms, ok := irregulars[strings.ToLower(lemma)]
	if !ok {
		return "", false
	}
	form, ok := forms[tag]
	return form, ok
}

// inflectRegular applies regular English morphology for the Penn
// Treebank tags the engine understands. It reports false for tags it
// cannot cover, leaving the decision to the caller.
func inflectRegular(lemma, tag string) (string, bool) {
	switch tag {
	case "VB", "VBP", "NN", "JJ", "RB", "MD":
		return lemma, true
	case "VBZ":
		return sibilantSuffix(lemma), true
	case "NNS":
		return sibilantSuffix(lemma), true
	case "VBD", "VBN":
		return pastSuffix(lemma), true
	case "VBG":
		return gerundSuffix(lemma), true
	case "JJR":
		return comparativeSuffix(lemma, "er"), true
	case "JJS":
		return comparativeSuffix(lemma, "est"), true
	default:
		return "", false
	}
}

// sibilantSuffix forms third-person-singular verbs and regular plurals:
// watch -> watches, fly -> flies, go -> goes, exact -> exacts.
func sibilantSuffix(w string) string {
	switch {
	case hasAnySuffix(w, "s", "x", "z", "ch", "sh", "o"):
		return w + "es"
	case endsConsonantY(w):
		return w[:len(w)-1] + "ies"
	default:
		return w + "s"
	}
}

// pastSuffix forms the regular past/past-participle:
// require -> required, try -> tried, exact -> exacted.
func pastSuffix(w string) string {
	switch {
	case strings.HasSuffix(w, "e"):
		return w + "d"
	case endsConsonantY(w):
		return w[:len(w)-1] + "ied"
	default:
		return w + "ed"
	}
}

// gerundSuffix forms the present participle:
// die -> dying, make -> making, extract -> extracting.
func gerundSuffix(w string) string {
	switch {
	case strings.HasSuffix(w, "ie"):
		return w[:len(w)-2] + "ying"
	case strings.HasSuffix(w, "e") && !hasAnySuffix(w, "ee", "oe", "ye"):
		return w[:len(w)-1] + "ing"
	default:
		return w + "ing"
	}
}

func comparativeSuffix(w, suffix string) string {
	switch {
	case strings.HasSuffix(w, "e"):
		return w + suffix[1:]
	case endsConsonantY(w):
		return w[:len(w)-1] + "i" + suffix
	default:
		return w + suffix
	}
}

func hasAnySuffix(w string, suffixes ...string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(w, s) {
			return true
		}
	}
	return false
}

func endsConsonantY(w string) bool {
	if !strings.HasSuffix(w, "y") || len(w) < 2 {
		return false
	}
	switch w[len(w)-2] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	}
	return true
}
