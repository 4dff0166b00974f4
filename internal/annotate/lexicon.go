package annotate

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadLexicon reads a JSON lexicon mapping lowercased surface forms to
// their analysis, for feeding NewSimple:
//
//	{"extracts": {"lemma": "extract", "pos": "VERB", "tag": "VBZ"}}
func LoadLexicon(path string) (map[string]Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var raw map[string]struct {
		Lemma string `json:"lemma"`
		POS   string `json:"pos"`
		Tag   string `json:"tag"`
		Dep   string `json:"dep"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	lexicon := make(map[string]Analysis, len(raw))
	for word, a := range raw {
		lexicon[word] = Analysis{Lemma: a.Lemma, POS: a.POS, Tag: a.Tag, Dep: a.Dep}
	}
	return lexicon, nil
}
