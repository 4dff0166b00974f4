package inflect

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadForms reads a JSON forms file shaped {lemma: {tag: form}} into an
// in-memory MapStore.
func LoadForms(path string) (MapStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read forms: %w", err)
	}
	var store MapStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parse forms %s: %w", path, err)
	}
	return store, nil
}
