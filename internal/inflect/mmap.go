package inflect

import (
	"bytes"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// MmapStore serves a large tab-separated forms table
// ("lemma\ttag\tform" per line) straight from a memory-mapped file.
// Only a small offset index lives on the heap; form bytes stay in the
// mapping until a lookup hits them. The mapping is read-only and safe
// for concurrent lookups.
type MmapStore struct {
	f     *os.File
	data  mmap.MMap
	index map[string]span
}

type span struct {
	off, len int
}

// OpenMmap maps the forms file at path.
func OpenMmap(path string) (*MmapStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open forms: %w", err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap forms %s: %w", path, err)
	}

	s := &MmapStore{f: f, data: data, index: make(map[string]span)}
	if err := s.buildIndex(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *MmapStore) buildIndex() error {
	line := 0
	for off := 0; off < len(s.data); {
		line++
		nl := bytes.IndexByte(s.data[off:], '\n')
		end := len(s.data)
		if nl >= 0 {
			end = off + nl
		}
		row := s.data[off:end]
		if len(bytes.TrimSpace(row)) > 0 {
			t1 := bytes.IndexByte(row, '\t')
			if t1 < 0 {
				return fmt.Errorf("forms line %d: missing tab", line)
			}
			t2 := bytes.IndexByte(row[t1+1:], '\t')
			if t2 < 0 {
				return fmt.Errorf("forms line %d: missing second tab", line)
			}
			t2 += t1 + 1
			key := string(row[:t1]) + "\x00" + string(row[t1+1:t2])
			form := bytes.TrimRight(row[t2+1:], "\r")
			s.index[key] = span{off: off + t2 + 1, len: len(form)}
		}
		if nl < 0 {
			break
		}
		off = end + 1
	}
	return nil
}

// Lookup implements FormStore.
func (s *MmapStore) Lookup(lemma, tag string) (string, bool) {
	sp, ok := s.index[lemma+"\x00"+tag]
	if !ok {
		return "", false
	}
	return string(s.data[sp.off : sp.off+sp.len]), true
}

// Len reports the number of indexed forms.
func (s *MmapStore) Len() int { return len(s.index) }

// Close unmaps the file. Lookups must not race with Close.
func (s *MmapStore) Close() error {
	var first error
	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			first = err
		}
		s.data = nil
	}
	if s.f != nil {
		if err := s.f.Close(); err != nil && first == nil {
			first = err
		}
		s.f = nil
	}
	return first
}
