package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PushedSet is the durable record of identifiers already delivered to the
// chat, used to suppress repeats across daily runs. It is persisted as a
// JSON array of lower-case identifier strings.
type PushedSet struct {
	ids map[string]struct{}
}

// NewPushedSet returns an empty set.
func NewPushedSet() *PushedSet {
	return &PushedSet{ids: map[string]struct{}{}}
}

// Load reads the persisted set from path. A missing file, unreadable file,
// or malformed content all yield an empty set: losing history degrades to
// re-considering old articles, which is recoverable, while aborting the run
// is not.
func Load(path string) *PushedSet {
	set := NewPushedSet()

	raw, err := os.ReadFile(path)
	if err != nil {
		return set
	}

	var entries []string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return set
	}

	for _, entry := range entries {
		set.Add(entry)
	}
	return set
}

// Contains reports whether the identifier was already delivered. An empty
// identifier never matches: an article lacking any identifier must not be
// treated as already sent.
func (s *PushedSet) Contains(id string) bool {
	id = normalize(id)
	if id == "" {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Add records an identifier. Blank identifiers are ignored.
func (s *PushedSet) Add(id string) {
	id = normalize(id)
	if id == "" {
		return
	}
	if s.ids == nil {
		s.ids = map[string]struct{}{}
	}
	s.ids[id] = struct{}{}
}

// Len returns the number of recorded identifiers.
func (s *PushedSet) Len() int {
	return len(s.ids)
}

// Identifiers returns the normalized identifiers in sorted order.
func (s *PushedSet) Identifiers() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Persist writes the set to path, fully replacing prior content. The write
// goes through a temp file renamed into place so a crash mid-write cannot
// leave a truncated store. Idempotent for identical input.
func (s *PushedSet) Persist(path string) error {
	payload, err := json.MarshalIndent(s.Identifiers(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pushed set: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pushed-*.json")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write pushed set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp store: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store: %w", err)
	}

	return nil
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
