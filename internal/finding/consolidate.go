package finding

import (
	"sync"

	"github.com/google/uuid"
)

// Action is the outcome of consolidating two findings.
type Action int

const (
	// KeepBoth reports the new finding alongside the existing one.
	KeepBoth Action = iota
	// KeepExisting drops the new finding as a duplicate.
	KeepExisting
)

func (a Action) String() string {
	if a == KeepExisting {
		return "keep-existing"
	}
	return "keep-both"
}

// Consolidate returns KeepExisting iff both findings carry exactly the same
// name. URL and evidence are not consulted.
func Consolidate(newFinding, existing *Finding) Action {
	if newFinding.Name == existing.Name {
		return KeepExisting
	}
	return KeepBoth
}

// Store collects findings across scans, consolidating each new finding
// against the ones already recorded for the same base URL. It is safe for
// concurrent use.
type Store struct {
	mu          sync.Mutex
	consolidate ConsolidateFunc
	all         []*Finding
	byBase      map[string][]*Finding
}

// ConsolidateFunc decides whether a new finding duplicates an existing one.
type ConsolidateFunc func(newFinding, existing *Finding) Action

// NewStore returns an empty store that deduplicates with policy. A nil
// policy uses Consolidate.
func NewStore(policy ConsolidateFunc) *Store {
	if policy == nil {
		policy = Consolidate
	}
	return &Store{consolidate: policy, byBase: make(map[string][]*Finding)}
}

// Add records f unless consolidation keeps an existing finding instead.
// It returns the stored finding, with its ID assigned, and true when f was
// added.
func (s *Store) Add(f Finding) (*Finding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byBase[f.BaseURL] {
		if s.consolidate(&f, existing) == KeepExisting {
			return existing, false
		}
	}

	f.ID = uuid.NewString()
	stored := &f
	s.all = append(s.all, stored)
	s.byBase[f.BaseURL] = append(s.byBase[f.BaseURL], stored)
	return stored, true
}

// All returns the stored findings in insertion order.
func (s *Store) All() []*Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Finding(nil), s.all...)
}

// Len returns the number of stored findings.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.all)
}
