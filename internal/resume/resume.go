package resume

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/maxvaer/actuatorhunt/internal/scanner"
)

// State tracks which targets a multi-target run has finished so an
// interrupted run can pick up where it stopped.
type State struct {
	CompletedTargets []string `json:"completed_targets"`
	TotalTargets     int      `json:"total_targets"`

	mu   sync.Mutex
	path string
	done map[string]struct{}
}

// New creates an empty state that will be saved to path.
func New(path string, totalTargets int) *State {
	return &State{
		CompletedTargets: []string{},
		TotalTargets:     totalTargets,
		path:             path,
		done:             make(map[string]struct{}),
	}
}

// Load reads an existing state from disk. Returns nil if the file does not
// exist.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading resume file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing resume file: %w", err)
	}

	s.path = path
	s.done = make(map[string]struct{}, len(s.CompletedTargets))
	for _, t := range s.CompletedTargets {
		s.done[t] = struct{}{}
	}
	return &s, nil
}

// MarkCompleted records target as done.
func (s *State) MarkCompleted(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.done[target]; !ok {
		s.done[target] = struct{}{}
		s.CompletedTargets = append(s.CompletedTargets, target)
	}
}

// Completed returns the number of finished targets.
func (s *State) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.CompletedTargets)
}

// Save writes the current state to disk.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(s, jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("serializing resume state: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// FilterRemaining returns the targets whose URL hasn't been completed yet,
// in their original order.
func (s *State) FilterRemaining(targets []*scanner.BaseRequest) []*scanner.BaseRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var remaining []*scanner.BaseRequest
	for _, t := range targets {
		if _, ok := s.done[t.URL()]; !ok {
			remaining = append(remaining, t)
		}
	}
	return remaining
}

// Remove deletes the resume file (called on successful completion).
func (s *State) Remove() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
