package resume

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/maxvaer/actuatorhunt/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New(path, 3)
	s.MarkCompleted("http://a.example")
	s.MarkCompleted("http://b.example")
	s.MarkCompleted("http://a.example")
	require.NoError(t, s.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 3, loaded.TotalTargets)
	assert.Equal(t, 2, loaded.Completed())
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, loaded.CompletedTargets)

}

func TestFilterRemaining(t *testing.T) {
	var targets []*scanner.BaseRequest
	for _, raw := range []string{"http://a.example", "https://c.example:8443/app", "http://b.example"} {
		base, err := scanner.ParseBaseURL(raw)
		require.NoError(t, err)
		targets = append(targets, base)
	}

	s := New(filepath.Join(t.TempDir(), "state.json"), len(targets))
	s.MarkCompleted("http://a.example/")
	s.MarkCompleted("http://b.example/")

	remaining := s.FilterRemaining(targets)
	require.Len(t, remaining, 1)
	assert.Equal(t, "https://c.example:8443/app", remaining[0].URL())
	assert.Same(t, targets[1], remaining[0])

	assert.Len(t, New("unused", 3).FilterRemaining(targets), 3)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing resume file")
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New(path, 1)
	require.NoError(t, s.Save())
	require.NoError(t, s.Remove())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine.
	assert.NoError(t, s.Remove())
}

func TestMarkCompletedConcurrent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state.json"), 50)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.MarkCompleted(string(rune('a'+i%26)) + "/target")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 26, s.Completed())
}
