package finding

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/maxvaer/actuatorhunt/internal/scanner"
	"github.com/maxvaer/actuatorhunt/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize(t *testing.T) {
	sig := signature.Default()[1]
	out := &scanner.Outcome{StatusCode: 200, Body: []byte(`{"_links":{}}`), URL: "https://victim.example/actuator"}
	ev := Evidence{Outcome: out}

	f := Synthesize(sig, "https://victim.example/", ev)

	assert.Equal(t, "Spring Boot Actuator Discovery", f.Name)
	assert.Equal(t, "https://victim.example/", f.BaseURL)
	assert.Equal(t, High, f.Severity)
	assert.Equal(t, High, f.TypicalSeverity)
	assert.Equal(t, Certain, f.Confidence)
	assert.Contains(t, f.Detail, "<b>/actuator</b>")
	assert.Contains(t, f.Detail, "<b>'_links'</b>")
	assert.Contains(t, f.Background, "wiz.io/blog/spring-boot-actuator-misconfigurations")
	assert.Contains(t, f.Remediation, "application.properties")
	assert.Empty(t, f.RemediationBackground)
	assert.Empty(t, f.ID)
	assert.Same(t, out, f.Evidence.Outcome)
	assert.Equal(t, "https://victim.example/actuator", f.URL())

	// Deterministic for the same inputs.
	assert.Equal(t, f, Synthesize(sig, "https://victim.example/", ev))
}

func TestSynthesizeEscapesCustomSignatures(t *testing.T) {
	sig := signature.Signature{Name: "x", Path: "/a<b>", Keyword: `"x"&`}
	f := Synthesize(sig, "http://h/", Evidence{})
	assert.Contains(t, f.Detail, "/a&lt;b&gt;")
	assert.Contains(t, f.Detail, "&#34;x&#34;&amp;")
	assert.Equal(t, "http://h/", f.URL())
}

func TestSeverityScore(t *testing.T) {
	assert.Greater(t, High.Score(), Medium.Score())
	assert.Greater(t, Medium.Score(), Low.Score())
	assert.Greater(t, Low.Score(), Info.Score())
	assert.Zero(t, Severity("bogus").Score())
}

func TestConsolidate(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want Action
	}{
		{"same name", "Spring Boot API Mappings", "Spring Boot API Mappings", KeepExisting},
		{"different name", "Spring Boot API Mappings", "Legacy Spring Boot Env Leak", KeepBoth},
		{"case differs", "Spring Boot API Mappings", "spring boot api mappings", KeepBoth},
		{"trailing space", "Spring Boot API Mappings", "Spring Boot API Mappings ", KeepBoth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Finding{Name: tt.a, BaseURL: "https://a.example"}
			b := &Finding{Name: tt.b, BaseURL: "https://b.example"}
			assert.Equal(t, tt.want, Consolidate(a, b))
		})
	}
	assert.Equal(t, "keep-existing", KeepExisting.String())
	assert.Equal(t, "keep-both", KeepBoth.String())
}

func TestStoreAdd(t *testing.T) {
	s := NewStore(nil)

	first, added := s.Add(Finding{Name: "Spring Boot Environment Leak", BaseURL: "https://a.example/"})
	require.True(t, added)
	_, err := uuid.Parse(first.ID)
	require.NoError(t, err)

	dup, added := s.Add(Finding{Name: "Spring Boot Environment Leak", BaseURL: "https://a.example/"})
	assert.False(t, added)
	assert.Same(t, first, dup)

	_, added = s.Add(Finding{Name: "Spring Boot Actuator Discovery", BaseURL: "https://a.example/"})
	assert.True(t, added)

	// Same name on another target is a separate issue.
	_, added = s.Add(Finding{Name: "Spring Boot Environment Leak", BaseURL: "https://b.example/"})
	assert.True(t, added)

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "Spring Boot Environment Leak", all[0].Name)
	assert.Equal(t, "Spring Boot Actuator Discovery", all[1].Name)
	assert.Equal(t, "https://b.example/", all[2].BaseURL)
}

func TestStoreUsesInjectedPolicy(t *testing.T) {
	var calls int
	s := NewStore(func(newFinding, existing *Finding) Action {
		calls++
		return KeepBoth
	})

	_, added := s.Add(Finding{Name: "Spring Boot Environment Leak", BaseURL: "https://a.example/"})
	require.True(t, added)
	_, added = s.Add(Finding{Name: "Spring Boot Environment Leak", BaseURL: "https://a.example/"})
	assert.True(t, added, "policy keeps both")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, s.Len())
}

func TestStoreConcurrentAdd(t *testing.T) {
	s := NewStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(Finding{Name: "Spring Boot API Mappings", BaseURL: "https://a.example/"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}
