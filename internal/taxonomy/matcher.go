package taxonomy

import (
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Matcher reports whether any of a fixed set of keywords occurs in a text.
type Matcher struct {
	// ahocorasick.Matcher keeps per-call state, so Match is serialized.
	mu sync.Mutex
	m  *ahocorasick.Matcher
}

// NewMatcher builds a matcher over keywords. Matching is case-sensitive;
// callers lower-case both sides.
func NewMatcher(keywords []string) *Matcher {
	return &Matcher{m: ahocorasick.NewStringMatcher(keywords)}
}

// MatchAny reports whether text contains at least one keyword.
func (m *Matcher) MatchAny(text string) bool {
	if m == nil || m.m == nil || text == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m.Match([]byte(text))) > 0
}
