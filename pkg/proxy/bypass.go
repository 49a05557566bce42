package proxy

import (
	"sync"
	"time"

	"github.com/sw33tLie/spoilerguard/pkg/storage"
)

// DefaultBypassTTL is how long a granted bypass waits to be used.
const DefaultBypassTTL = 2 * time.Minute

// Bypass holds one-shot passes for URLs the user chose to open anyway.
// A pass is consumed by the first navigation to its URL.
type Bypass struct {
	mu     sync.Mutex
	ttl    time.Duration
	grants map[string]time.Time
	now    func() time.Time
}

func NewBypass(ttl time.Duration) *Bypass {
	if ttl <= 0 {
		ttl = DefaultBypassTTL
	}
	return &Bypass{ttl: ttl, grants: map[string]time.Time{}, now: time.Now}
}

// Grant lets the next navigation to url through unclassified.
func (b *Bypass) Grant(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for k, exp := range b.grants {
		if now.After(exp) {
			delete(b.grants, k)
		}
	}
	b.grants[storage.NormalizeURL(url)] = now.Add(b.ttl)
}

// Consume reports whether url holds an unexpired pass and removes it.
func (b *Bypass) Consume(url string) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := storage.NormalizeURL(url)
	exp, ok := b.grants[key]
	if !ok {
		return false
	}
	delete(b.grants, key)
	return !b.now().After(exp)
}
