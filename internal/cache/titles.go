package cache

import (
	"context"
	"time"

	ttlworker "github.com/FloatTech/ttl"
)

// DefaultTitleTTL is how long a resolved media title is reused.
const DefaultTitleTTL = 6 * time.Hour

// Titles is an in-process title cache with per-entry expiry.
type Titles struct {
	entries *ttlworker.Cache[string, string]
}

func NewTitles(ttl time.Duration) *Titles {
	if ttl <= 0 {
		ttl = DefaultTitleTTL
	}
	return &Titles{entries: ttlworker.NewCache[string, string](ttl)}
}

// Lookup returns the cached title for key. Empty titles are never stored,
// so an empty value is a miss.
func (t *Titles) Lookup(_ context.Context, key string) (string, bool) {
	title := t.entries.Get(key)
	return title, title != ""
}

// Store remembers title under key.
func (t *Titles) Store(_ context.Context, key, title string) {
	if title == "" {
		return
	}
	t.entries.Set(key, title)
}

// Forget removes key.
func (t *Titles) Forget(key string) {
	t.entries.Delete(key)
}

// Backend names the implementation, for status reporting.
func (t *Titles) Backend() string { return "memory" }
