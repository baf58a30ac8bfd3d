// Package dedupe remembers which source files were recently ingested so the
// watch loop does not reprocess unchanged PDFs on every scan.
package dedupe

import (
	"fmt"
	"io/fs"
	"sync"
	"time"
)

type seen struct {
	fingerprint string
	ts          time.Time
}

// Fingerprints is a bounded, TTL-limited map of file path to content
// fingerprint. Entries past the TTL are treated as unseen, so a document is
// re-ingested at least once per TTL window even when unchanged.
type Fingerprints struct {
	mu       sync.Mutex
	items    map[string]seen
	capacity int
	ttl      time.Duration
}

// New creates a fingerprint cache with the provided capacity and ttl.
func New(capacity int, ttl time.Duration) *Fingerprints {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Fingerprints{
		items:    make(map[string]seen, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Fingerprint derives a cheap identity for a file from its size and
// modification time; re-uploads with identical bytes but a fresh mtime are
// deliberately treated as changed.
func Fingerprint(info fs.FileInfo) string {
	return fmt.Sprintf("%d:%d", info.Size(), info.ModTime().UnixNano())
}

// Unchanged reports whether path was recorded with the same fingerprint
// inside the TTL window.
func (f *Fingerprints) Unchanged(path, fingerprint string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.items[path]
	if !ok {
		return false
	}
	if time.Since(entry.ts) > f.ttl {
		return false
	}
	return entry.fingerprint == fingerprint
}

// Remember records the fingerprint for a path, evicting expired entries and
// then arbitrary ones while over capacity.
func (f *Fingerprints) Remember(path, fingerprint string) {
	now := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.items[path] = seen{fingerprint: fingerprint, ts: now}

	cutoff := now.Add(-f.ttl)
	for p, entry := range f.items {
		if entry.ts.Before(cutoff) {
			delete(f.items, p)
		}
	}
	for p := range f.items {
		if len(f.items) <= f.capacity {
			break
		}
		if p != path {
			delete(f.items, p)
		}
	}
}
