package binder

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/aTrapDeer/portfolio-admin/internal/content"
	"github.com/aTrapDeer/portfolio-admin/internal/querycache"
)

// Draft is an operator's edit buffer. ID is empty while creating a collection record.
// SeededVersion is the cache entry version the buffer was seeded from.
type Draft[T any] struct {
	Value         T
	ID            content.ID
	SeededVersion uint64
}

// Creating reports whether submitting the buffer creates a new record.
func (d Draft[T]) Creating() bool { return d.ID == "" }

// Stale reports whether a fetch newer than the buffer's seed has landed.
func (d Draft[T]) Stale(version uint64) bool { return d.SeededVersion != version }

// Drafts holds edit buffers per session, resource and record. Buffers nobody touches
// expire after ttl.
type Drafts struct {
	items *cache.Cache
}

func NewDrafts(ttl time.Duration) *Drafts {
	return &Drafts{items: cache.New(ttl, 2*ttl)}
}

func draftKey(sessionID string, key querycache.Key, id content.ID) string {
	return strings.Join([]string{sessionID, string(key), string(id)}, "|")
}

// Discard drops one buffer.
func (d *Drafts) Discard(sessionID string, key querycache.Key, id content.ID) {
	d.items.Delete(draftKey(sessionID, key, id))
}

// DiscardSession drops every buffer the session holds, e.g. on logout.
func (d *Drafts) DiscardSession(sessionID string) {
	prefix := sessionID + "|"
	for k := range d.items.Items() {
		if strings.HasPrefix(k, prefix) {
			d.items.Delete(k)
		}
	}
}

func getDraft[T any](d *Drafts, sessionID string, key querycache.Key, id content.ID) (draft Draft[T], ok bool) {
	v, found := d.items.Get(draftKey(sessionID, key, id))
	if !found {
		return draft, false
	}
	draft, ok = v.(Draft[T])
	return draft, ok
}

func putDraft[T any](d *Drafts, sessionID string, key querycache.Key, draft Draft[T]) {
	d.items.SetDefault(draftKey(sessionID, key, draft.ID), draft)
}
