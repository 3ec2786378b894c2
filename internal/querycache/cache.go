// Package querycache keeps the last good answer of every API read the dashboard makes,
// collapses concurrent reads of the same key into one request, and refetches after writes.
package querycache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Key names one API resource. Keys carry no parameters: there is one site per operator.
type Key string

// The key space of the dashboard.
const (
	KeyHero           Key = "hero"
	KeyAbout          Key = "about"
	KeyCareer         Key = "career"
	KeySkills         Key = "skills"
	KeyProject        Key = "project"
	KeyProjectItems   Key = "project-items"
	KeyTestimony      Key = "testimony"
	KeyTestimonyItems Key = "testimony-items"
)

// Keys lists every key of the dashboard.
var Keys = []Key{
	KeyHero, KeyAbout, KeyCareer, KeySkills,
	KeyProject, KeyProjectItems, KeyTestimony, KeyTestimonyItems,
}

// ErrUnknownKey is returned for keys nobody registered a fetcher for.
var ErrUnknownKey = errors.New("no fetcher registered for key")

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "querycache_hits_total",
		Help: "Reads answered from the query cache",
	}, []string{"key"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "querycache_misses_total",
		Help: "Reads that had to fetch from the API",
	}, []string{"key"})

	fetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "querycache_fetch_errors_total",
		Help: "Failed fetches, never cached",
	}, []string{"key"})
)

// Fetcher loads the current value of a key from the API.
type Fetcher func(ctx context.Context) (any, error)

// Entry is a cached value. Version increases with every successful fetch of any key, so
// an edit buffer can tell a fresh fetch from a re-render of the same data.
type Entry struct {
	Value     any
	Version   uint64
	FetchedAt time.Time
}

// Result is what subscribers receive after a refetch. Err set means the fetch failed and
// the key holds no value until the next successful read.
type Result struct {
	Key   Key
	Entry Entry
	Err   error
}

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Subscriber is called after every subscriber-driven refetch of its key.
type Subscriber func(Result)

// Store is the process wide query cache. Build one with New and hand it to every page;
// there is no package level instance.
type Store struct {
	items *cache.Cache
	group singleflight.Group

	mu       sync.Mutex
	fetchers map[Key]Fetcher
	gen      map[Key]uint64
	status   map[Key]Status
	subs     map[Key]map[uint64]Subscriber
	nextSub  uint64
	version  uint64
}

// New returns a store whose entries live for ttl before a read refetches them.
func New(ttl time.Duration) *Store {
	return &Store{
		items:    cache.New(ttl, 2*ttl),
		fetchers: make(map[Key]Fetcher),
		gen:      make(map[Key]uint64),
		status:   make(map[Key]Status),
		subs:     make(map[Key]map[uint64]Subscriber),
	}
}

// Register binds the fetcher used whenever key is missing or invalidated.
func (s *Store) Register(key Key, fetch Fetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchers[key] = fetch
}

// Get returns the cached entry for key, fetching it when absent. Concurrent callers for
// the same key share one in-flight fetch.
func (s *Store) Get(ctx context.Context, key Key) (entry Entry, err error) {
	if cached, found := s.items.Get(string(key)); found {
		cacheHits.WithLabelValues(string(key)).Inc()
		entry = cached.(Entry)
		return entry, err
	}
	cacheMisses.WithLabelValues(string(key)).Inc()

	entry, err = s.fetch(ctx, key)
	return entry, err
}

// Peek returns the cached entry without fetching.
func (s *Store) Peek(key Key) (entry Entry, ok bool) {
	var cached any
	cached, ok = s.items.Get(string(key))
	if ok {
		entry = cached.(Entry)
	}
	return entry, ok
}

// Status reports the state of key's last fetch.
func (s *Store) Status(key Key) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[key]
}

// fetch runs the key's fetcher once per generation. A fetch whose generation was bumped
// by Invalidate while it was in flight is returned to its callers but not cached.
func (s *Store) fetch(ctx context.Context, key Key) (entry Entry, err error) {
	s.mu.Lock()
	fetcher, ok := s.fetchers[key]
	gen := s.gen[key]
	s.status[key] = StatusLoading
	s.mu.Unlock()

	if !ok {
		err = errors.Wrapf(ErrUnknownKey, "key %q", key)
		return entry, err
	}

	flightKey := string(key) + "#" + strconv.FormatUint(gen, 10)
	v, err, shared := s.group.Do(flightKey, func() (any, error) {
		value, ferr := fetcher(context.WithoutCancel(ctx))
		if ferr != nil {
			return nil, ferr
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.version++
		e := Entry{Value: value, Version: s.version, FetchedAt: time.Now()}
		if s.gen[key] == gen {
			s.items.SetDefault(string(key), e)
			s.status[key] = StatusReady
		}
		return e, nil
	})

	if err != nil {
		fetchErrors.WithLabelValues(string(key)).Inc()
		s.mu.Lock()
		if s.gen[key] == gen {
			s.status[key] = StatusError
		}
		s.mu.Unlock()
		log.Warn().Err(err).Str("key", string(key)).Bool("shared", shared).Msg("query fetch failed")
		err = errors.Wrapf(err, "fetch %s", key)
		return entry, err
	}

	entry = v.(Entry)
	return entry, err
}

// Invalidate drops key's entry so the next read refetches. Reads already in flight are
// not joined by later readers and do not repopulate the key. When the key has subscribers
// the refetch happens here, before Invalidate returns, and its result is published.
func (s *Store) Invalidate(ctx context.Context, key Key) (err error) {
	s.mu.Lock()
	s.gen[key]++
	s.items.Delete(string(key))
	s.status[key] = StatusIdle
	subs := make([]Subscriber, 0, len(s.subs[key]))
	for _, fn := range s.subs[key] {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if len(subs) == 0 {
		return err
	}

	entry, err := s.fetch(ctx, key)
	result := Result{Key: key, Entry: entry, Err: err}
	for _, fn := range subs {
		fn(result)
	}
	return err
}

// Subscribe registers fn for key's refetches. The returned func removes it.
func (s *Store) Subscribe(key Key, fn Subscriber) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	if s.subs[key] == nil {
		s.subs[key] = make(map[uint64]Subscriber)
	}
	s.subs[key][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
		if len(s.subs[key]) == 0 {
			delete(s.subs, key)
		}
	}
}

// Subscribers reports how many subscribers key has.
func (s *Store) Subscribers(key Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[key])
}

// Typed reads key and asserts its value to T.
func Typed[T any](ctx context.Context, s *Store, key Key) (value T, entry Entry, err error) {
	entry, err = s.Get(ctx, key)
	if err != nil {
		return value, entry, err
	}
	var ok bool
	value, ok = entry.Value.(T)
	if !ok {
		err = errors.Errorf("key %q holds %T, not %T", key, entry.Value, value)
		return value, entry, err
	}
	return value, entry, err
}
