package intervalcache

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	biointerval "github.com/biogo/store/interval"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/henderiw/rxcore/pkg/interval"
	"github.com/sirupsen/logrus"
)

var (
	ErrNilValue        = errors.New("value must not be nil")
	ErrInvalidInterval = errors.New("invalid interval")
	ErrLengthMismatch  = errors.New("value length does not match interval length")
	ErrOverlap         = errors.New("interval overlaps a cached interval")
)

const DefaultCapacity = 64

// FetchFn loads the value for exactly the requested interval.
type FetchFn[T any] func(iv interval.Interval) (T, error)

type Cache[T any] interface {
	Get(iv interval.Interval) (T, error)
	AddValue(iv interval.Interval, v T) error
	MergeAdjacentIntervals(iv interval.Interval) error

	Entries() []interval.Interval
	Len() int
	Purge()
	Stats() Stats
}

type Stats struct {
	Hits      int
	Misses    int
	Fetches   int
	Merges    int
	Evictions int
}

type Option func(*options)

type options struct {
	capacity int
	log      *logrus.Entry
}

// WithCapacity bounds the number of cached entries. Least recently used
// entries are evicted and refetched on demand.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

func WithLogger(log *logrus.Entry) Option {
	return func(o *options) { o.log = log }
}

func New[T any](s Strategy[T], fetch FetchFn[T], opts ...Option) (Cache[T], error) {
	if s == nil {
		return nil, fmt.Errorf("cannot create a cache without a strategy")
	}
	if fetch == nil {
		return nil, fmt.Errorf("cannot create a cache without a fetch function")
	}
	o := &options{
		capacity: DefaultCapacity,
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(o)
	}

	r := &cache[T]{
		m:        new(sync.Mutex),
		strategy: s,
		fetch:    fetch,
		index:    &biointerval.IntTree{},
		entries:  map[uintptr]*cacheEntry{},
		log:      o.log,
	}
	values, err := lru.NewWithEvict[uintptr, T](o.capacity, r.onEvict)
	if err != nil {
		return nil, fmt.Errorf("cannot create a cache with capacity %d, err: %w", o.capacity, err)
	}
	r.values = values
	return r, nil
}

type cacheEntry struct {
	iv  interval.Interval
	uid uintptr
}

func (e *cacheEntry) ID() uintptr                         { return e.uid }
func (e *cacheEntry) Range() biointerval.IntRange         { return e.iv.Range() }
func (e *cacheEntry) Overlap(b biointerval.IntRange) bool { return e.iv.Overlap(b) }

type cachedValue[T any] struct {
	iv  interval.Interval
	val T
}

// cache keeps interval keys in a biogo interval tree and the values in an
// LRU. Every method runs under m, including the eviction callback which is
// only ever triggered from within the LRU calls made here.
type cache[T any] struct {
	m        *sync.Mutex
	strategy Strategy[T]
	fetch    FetchFn[T]
	index    *biointerval.IntTree
	entries  map[uintptr]*cacheEntry
	values   *lru.Cache[uintptr, T]
	nextID   uintptr
	stats    Stats
	log      *logrus.Entry
}

func (r *cache[T]) Get(iv interval.Interval) (T, error) {
	r.m.Lock()
	defer r.m.Unlock()

	if !iv.IsValid() {
		var v T
		return v, fmt.Errorf("%w: %s", ErrInvalidInterval, iv)
	}
	if iv.IsEmpty() {
		return r.strategy.Empty(), nil
	}

	// take the values out first, fetching below may evict them
	cached := r.overlapping(iv)

	result := r.strategy.Empty()
	pos := iv.Start
	fetched := false
	for _, c := range cached {
		if c.iv.Start > pos {
			fetched = true
			v, err := r.fetchAndStore(interval.From(pos, c.iv.Start))
			if err != nil {
				return r.strategy.Empty(), err
			}
			result = r.strategy.Merge(result, v)
			pos = c.iv.Start
		}
		end := min(c.iv.End, iv.End)
		result = r.strategy.Merge(result, r.strategy.Extract(c.val, pos-c.iv.Start, end-c.iv.Start))
		pos = end
	}
	if pos < iv.End {
		fetched = true
		v, err := r.fetchAndStore(interval.From(pos, iv.End))
		if err != nil {
			return r.strategy.Empty(), err
		}
		result = r.strategy.Merge(result, v)
	}

	if fetched {
		r.stats.Misses++
	} else {
		r.stats.Hits++
	}

	r.mergeAdjacent(iv)
	return result, nil
}

func (r *cache[T]) AddValue(iv interval.Interval, v T) error {
	r.m.Lock()
	defer r.m.Unlock()

	return r.add(iv, v)
}

func (r *cache[T]) MergeAdjacentIntervals(iv interval.Interval) error {
	r.m.Lock()
	defer r.m.Unlock()

	if !iv.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, iv)
	}
	r.mergeAdjacent(iv)
	return nil
}

func (r *cache[T]) Entries() []interval.Interval {
	r.m.Lock()
	defer r.m.Unlock()

	ivs := make([]interval.Interval, 0, len(r.entries))
	for _, e := range r.sortedEntries() {
		ivs = append(ivs, e.iv)
	}
	return ivs
}

func (r *cache[T]) Len() int {
	r.m.Lock()
	defer r.m.Unlock()

	return len(r.entries)
}

// Purge drops all cached values, the next Get refetches them.
func (r *cache[T]) Purge() {
	r.m.Lock()
	defer r.m.Unlock()

	r.values.Purge()
	r.index = &biointerval.IntTree{}
	r.entries = map[uintptr]*cacheEntry{}
}

func (r *cache[T]) Stats() Stats {
	r.m.Lock()
	defer r.m.Unlock()

	return r.stats
}

func (r *cache[T]) validate(iv interval.Interval, v T) error {
	if !iv.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, iv)
	}
	if r.strategy.IsNil(v) {
		return fmt.Errorf("%w: interval %s", ErrNilValue, iv)
	}
	if l := r.strategy.Len(v); l != iv.Len() {
		return fmt.Errorf("%w: interval %s has length %d, value has length %d", ErrLengthMismatch, iv, iv.Len(), l)
	}
	return nil
}

func (r *cache[T]) add(iv interval.Interval, v T) error {
	if err := r.validate(iv, v); err != nil {
		return err
	}
	if iv.IsEmpty() {
		// nothing to cache for an empty interval
		return nil
	}
	if hits := r.index.Get(iv); len(hits) > 0 {
		return fmt.Errorf("%w: %s overlaps %s", ErrOverlap, iv, hits[0].(*cacheEntry).iv)
	}
	return r.insert(iv, v)
}

func (r *cache[T]) insert(iv interval.Interval, v T) error {
	r.nextID++
	e := &cacheEntry{iv: iv, uid: r.nextID}
	if err := r.index.Insert(e, false); err != nil {
		return fmt.Errorf("cannot index interval %s, err: %w", iv, err)
	}
	r.entries[e.uid] = e
	r.values.Add(e.uid, r.strategy.Extract(v, 0, r.strategy.Len(v)))
	return nil
}

func (r *cache[T]) remove(e *cacheEntry) {
	delete(r.entries, e.uid)
	_ = r.index.Delete(e, false)
	r.values.Remove(e.uid)
}

func (r *cache[T]) onEvict(uid uintptr, _ T) {
	e, ok := r.entries[uid]
	if !ok {
		// removed on purpose
		return
	}
	delete(r.entries, uid)
	_ = r.index.Delete(e, false)
	r.stats.Evictions++
	r.log.WithField("interval", e.iv.String()).Debug("evicted cache entry")
}

func (r *cache[T]) fetchAndStore(iv interval.Interval) (T, error) {
	r.stats.Fetches++
	r.log.WithField("interval", iv.String()).Debug("fetching missing interval")

	v, err := r.fetch(iv)
	if err != nil {
		return r.strategy.Empty(), fmt.Errorf("fetch %s failed, err: %w", iv, err)
	}
	if err := r.add(iv, v); err != nil {
		return r.strategy.Empty(), fmt.Errorf("fetch %s returned an unusable value, err: %w", iv, err)
	}
	return v, nil
}

// overlapping returns the cached values overlapping iv ordered by start.
func (r *cache[T]) overlapping(iv interval.Interval) []cachedValue[T] {
	hits := r.index.Get(iv)
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].(*cacheEntry).iv.Less(hits[j].(*cacheEntry).iv)
	})

	out := make([]cachedValue[T], 0, len(hits))
	for _, h := range hits {
		e := h.(*cacheEntry)
		v, ok := r.values.Get(e.uid)
		if !ok {
			r.remove(e)
			continue
		}
		out = append(out, cachedValue[T]{iv: e.iv, val: v})
	}
	return out
}

func (r *cache[T]) sortedEntries() []*cacheEntry {
	entries := make([]*cacheEntry, 0, len(r.entries))
	r.index.Do(func(e biointerval.IntInterface) bool {
		entries = append(entries, e.(*cacheEntry))
		return false
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].iv.Less(entries[j].iv) })
	return entries
}

// mergeAdjacent replaces every run of touching entries whose union overlaps
// iv by a single entry. Gapped entries stay separate.
func (r *cache[T]) mergeAdjacent(iv interval.Interval) {
	entries := r.sortedEntries()

	for i := 0; i < len(entries); {
		j := i
		for j+1 < len(entries) && entries[j].iv.End == entries[j+1].iv.Start {
			j++
		}
		run := entries[i : j+1]
		i = j + 1

		union := interval.From(run[0].iv.Start, run[len(run)-1].iv.End)
		if len(run) < 2 || !union.Overlaps(iv) {
			continue
		}

		merged := r.strategy.Empty()
		complete := true
		for _, e := range run {
			v, ok := r.values.Peek(e.uid)
			if !ok {
				complete = false
				break
			}
			merged = r.strategy.Merge(merged, v)
		}
		if !complete {
			continue
		}
		for _, e := range run {
			r.remove(e)
		}
		if err := r.insert(union, merged); err != nil {
			r.log.WithError(err).WithField("interval", union.String()).Warn("cannot store merged interval")
			continue
		}
		r.stats.Merges++
		r.log.WithFields(logrus.Fields{"interval": union.String(), "entries": len(run)}).Debug("merged adjacent intervals")
	}
}
