package intervalcache

// Strategy tells the cache how to measure, combine and cut values of type T.
// Values are indexed by position: element i of a value cached for [s, e)
// belongs to position s+i.
type Strategy[T any] interface {
	// Empty returns the identity value for Merge.
	Empty() T
	IsNil(v T) bool
	Len(v T) int
	// Merge returns a followed by b.
	Merge(a, b T) T
	// Extract returns the sub value [from, to) of v.
	Extract(v T, from, to int) T
}

type StringStrategy struct{}

func (StringStrategy) Empty() string                         { return "" }
func (StringStrategy) IsNil(string) bool                     { return false }
func (StringStrategy) Len(v string) int                      { return len(v) }
func (StringStrategy) Merge(a, b string) string              { return a + b }
func (StringStrategy) Extract(v string, from, to int) string { return v[from:to] }

// SliceStrategy caches lists. Extracted and merged slices never alias the
// cached backing arrays.
type SliceStrategy[E any] struct{}

func (SliceStrategy[E]) Empty() []E       { return []E{} }
func (SliceStrategy[E]) IsNil(v []E) bool { return v == nil }
func (SliceStrategy[E]) Len(v []E) int    { return len(v) }

func (SliceStrategy[E]) Merge(a, b []E) []E {
	out := make([]E, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func (SliceStrategy[E]) Extract(v []E, from, to int) []E {
	out := make([]E, to-from)
	copy(out, v[from:to])
	return out
}
