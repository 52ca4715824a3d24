package coverage

import "fmt"

// Coverage holds per position read counts for both strands of the inclusive
// reference interval [leftBound, rightBound]. The arrays start empty and are
// sized on demand by IncArraysToIntervalSize.
type Coverage struct {
	leftBound  int
	rightBound int
	fwd        []int
	rev        []int
	// version changes with every modification of the counts or bounds
	version uint64
}

func New(leftBound, rightBound int) *Coverage {
	return &Coverage{
		leftBound:  leftBound,
		rightBound: rightBound,
		fwd:        []int{},
		rev:        []int{},
	}
}

func (r *Coverage) String() string {
	return fmt.Sprintf("coverage %d-%d", r.leftBound, r.rightBound)
}

func (r *Coverage) LeftBound() int  { return r.leftBound }
func (r *Coverage) RightBound() int { return r.rightBound }

// Version returns a counter that changes whenever r is modified.
func (r *Coverage) Version() uint64 { return r.version }

// Width returns the number of positions in the bounds.
func (r *Coverage) Width() int {
	if r.rightBound < r.leftBound {
		return 0
	}
	return r.rightBound - r.leftBound + 1
}

// IncArraysToIntervalSize sizes both arrays to the interval width. Arrays
// that already have that size are left untouched.
func (r *Coverage) IncArraysToIntervalSize() {
	w := r.Width()
	if len(r.fwd) != w {
		r.fwd = resize(r.fwd, 0, w)
	}
	if len(r.rev) != w {
		r.rev = resize(r.rev, 0, w)
	}
	r.version++
}

// Fwd returns the forward strand array, index 0 is the left bound. The
// array must not be modified, use SetCoverage or Increase.
func (r *Coverage) Fwd() []int { return r.fwd }

// Rev returns the reverse strand array, index 0 is the left bound.
func (r *Coverage) Rev() []int { return r.rev }

func (r *Coverage) Array(fwd bool) []int {
	if fwd {
		return r.fwd
	}
	return r.rev
}

func (r *Coverage) index(pos int, fwd bool) (int, bool) {
	i := pos - r.leftBound
	if pos > r.rightBound || i < 0 || i >= len(r.Array(fwd)) {
		return 0, false
	}
	return i, true
}

// Coverage returns the count at pos, 0 outside the bounds.
func (r *Coverage) Coverage(pos int, fwd bool) int {
	i, ok := r.index(pos, fwd)
	if !ok {
		return 0
	}
	return r.Array(fwd)[i]
}

func (r *Coverage) SetCoverage(pos int, fwd bool, value int) {
	if i, ok := r.index(pos, fwd); ok {
		r.Array(fwd)[i] = value
		r.version++
	}
}

func (r *Coverage) Increase(pos int, fwd bool, n int) {
	if i, ok := r.index(pos, fwd); ok {
		r.Array(fwd)[i] += n
		r.version++
	}
}

// CoversBounds returns whether both positions lie within the bounds.
// Uninitialised (0,0) bounds cover nothing.
func (r *Coverage) CoversBounds(left, right int) bool {
	return coversBounds(r.leftBound, r.rightBound, left, right)
}

func coversBounds(leftBound, rightBound, left, right int) bool {
	if leftBound == 0 && rightBound == 0 {
		return false
	}
	return leftBound <= left && left <= rightBound &&
		leftBound <= right && right <= rightBound
}

// SetLeftBound moves the left bound, counts of positions that stay within
// the bounds are kept.
func (r *Coverage) SetLeftBound(leftBound int) {
	shift := leftBound - r.leftBound
	r.leftBound = leftBound
	w := r.Width()
	if len(r.fwd) > 0 {
		r.fwd = resize(r.fwd, shift, w)
	}
	if len(r.rev) > 0 {
		r.rev = resize(r.rev, shift, w)
	}
	r.version++
}

func (r *Coverage) SetRightBound(rightBound int) {
	r.rightBound = rightBound
	w := r.Width()
	if len(r.fwd) > 0 {
		r.fwd = resize(r.fwd, 0, w)
	}
	if len(r.rev) > 0 {
		r.rev = resize(r.rev, 0, w)
	}
	r.version++
}

// Add sums the counts of other into r for the positions both cover.
func (r *Coverage) Add(other *Coverage) {
	r.IncArraysToIntervalSize()
	for _, fwd := range []bool{true, false} {
		src := other.Array(fwd)
		for i, v := range src {
			r.Increase(other.leftBound+i, fwd, v)
		}
	}
}

// Max returns the highest count on either strand.
func (r *Coverage) Max() int {
	m := 0
	for _, a := range [][]int{r.fwd, r.rev} {
		for _, v := range a {
			m = max(m, v)
		}
	}
	return m
}

func (r *Coverage) Clone() *Coverage {
	c := New(r.leftBound, r.rightBound)
	c.fwd = append([]int{}, r.fwd...)
	c.rev = append([]int{}, r.rev...)
	return c
}

// resize returns a new array of size w whose element i is a[i+shift].
func resize(a []int, shift, w int) []int {
	if w < 0 {
		w = 0
	}
	out := make([]int, w)
	for i := range out {
		if j := i + shift; j >= 0 && j < len(a) {
			out[i] = a[j]
		}
	}
	return out
}
