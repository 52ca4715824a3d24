package classification

import (
	"strings"

	"k8s.io/apimachinery/pkg/labels"
)

// Set is an immutable set of classes. The zero value is the empty set.
type Set uint32

func NewSet(classes ...Class) Set {
	var s Set
	for _, c := range classes {
		s = s.With(c)
	}
	return s
}

// SetFromSelector parses a label selector, e.g. "class in (common)", and
// returns the matching classes.
func SetFromSelector(s string) (Set, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	selector, err := labels.Parse(s)
	if err != nil {
		return 0, err
	}
	return Select(selector), nil
}

func (r Set) With(c Class) Set {
	if !c.IsValid() {
		return r
	}
	return r | 1<<uint(c)
}

func (r Set) Has(c Class) bool {
	return c.IsValid() && r&(1<<uint(c)) != 0
}

func (r Set) IsEmpty() bool { return r == 0 }

// Complement returns the classes not in r.
func (r Set) Complement() Set {
	return NewSet(All()...) &^ r
}

func (r Set) Classes() []Class {
	var out []Class
	for _, c := range All() {
		if r.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Key returns a canonical string for the set, usable as a map key.
func (r Set) Key() string {
	names := make([]string, 0, len(All()))
	for _, c := range r.Classes() {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}

func (r Set) String() string {
	return "{" + r.Key() + "}"
}
