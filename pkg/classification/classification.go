package classification

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/labels"
)

// Class is the mapping quality class of a read mapping.
type Class int

const (
	SinglePerfectMatch Class = iota
	PerfectMatch
	SingleBestMatch
	BestMatch
	CommonMatch
)

const (
	LabelClass  = "class"
	LabelUnique = "unique"
)

var names = map[Class]string{
	SinglePerfectMatch: "single-perfect",
	PerfectMatch:       "perfect",
	SingleBestMatch:    "single-best",
	BestMatch:          "best",
	CommonMatch:        "common",
}

var classLabels = map[Class]labels.Set{
	SinglePerfectMatch: map[string]string{LabelClass: "perfect", LabelUnique: "true"},
	PerfectMatch:       map[string]string{LabelClass: "perfect", LabelUnique: "false"},
	SingleBestMatch:    map[string]string{LabelClass: "best", LabelUnique: "true"},
	BestMatch:          map[string]string{LabelClass: "best", LabelUnique: "false"},
	CommonMatch:        map[string]string{LabelClass: "common", LabelUnique: "false"},
}

// All returns every class in declaration order.
func All() []Class {
	return []Class{SinglePerfectMatch, PerfectMatch, SingleBestMatch, BestMatch, CommonMatch}
}

func (r Class) IsValid() bool {
	_, ok := names[r]
	return ok
}

func (r Class) String() string {
	if n, ok := names[r]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

// Labels returns a copy of the label set describing the class.
func (r Class) Labels() labels.Set {
	l := labels.Set{}
	for k, v := range classLabels[r] {
		l[k] = v
	}
	return l
}

func Parse(s string) (Class, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for c, n := range names {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown classification %q", s)
}

// Select returns the classes whose labels match the selector.
func Select(selector labels.Selector) Set {
	var s Set
	for _, c := range All() {
		if selector.Matches(classLabels[c]) {
			s = s.With(c)
		}
	}
	return s
}
