package wallet

import (
	"fmt"
	"sort"
)

// Links is the normalized link relation: each directed edge from -> to is
// stored exactly once. An edge A -> B grants B login with identities derived
// under A. The linksFrom/linksTo views both derive from this one relation,
// which makes the mirror invariant impossible to violate in memory.
type Links map[string]map[string]struct{}

func (l Links) Has(from, to string) bool {
	targets, ok := l[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// Add inserts the edge from -> to. Self-links are invalid; an existing edge
// reports ErrAlreadyLinked so callers can decide between failing and
// treating the insert as a no-op.
func (l Links) Add(from, to string) error {
	if from == to {
		return fmt.Errorf("%w: origin cannot link to itself", ErrInvalidInput)
	}
	if l.Has(from, to) {
		return ErrAlreadyLinked
	}
	targets, ok := l[from]
	if !ok {
		targets = make(map[string]struct{})
		l[from] = targets
	}
	targets[to] = struct{}{}
	return nil
}

// Remove deletes the edge from -> to and reports whether it existed.
func (l Links) Remove(from, to string) bool {
	targets, ok := l[from]
	if !ok {
		return false
	}
	if _, ok := targets[to]; !ok {
		return false
	}
	delete(targets, to)
	if len(targets) == 0 {
		delete(l, from)
	}
	return true
}

// To returns the targets of edges leaving origin, i.e. origin's linksTo
// view, sorted for stable output.
func (l Links) To(origin string) []string {
	targets, ok := l[origin]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(targets))
	for to := range targets {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

// From returns the sources of edges entering origin, i.e. origin's
// linksFrom view, sorted for stable output.
func (l Links) From(origin string) []string {
	var out []string
	for from, targets := range l {
		if _, ok := targets[origin]; ok {
			out = append(out, from)
		}
	}
	sort.Strings(out)
	return out
}

func (l Links) Clone() Links {
	out := make(Links, len(l))
	for from, targets := range l {
		cloned := make(map[string]struct{}, len(targets))
		for to := range targets {
			cloned[to] = struct{}{}
		}
		out[from] = cloned
	}
	return out
}
