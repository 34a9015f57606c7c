// Package schema maps a table's free-form headers onto the semantic roles the
// analytics builders consume.
package schema

import "strings"

type MatchMode string

const (
	Exact    MatchMode = "exact"
	Contains MatchMode = "contains"
)

// Match is either Resolved(header) or Unresolved.
type Match struct {
	header string
	ok     bool
}

// Unresolved is the zero Match.
var Unresolved = Match{}

func Resolved(header string) Match {
	return Match{header: header, ok: true}
}

func (m Match) Header() string {
	return m.header
}

func (m Match) OK() bool {
	return m.ok
}

// Or returns m when it resolved and next otherwise, so fallback chains read
// left to right.
func (m Match) Or(next Match) Match {
	if m.ok {
		return m
	}
	return next
}

func (m Match) String() string {
	if !m.ok {
		return "<unresolved>"
	}
	return m.header
}

var separatorStripper = strings.NewReplacer("_", "", "-", "", " ", "", "\t", "")

// Normalize lower-cases s and drops separators so "Net_Price", "net price"
// and "NetPrice" compare equal.
func Normalize(s string) string {
	return separatorStripper.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Resolve picks the header for an ordered candidate list. Candidate priority
// dominates; among headers matching the same candidate the first position
// wins. The exact pass always runs before the contains pass.
func Resolve(headers, candidates []string, mode MatchMode) Match {
	if len(headers) == 0 || len(candidates) == 0 {
		return Unresolved
	}
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = Normalize(h)
	}

	for _, c := range candidates {
		nc := Normalize(c)
		if nc == "" {
			continue
		}
		for i, nh := range normalized {
			if nh == nc {
				return Resolved(headers[i])
			}
		}
	}

	if mode != Contains {
		return Unresolved
	}
	for _, c := range candidates {
		nc := Normalize(c)
		if nc == "" {
			continue
		}
		for i, nh := range normalized {
			if strings.Contains(nh, nc) {
				return Resolved(headers[i])
			}
		}
	}
	return Unresolved
}

// ResolveExact is Resolve in exact mode, the form used for per-file lookups
// in multi-table analyses.
func ResolveExact(headers, candidates []string) Match {
	return Resolve(headers, candidates, Exact)
}
