package rules

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// MatchMode selects how string filter patterns are interpreted, a single
// daemon-wide setting (spec 4.1, "Pattern matching").
type MatchMode int

const (
	// MatchGlob uses shell-style wildcards (*, ?, character classes),
	// the same vocabulary filepath.Match implements.
	MatchGlob MatchMode = iota
	// MatchRegex uses POSIX-extended-style regular expressions. Go's RE2
	// engine (regexp) is used as the nearest idiomatic equivalent; it is
	// a superset of POSIX ERE for the patterns dunst configs use in
	// practice (no backreferences).
	MatchRegex
)

// Pattern is a single compiled filter value. A nil *Pattern is a wildcard
// that matches every string (spec 4.1: "an unset pattern is a wildcard").
type Pattern struct {
	raw   string
	mode  MatchMode
	regex *regexp.Regexp
}

// Compile builds a Pattern for the given mode. An empty raw string is
// treated identically to a nil Pattern by callers (Match on a nil receiver
// always matches), so Compile("") is only ever called to preserve the raw
// text for diagnostics.
func Compile(raw string, mode MatchMode) (*Pattern, error) {
	p := &Pattern{raw: raw, mode: mode}
	if mode == MatchRegex {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile regex pattern %q: %w", raw, err)
		}
		p.regex = re
	} else {
		// filepath.Match validates the pattern syntax as a side effect of
		// a trial match against the empty string.
		if _, err := filepath.Match(raw, ""); err != nil {
			return nil, fmt.Errorf("compile glob pattern %q: %w", raw, err)
		}
	}
	return p, nil
}

// Match reports whether s satisfies the pattern. A nil Pattern always
// matches (wildcard semantics).
func (p *Pattern) Match(s string) bool {
	if p == nil {
		return true
	}
	switch p.mode {
	case MatchRegex:
		return p.regex.MatchString(s)
	default:
		ok, err := filepath.Match(p.raw, s)
		return err == nil && ok
	}
}

// String returns the original pattern text, for logging.
func (p *Pattern) String() string {
	if p == nil {
		return "*"
	}
	return p.raw
}
