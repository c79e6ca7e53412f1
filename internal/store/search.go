package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// SearchMode selects how KEYS patterns are evaluated.
type SearchMode int

const (
	ModeGlob SearchMode = iota
	ModeRegex
	ModeTrie
)

func (m SearchMode) String() string {
	switch m {
	case ModeGlob:
		return "GLOB"
	case ModeRegex:
		return "REGEX"
	case ModeTrie:
		return "TRIE"
	}
	return fmt.Sprintf("SearchMode(%d)", int(m))
}

// ParseSearchMode resolves a mode name. It accepts any casing.
func ParseSearchMode(s string) (SearchMode, bool) {
	switch strings.ToUpper(s) {
	case "GLOB":
		return ModeGlob, true
	case "REGEX":
		return ModeRegex, true
	case "TRIE":
		return ModeTrie, true
	}
	return ModeGlob, false
}

// searchKeys evaluates pattern over the live key set. Glob and regex filter
// the full key list; trie mode answers from the prefix index. A bad pattern
// is a request-scoped PatternError.
func searchKeys(mode SearchMode, pattern string, keys []string, trie *Trie) ([]string, error) {
	switch mode {
	case ModeGlob:
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, &PatternError{Pattern: pattern, Err: err}
		}
		out := make([]string, 0)
		for _, k := range keys {
			if g.Match(k) {
				out = append(out, k)
			}
		}
		sort.Strings(out)
		return out, nil
	case ModeRegex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &PatternError{Pattern: pattern, Err: err}
		}
		out := make([]string, 0)
		for _, k := range keys {
			if re.MatchString(k) {
				out = append(out, k)
			}
		}
		sort.Strings(out)
		return out, nil
	default:
		return trie.KeysWithPrefix(pattern), nil
	}
}
