package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"basegraph.app/herald/internal/pipeline"
)

const regexPrefix = "regex:"

// DefaultMaxPatterns bounds a TermMatcher created with a non-positive size.
const DefaultMaxPatterns = 512

// TermMatcher checks text against blocked terms and caches compiled
// "regex:" patterns. The cache is dropped wholesale when it is full.
type TermMatcher struct {
	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
	max      int
}

func NewTermMatcher(maxPatterns int) *TermMatcher {
	if maxPatterns <= 0 {
		maxPatterns = DefaultMaxPatterns
	}
	return &TermMatcher{patterns: make(map[string]*regexp.Regexp), max: maxPatterns}
}

func BlockedTerms(d Deps) pipeline.Handler {
	terms := d.Terms
	if terms == nil {
		terms = NewTermMatcher(0)
	}
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		s, err := effective(ctx, d, ec)
		if err != nil {
			return true, fmt.Errorf("resolving settings: %w", err)
		}
		if len(s.BlockedTerms) == 0 {
			return true, nil
		}
		if terms.Matches(ctx, ec.Title+" "+ec.Body, s.BlockedTerms) {
			return skip(ec, ReasonBlockedTerm)
		}
		return true, nil
	}
}

// MatchesBlockedTerm is Matches without a pattern cache.
func MatchesBlockedTerm(ctx context.Context, text string, terms []string) bool {
	var m *TermMatcher
	return m.Matches(ctx, text, terms)
}

// Matches checks text against plain terms (case-insensitive substring) and
// "regex:" patterns. Malformed patterns never match. A nil matcher compiles
// patterns on every call.
func (m *TermMatcher) Matches(ctx context.Context, text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if pattern, ok := strings.CutPrefix(term, regexPrefix); ok {
			if re := m.compile(ctx, pattern); re != nil && re.MatchString(text) {
				return true
			}
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// Len returns the number of cached patterns, malformed ones included.
func (m *TermMatcher) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patterns)
}

// compile caches malformed patterns as nil so they are reported once.
func (m *TermMatcher) compile(ctx context.Context, pattern string) *regexp.Regexp {
	if m == nil {
		return compilePattern(ctx, pattern)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.patterns[pattern]; ok {
		return re
	}
	re := compilePattern(ctx, pattern)
	if len(m.patterns) >= m.max {
		clear(m.patterns)
	}
	m.patterns[pattern] = re
	return re
}

func compilePattern(ctx context.Context, pattern string) *regexp.Regexp {
	re, err := regexp.Compile(pattern)
	if err != nil {
		slog.WarnContext(ctx, "ignoring malformed blocked-term pattern", "pattern", pattern, "error", err)
		return nil
	}
	return re
}
