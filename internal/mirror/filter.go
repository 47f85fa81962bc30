package mirror

import (
	"fmt"
	"regexp"
	"strings"

	"fetcharr/internal/config"
)

// Reason says why the admission filter rejected a file. ReasonNone means
// the file is admitted.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonTooBig
	ReasonTooSmall
	ReasonRegex
	ReasonExtension
)

func (r Reason) String() string {
	switch r {
	case ReasonTooBig:
		return "too big"
	case ReasonTooSmall:
		return "too small"
	case ReasonRegex:
		return "regex"
	case ReasonExtension:
		return "extension"
	default:
		return "ok"
	}
}

// Filter is the pure admission predicate over a remote file's path and
// size. Compiled once per run from the configured rules.
type Filter struct {
	minSize  int64
	maxSize  int64
	patterns []*regexp.Regexp
	exts     []string
}

func NewFilter(rules config.Rules) (*Filter, error) {
	f := &Filter{
		minSize: rules.MinFileSize,
		maxSize: rules.MaxFileSize,
		exts:    rules.SkipExtensions,
	}

	for _, p := range rules.SkipRegex {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid skip_regex %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}

	return f, nil
}

// Admit checks the rules in order: max size, min size, skip patterns
// (unanchored), skip extensions (case-sensitive suffix). The first failing
// rule wins.
func (f *Filter) Admit(path string, size int64) Reason {
	if f.maxSize > 0 && size > f.maxSize {
		return ReasonTooBig
	}

	if size < f.minSize {
		return ReasonTooSmall
	}

	for _, re := range f.patterns {
		if re.MatchString(path) {
			return ReasonRegex
		}
	}

	for _, ext := range f.exts {
		if strings.HasSuffix(path, ext) {
			return ReasonExtension
		}
	}

	return ReasonNone
}
