package pattern

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// regexFlags are the flag letters accepted after the closing slash.
const regexFlags = "dgimsuvy"

// MatchTimeout bounds a single regex evaluation against one URL.
const MatchTimeout = time.Second

type regexPredicate struct {
	re *regexp2.Regexp
}

// IsRegexLiteral reports whether s is shaped like /source/flags.
func IsRegexLiteral(s string) bool {
	_, _, err := ParseRegexLiteral(s)
	return err == nil
}

// ParseRegexLiteral splits /source/flags into its source and flags.
func ParseRegexLiteral(s string) (source, flags string, err error) {
	if len(s) < 2 || s[0] != '/' {
		return "", "", errors.New("regular expression must start with /")
	}
	end := strings.LastIndexByte(s, '/')
	if end == 0 {
		return "", "", errors.New("regular expression must end with /")
	}

	source, flags = s[1:end], s[end+1:]
	if source == "" {
		return "", "", errors.New("regular expression is empty")
	}
	for i, f := range flags {
		if !strings.ContainsRune(regexFlags, f) {
			return "", "", fmt.Errorf("invalid flag %q", f)
		}
		if strings.ContainsRune(flags[:i], f) {
			return "", "", fmt.Errorf("duplicate flag %q", f)
		}
	}
	return source, flags, nil
}

func compileRegex(pattern string) (Predicate, error) {
	source, flags, err := ParseRegexLiteral(pattern)
	if err != nil {
		return never{pattern: pattern}, &InvalidPatternError{Pattern: pattern, Reason: "malformed regular expression", Err: err}
	}

	// g, y and d change iteration state only, which a single test ignores.
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u', 'v':
			opts |= regexp2.Unicode
		}
	}

	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return never{pattern: pattern}, &InvalidPatternError{Pattern: pattern, Reason: "cannot compile regular expression", Err: err}
	}
	// Set timeout to prevent catastrophic backtracking
	re.MatchTimeout = MatchTimeout
	return &regexPredicate{re: re}, nil
}

// Match is unanchored: the expression may match anywhere in the URL.
func (p *regexPredicate) Match(url string) bool {
	ok, err := p.re.MatchString(url)
	return err == nil && ok
}

func (p *regexPredicate) String() string {
	return p.re.String()
}
