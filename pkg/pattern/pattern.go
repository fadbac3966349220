// Package pattern compiles user-authored URL matchers into predicates.
//
// Two input forms are accepted. Match patterns are glob-like URL
// expressions ("github.com/org/*", "*.example.com", "https://*/docs/*",
// "file:///home/*", "chrome://settings") and are matched case-insensitively.
// Regex literals ("/^https:\/\/mail\./i") are compiled with ECMAScript
// semantics and honour the author's flags.
package pattern

// Predicate decides whether a URL is claimed by a compiled matcher.
// Predicates are immutable and safe for concurrent use.
type Predicate interface {
	Match(url string) bool

	// String returns the compiled expression, for diagnostics.
	String() string
}

// CompileFunc compiles one matcher. Compile and (*Compiler).Compile both
// satisfy it.
type CompileFunc func(pattern string, isRegex bool) (Predicate, error)

// Compile turns a matcher into a predicate.
//
// When isRegex is set, or the pattern is shaped like a /source/flags
// literal, the pattern is compiled as a regular expression. A regex that
// fails to parse or compile returns an *InvalidPatternError together with a
// predicate that never matches, so bulk callers may keep going.
//
// Any other pattern must satisfy the match-pattern grammar; violations
// return an *InvalidPatternError and a nil predicate.
func Compile(pattern string, isRegex bool) (Predicate, error) {
	if isRegex || IsRegexLiteral(pattern) {
		return compileRegex(pattern)
	}
	return compileGlob(pattern)
}

// Validate reports whether the matcher compiles.
func Validate(pattern string, isRegex bool) error {
	_, err := Compile(pattern, isRegex)
	return err
}

type matchAll struct{}

func (matchAll) Match(string) bool { return true }
func (matchAll) String() string    { return "^.*$" }

type never struct {
	pattern string
}

func (never) Match(string) bool { return false }
func (n never) String() string  { return "(never) " + n.pattern }
