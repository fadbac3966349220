package pattern

import (
	"strings"

	"github.com/coregx/coregex"
)

const (
	anyPortExpr   = `(?::[0-9]+)?`
	subdomainExpr = `[^/?#@:]+\.`
)

type globPredicate struct {
	expr string
	re   *coregex.Regex
}

func compileGlob(pattern string) (Predicate, error) {
	parsed, err := Parse(pattern)
	if err != nil {
		return nil, err
	}
	if parsed.Kind == KindAny {
		return matchAll{}, nil
	}

	expr := parsed.Expression()
	re, err := coregex.Compile(expr)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: pattern, Reason: "cannot compile expression", Err: err}
	}
	return &globPredicate{expr: expr, re: re}, nil
}

func (p *globPredicate) Match(url string) bool {
	return p.re.MatchString(strings.ToLower(url))
}

func (p *globPredicate) String() string {
	return p.expr
}

// Expression renders the anchored regular expression the pattern compiles
// to. URLs are lower-cased before they are tested against it.
func (p *Parsed) Expression() string {
	var b strings.Builder
	b.WriteString("^")

	switch p.Kind {
	case KindAny:
		b.WriteString(".*")
	case KindFile:
		b.WriteString("file://")
		b.WriteString(globExpr(p.Path))
	case KindScheme:
		b.WriteString(coregex.QuoteMeta(p.Scheme))
		b.WriteString("://")
		b.WriteString(globExpr(p.Path))
	case KindURL:
		if p.Scheme == "" || p.Scheme == "*" {
			b.WriteString("https?")
		} else {
			b.WriteString(coregex.QuoteMeta(p.Scheme))
		}
		b.WriteString("://")
		b.WriteString(p.hostExpr())
		if p.Port != "" {
			b.WriteString(":" + p.Port)
		} else {
			b.WriteString(anyPortExpr)
		}
		b.WriteString(p.pathExpr())
	}

	b.WriteString("$")
	return b.String()
}

func (p *Parsed) hostExpr() string {
	switch p.HostKind {
	case HostAny:
		return `[^/?#]+`
	case HostSubdomains:
		return subdomainExpr + coregex.QuoteMeta(p.Host)
	}

	var b strings.Builder
	if p.Userinfo != "" {
		b.WriteString(coregex.QuoteMeta(p.Userinfo + "@"))
	}
	if IsBaseDomain(p.Host) {
		b.WriteString("(?:" + subdomainExpr + ")?")
	}
	b.WriteString(coregex.QuoteMeta(p.Host))
	return b.String()
}

func (p *Parsed) pathExpr() string {
	switch {
	case !p.HasPath:
		return `(?:[/?#].*)?`
	case p.Path == "":
		return `/?`
	case p.Path == "*":
		return `(?:/.*)?`
	default:
		return "/" + globExpr(p.Path)
	}
}

// globExpr quotes s, turning each "*" into ".*".
func globExpr(s string) string {
	parts := strings.Split(s, "*")
	for i, part := range parts {
		parts[i] = coregex.QuoteMeta(part)
	}
	return strings.Join(parts, ".*")
}
