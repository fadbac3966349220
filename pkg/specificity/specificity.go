// Package specificity ranks URL patterns by how narrowly they target URL
// space. Scores only order patterns; their absolute values carry no meaning.
package specificity

import (
	"strings"

	"github.com/praetorian-inc/autogroup/pkg/pattern"
)

const (
	baseScore = 1

	anyHostScore       = 1
	subdomainHostScore = 5
	baseDomainScore    = 8
	specificHostScore  = 12
	hostLabelScore     = 2

	anyPathScore     = 2
	pathSegmentScore = 6
	exactPathBonus   = 2

	anySchemeScore      = 0
	noSchemeScore       = 1
	webSchemeScore      = 3
	concreteSchemeScore = 4
)

// Score returns the specificity of a raw pattern. Regex literals and
// patterns that do not parse receive the base score only.
func Score(raw string) int {
	if pattern.IsRegexLiteral(raw) {
		return baseScore
	}
	p, err := pattern.Parse(raw)
	if err != nil {
		return baseScore
	}

	return baseScore + hostScore(p) + pathScore(p) + schemeScore(p)
}

func hostScore(p *pattern.Parsed) int {
	switch p.Kind {
	case pattern.KindAny:
		return anyHostScore
	case pattern.KindFile:
		return 0
	case pattern.KindScheme:
		// The first path segment plays the part of the host.
		host, _, _ := strings.Cut(p.Path, "/")
		if host == "" || strings.Contains(host, "*") {
			return anyHostScore
		}
		return specificHostScore + hostLabelScore*labels(host)
	}

	switch p.HostKind {
	case pattern.HostAny:
		return anyHostScore
	case pattern.HostSubdomains:
		return subdomainHostScore + hostLabelScore*labels(p.Host)
	}
	score := specificHostScore
	if pattern.IsBaseDomain(p.Host) {
		score = baseDomainScore
	}
	return score + hostLabelScore*labels(p.Host)
}

func pathScore(p *pattern.Parsed) int {
	if !p.HasPath {
		return 0
	}

	path := p.Path
	switch p.Kind {
	case pattern.KindScheme:
		var ok bool
		if _, path, ok = strings.Cut(p.Path, "/"); !ok {
			return 0
		}
	case pattern.KindFile:
		path = strings.TrimPrefix(path, "/")
	}

	if path == "*" {
		return anyPathScore
	}
	score := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && seg != "*" {
			score += pathSegmentScore
		}
	}
	if !strings.Contains(path, "*") {
		score += exactPathBonus
	}
	return score
}

func schemeScore(p *pattern.Parsed) int {
	switch p.Scheme {
	case "":
		return noSchemeScore
	case "*":
		return anySchemeScore
	case "http", "https":
		return webSchemeScore
	default:
		return concreteSchemeScore
	}
}

func labels(host string) int {
	return strings.Count(host, ".") + 1
}
