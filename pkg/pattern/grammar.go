package pattern

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"unicode"
)

// Kind is the top-level shape of a match pattern.
type Kind int

const (
	// KindAny is the lone "*" pattern.
	KindAny Kind = iota
	// KindURL is [scheme://]host[:port][/path] with a web scheme.
	KindURL
	// KindFile is file:// followed by an absolute path or "*".
	KindFile
	// KindScheme is any other scheme://rest, matched without host structure.
	KindScheme
)

// HostKind describes the host segment of a KindURL pattern.
type HostKind int

const (
	HostAny        HostKind = iota // "*"
	HostSubdomains                 // "*.suffix"
	HostExact                      // bare host, subject to the smart wildcard
)

var webSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
}

// Parsed is a match pattern split into its parts. All fields are lower-cased.
type Parsed struct {
	Raw      string
	Kind     Kind
	Scheme   string // "" when omitted, "*" for http-or-https
	HostKind HostKind
	Userinfo string
	Host     string // without "*." prefix, userinfo or port
	Port     string
	HasPath  bool
	Path     string // text after the first "/" (KindURL) or after "://" (KindFile, KindScheme)
}

// Parse checks a match pattern against the grammar and returns its parts.
func Parse(pattern string) (*Parsed, error) {
	p := strings.ToLower(pattern)
	switch {
	case p == "":
		return nil, invalid(pattern, "pattern is empty")
	case p == "*":
		return &Parsed{Raw: pattern, Kind: KindAny, HostKind: HostAny}, nil
	case strings.IndexFunc(p, unicode.IsSpace) >= 0:
		return nil, invalid(pattern, "pattern contains whitespace")
	}

	idx := strings.Index(p, "://")
	if idx < 0 || strings.Contains(p[:idx], "/") {
		return parseHostPath(pattern, "", p)
	}
	scheme, rest := p[:idx], p[idx+3:]

	switch {
	case scheme == "file":
		if rest != "*" && !strings.HasPrefix(rest, "/") {
			return nil, invalid(pattern, "file pattern needs an absolute path or *")
		}
		return &Parsed{Raw: pattern, Kind: KindFile, Scheme: scheme, HasPath: true, Path: rest}, nil
	case scheme == "*" || webSchemes[scheme]:
		return parseHostPath(pattern, scheme, rest)
	case isSchemeToken(scheme):
		if rest == "" {
			return nil, invalid(pattern, "nothing follows the scheme")
		}
		return &Parsed{Raw: pattern, Kind: KindScheme, Scheme: scheme, HasPath: true, Path: rest}, nil
	default:
		return nil, invalid(pattern, fmt.Sprintf("invalid scheme %q", scheme))
	}
}

func parseHostPath(raw, scheme, s string) (*Parsed, error) {
	hostport, path, hasPath := strings.Cut(s, "/")
	if hostport == "" {
		return nil, invalid(raw, "missing host")
	}

	out := &Parsed{Raw: raw, Kind: KindURL, Scheme: scheme, HasPath: hasPath, Path: path}
	if hostport == "*" {
		out.HostKind = HostAny
		return out, nil
	}

	out.HostKind = HostExact
	if suffix, ok := strings.CutPrefix(hostport, "*."); ok {
		out.HostKind = HostSubdomains
		hostport = suffix
	} else if i := strings.LastIndexByte(hostport, '@'); i >= 0 {
		out.Userinfo, hostport = hostport[:i], hostport[i+1:]
		if out.Userinfo == "" {
			return nil, invalid(raw, "empty userinfo")
		}
	}

	host, port, err := splitHostPort(hostport)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: raw, Reason: "invalid host", Err: err}
	}
	out.Host, out.Port = host, port
	return out, nil
}

func splitHostPort(hostport string) (host, port string, err error) {
	hasPort := false
	if strings.HasPrefix(hostport, "[") {
		end := strings.IndexByte(hostport, ']')
		if end < 0 {
			return "", "", errors.New("unterminated IPv6 literal")
		}
		host = hostport[:end+1]
		addr, perr := netip.ParseAddr(hostport[1:end])
		if perr != nil || !addr.Is6() {
			return "", "", fmt.Errorf("invalid IPv6 literal %q", host)
		}
		rest := hostport[end+1:]
		if rest != "" {
			if rest[0] != ':' {
				return "", "", fmt.Errorf("unexpected %q after IPv6 literal", rest)
			}
			port, hasPort = rest[1:], true
		}
	} else {
		host, port, hasPort = strings.Cut(hostport, ":")
		if !validHostName(host) {
			return "", "", fmt.Errorf("invalid host name %q", host)
		}
	}

	if hasPort && !validPort(port) {
		return "", "", fmt.Errorf("invalid port %q", port)
	}
	return host, port, nil
}

func validHostName(host string) bool {
	if host == "" || strings.ContainsAny(host, "*@[]\\?#:") {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

func validPort(port string) bool {
	if port == "" || len(port) > 5 {
		return false
	}
	for _, r := range port {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isSchemeToken reports whether s is a letter-led scheme name.
func isSchemeToken(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}
