// Package suggest derives URL patterns a user may want for the page they
// are on, from the exact URL up to whole sites or schemes.
package suggest

import (
	"net/netip"
	"net/url"
	"slices"
	"strings"

	regexp "github.com/coregx/coregex"

	"github.com/praetorian-inc/autogroup/pkg/pattern"
)

// Option is a set of patterns offered together with a description.
type Option struct {
	Patterns    []string `json:"patterns"`
	Description string   `json:"description"`
}

var extensionScheme = regexp.MustCompile(`^(chrome-)?extension$`)

var wellKnownChromePages = map[string]string{
	"extensions": MsgChromeExtensions,
	"downloads":  MsgChromeDownloads,
	"history":    MsgChromeHistory,
	"bookmarks":  MsgChromeBookmarks,
	"apps":       MsgChromeApps,
	"flags":      MsgChromeFlags,
}

// For returns the suggestions for raw, described through catalog (nil
// means English). Unparseable URLs yield none.
func For(raw string, catalog *Catalog) []Option {
	if catalog == nil {
		catalog = English()
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return nil
	}
	scheme := strings.ToLower(u.Scheme)

	switch {
	case scheme == "chrome":
		return chromeOptions(raw, u, catalog)
	case extensionScheme.MatchString(scheme):
		return extensionOptions(raw, scheme, u, catalog)
	case scheme == "file":
		return fileOptions(raw, u, catalog)
	case scheme == "http" || scheme == "https":
		return httpOptions(raw, u, catalog)
	default:
		return []Option{{Patterns: []string{raw}, Description: catalog.Message(MsgGenericExactURL)}}
	}
}

// Patterns flattens suggestions into their patterns, in order.
func Patterns(options []Option) []string {
	var out []string
	for _, o := range options {
		out = append(out, o.Patterns...)
	}
	return out
}

func chromeOptions(raw string, u *url.URL, c *Catalog) []Option {
	var options []Option

	page := strings.ToLower(u.Host)
	section, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	pagePatterns := []string{"chrome://" + page, "chrome://" + page + "/*"}

	if key, ok := wellKnownChromePages[page]; ok {
		options = append(options, Option{Patterns: pagePatterns, Description: c.Message(key)})
	} else {
		switch page {
		case "settings":
			if section != "" {
				options = append(options, Option{
					Patterns:    []string{"chrome://settings/" + section, "chrome://settings/" + section + "/*"},
					Description: c.Message(MsgChromeSettingsSection),
				})
			}
			options = append(options, Option{Patterns: pagePatterns, Description: c.Message(MsgChromeSettings)})
		case "newtab":
			options = append(options, Option{Patterns: []string{raw}, Description: c.Message(MsgChromeNewtab)})
		default:
			options = append(options, Option{Patterns: pagePatterns, Description: c.Message(MsgChromePage, page)})
		}
	}

	options = append(options, Option{Patterns: []string{"chrome://*"}, Description: c.Message(MsgChromeAll)})

	if !slices.Contains(Patterns(options), raw) {
		options = append(options, Option{Patterns: []string{raw}, Description: c.Message(MsgChromeExactURL)})
	}
	return options
}

func extensionOptions(raw, scheme string, u *url.URL, c *Catalog) []Option {
	host := u.Host
	if host == "" {
		host = strings.TrimPrefix(u.Opaque, "//")
	}
	base := scheme + "://" + host
	return []Option{
		{Patterns: []string{base, base + "/*"}, Description: c.Message(MsgExtensionHost)},
		{Patterns: []string{scheme + "://*"}, Description: c.Message(MsgExtensionAll)},
		{Patterns: []string{raw}, Description: c.Message(MsgExtensionExactURL)},
	}
}

func fileOptions(raw string, u *url.URL, c *Catalog) []Option {
	options := []Option{{Patterns: []string{"file://*"}, Description: c.Message(MsgFileAll)}}

	parts := strings.Split(u.Path, "/")
	basename := parts[len(parts)-1]
	dirPath := strings.Join(parts[:len(parts)-1], "/")

	if dirPath != "" {
		description := c.Message(MsgFileThisFolder)
		if basename != "" {
			description = c.Message(MsgFileDirname, parts[len(parts)-2])
		}
		options = append(options, Option{Patterns: []string{"file://" + dirPath + "/*"}, Description: description})
	}

	exact := c.Message(MsgFileExactFolder)
	if basename != "" {
		exact = c.Message(MsgFileExactFile)
	}
	return append(options, Option{Patterns: []string{raw}, Description: exact})
}

func httpOptions(raw string, u *url.URL, c *Catalog) []Option {
	host := strings.ToLower(u.Host)
	options := []Option{{Patterns: []string{raw}, Description: c.Message(MsgGenericExactURL)}}

	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	for i := len(segments); i > 0; i-- {
		prefix := host + "/" + strings.Join(segments[:i], "/")
		options = append(options, Option{Patterns: []string{prefix + "/*"}, Description: c.Message(MsgHTTPPath, prefix)})
	}

	if bare, ok := strings.CutPrefix(host, "www."); ok {
		options = append(options,
			Option{Patterns: []string{bare}, Description: c.Message(MsgHTTPDomain, bare)},
			Option{Patterns: []string{host}, Description: c.Message(MsgHTTPWWWOnly, host)},
		)
		return options
	}
	options = append(options, Option{Patterns: []string{host}, Description: c.Message(MsgHTTPDomain, host)})

	if base := baseDomain(strings.ToLower(u.Hostname())); base != "" && base != host {
		options = append(options, Option{Patterns: []string{base}, Description: c.Message(MsgHTTPBaseDomain, base)})
	}
	return options
}

// baseDomain returns the registrable domain of a host with at least three
// labels, or "" when there is none to suggest.
func baseDomain(hostname string) string {
	if _, err := netip.ParseAddr(hostname); err == nil {
		return ""
	}
	labels := strings.Split(hostname, ".")
	if len(labels) < 3 {
		return ""
	}
	keep := 2
	if pattern.SecondLevelLabel(labels[len(labels)-2]) {
		keep = 3
	}
	return strings.Join(labels[len(labels)-keep:], ".")
}
