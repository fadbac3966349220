package pattern

import (
	"net/netip"
	"strings"
)

// secondLevelLabels are registrable middle labels of country-code domains
// such as example.co.uk or example.com.au.
var secondLevelLabels = map[string]bool{
	"co":  true,
	"com": true,
	"net": true,
	"org": true,
	"gov": true,
	"edu": true,
	"ac":  true,
	"mil": true,
}

// IsBaseDomain reports whether host is a registrable root domain: two
// labels, or three labels whose middle label is a well-known second-level
// label and whose last label has exactly two characters. A port suffix is
// ignored. IP literals and single-label hosts are never base domains.
//
// Bare base-domain patterns also match every subdomain.
func IsBaseDomain(host string) bool {
	host = strings.ToLower(host)
	if strings.HasPrefix(host, "[") {
		return false
	}
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return false
	}

	labels := strings.Split(host, ".")
	for _, l := range labels {
		if l == "" {
			return false
		}
	}
	switch len(labels) {
	case 2:
		return true
	case 3:
		return secondLevelLabels[labels[1]] && len(labels[2]) == 2
	default:
		return false
	}
}

// SecondLevelLabel reports whether label is one of the registrable middle
// labels recognised by IsBaseDomain.
func SecondLevelLabel(label string) bool {
	return secondLevelLabels[strings.ToLower(label)]
}
