// Package conflict manages the marker appended to a group title when it
// collides with a live tab group the user renamed to the same title.
package conflict

import (
	"fmt"

	"github.com/coregx/coregex"
	"github.com/google/uuid"
)

var markerRe = coregex.MustCompile(` <conflict:[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}>$`)

// HasMarker reports whether title ends in a conflict marker.
func HasMarker(title string) bool {
	return markerRe.MatchString(title)
}

// WithoutMarker strips a trailing conflict marker.
func WithoutMarker(title string) string {
	return markerRe.ReplaceAllString(title, "")
}

// WithMarker appends a fresh conflict marker. A title that already carries
// one keeps it unless recreate is set.
func WithMarker(title string, recreate bool) string {
	if HasMarker(title) {
		if !recreate {
			return title
		}
		title = WithoutMarker(title)
	}
	return fmt.Sprintf("%s <conflict:%s>", title, uuid.NewString())
}
