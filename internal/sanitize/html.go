package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all HTML. Used for plain-text fields: user
	// names, event titles, locations.
	strictPolicy = bluemonday.StrictPolicy()

	// ugcPolicy allows basic formatting tags in user-generated content.
	// Used for event descriptions.
	ugcPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML tags and trims surrounding whitespace.
func Text(input string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}

// Description sanitizes event descriptions, keeping safe formatting tags
// while removing scripts, iframes and event handlers.
func Description(input string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(input))
}
