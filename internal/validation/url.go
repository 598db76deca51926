package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// maxImageURLLength bounds stored image references.
const maxImageURLLength = 2048

// URLValidationError represents a URL validation failure.
type URLValidationError struct {
	Field   string
	Message string
	URL     string
}

func (e URLValidationError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateImageURL validates an optional image reference: well-formed,
// http or https, with a host, and of bounded length. Empty is allowed.
func ValidateImageURL(urlString, fieldName string) error {
	if urlString == "" {
		return nil
	}

	if len(urlString) > maxImageURLLength {
		return URLValidationError{
			Field:   fieldName,
			Message: "URL is too long",
			URL:     urlString[:64] + "...",
		}
	}

	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return URLValidationError{
			Field:   fieldName,
			Message: "invalid URL format",
			URL:     urlString,
		}
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return URLValidationError{
			Field:   fieldName,
			Message: "URL scheme must be http or https",
			URL:     urlString,
		}
	}

	if parsedURL.Host == "" {
		return URLValidationError{
			Field:   fieldName,
			Message: "URL must include a host",
			URL:     urlString,
		}
	}

	return nil
}
