package api

import (
	"fmt"
	"strings"
)

// Media-type negotiation as small pure parsers, kept independent of the HTTP
// framework so they stay unit-testable without a server.

// AcceptsJSON reports whether an Accept header value permits a JSON
// response. An absent header (empty value) and the wildcard are acceptable;
// otherwise the media type must be exactly application/json, with any
// ;-separated parameters ignored.
func AcceptsJSON(value string) bool {
	if value == "" || value == "*/*" {
		return true
	}
	mediaType, _, _ := strings.Cut(value, ";")
	return strings.TrimSpace(mediaType) == "application/json"
}

// DeclaresJSON reports whether a Content-Type header value declares an
// application/json body. The header must be present and carry
// application/json as one of its ;-separated segments.
func DeclaresJSON(value string) bool {
	if value == "" {
		return false
	}
	for _, segment := range strings.Split(value, ";") {
		if strings.TrimSpace(segment) == "application/json" {
			return true
		}
	}
	return false
}

// checkAccept rejects unacceptable Accept headers, reporting the offending
// value.
func checkAccept(value string) error {
	if AcceptsJSON(value) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrMediaNotSupported, value)
}

// checkContentType rejects write requests without a JSON content type,
// reporting the offending value.
func checkContentType(value string) error {
	if DeclaresJSON(value) {
		return nil
	}
	if value == "" {
		return fmt.Errorf("%w: header not present", ErrUnsupportedContentType)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedContentType, value)
}
