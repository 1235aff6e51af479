package api

import "errors"

// Sentinel errors for request validation. These are produced before any
// business logic runs and never reach the lifecycle service.
var (
	// ErrMediaNotSupported is returned when an Accept header asks for a
	// representation other than JSON.
	ErrMediaNotSupported = errors.New("media type not supported")

	// ErrUnsupportedContentType is returned when a write request does not
	// declare an application/json body.
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrMalformedBody is returned when a write request body is not valid JSON.
	ErrMalformedBody = errors.New("malformed request body")

	// ErrInvalidAttribute is returned when a supplied attribute has the
	// wrong shape, such as a non-text description.
	ErrInvalidAttribute = errors.New("invalid attribute")
)
