package security

import "errors"

// Sentinel errors identifying why ValidateURL rejected a URL. ssrf.go
// wraps the matching sentinel into the returned error via %w, so a
// caller can errors.Is against the category instead of parsing the
// message.
var (
	ErrInvalidProtocol  = errors.New("invalid or disallowed protocol")
	ErrURLNotAllowed    = errors.New("URL not allowed by security policy")
	ErrPrivateIPBlocked = errors.New("access to private IP blocked")
	ErrLocalhostBlocked = errors.New("access to localhost blocked")
	ErrLinkLocalBlocked = errors.New("access to link-local address blocked")
	ErrMetadataBlocked  = errors.New("access to cloud metadata blocked")
)
