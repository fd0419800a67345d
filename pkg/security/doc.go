// Package security provides outbound request hardening for node kinds that
// make HTTP calls (ApiJob, IntegratedApi, Hook).
//
// # Overview
//
// SSRFProtection.ValidateURL checks a URL against the classic
// server-side request forgery targets: loopback and private address
// ranges, link-local addresses, and cloud metadata endpoints. In this
// module pkg/httpclient calls it on redirect targets when a client follows
// redirects; the HTTP ports do not call it on request URLs.
// It is deliberately narrow — this package does not attempt input
// sanitization, expression safety, or access control; those concerns
// belong to the handlers and middleware that own node inputs directly.
//
// # Basic Usage
//
//	protection := security.NewSSRFProtection()
//
//	if err := protection.ValidateURL(requestURL); err != nil {
//	    return fmt.Errorf("blocked request: %w", err)
//	}
//
// # Configuration
//
//	protection := security.NewSSRFProtectionWithConfig(security.SSRFConfig{
//	    AllowedSchemes:     []string{"https"},
//	    BlockPrivateIPs:    true,
//	    BlockLocalhost:     true,
//	    BlockLinkLocal:     true,
//	    BlockCloudMetadata: true,
//	    AllowedDomains:     []string{"api.example.com"},
//	})
//
// ValidateURL parses the URL, checks its scheme and hostname against the
// allow/block lists, and — for hostnames rather than literal IPs —
// resolves DNS and validates every returned address, so a domain that
// resolves to a private or metadata address is blocked even when the
// hostname itself looks innocuous.
//
// # Thread Safety
//
// SSRFProtection holds no mutable state after construction and is safe
// for concurrent use.
package security
