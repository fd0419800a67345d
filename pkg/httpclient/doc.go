// Package httpclient builds the *http.Client instances used by ApiJob, Hook,
// and IntegratedApi node executors.
//
// A Builder combines a ClientConfig (auth, timeouts, connection pooling,
// default headers/query params) with the engine's network-access config to
// produce a client that, when FollowRedirects is set, checks every redirect
// target against the engine's SSRF rules. The URL of the initial request is
// not checked by the client. Nothing downstream of Builder.Build
// touches net/http or pkg/security directly.
//
// # Authentication Types
//
//   - None: no authentication (default)
//   - Basic: HTTP Basic Authentication with username and password
//   - Bearer: Bearer Token authentication
//   - APIKey: a static key attached to a header or query parameter
//
// Password, Token and APIKeyValue are carried as SecureString so a
// *ClientConfig never leaks credentials through %v/%+v logging or JSON
// marshaling of the config struct itself.
//
// # Example Usage
//
//	config := &httpclient.ClientConfig{
//	    Name:     "github-api",
//	    AuthType: httpclient.AuthTypeBearer,
//	    Token:    httpclient.NewSecureString(os.Getenv("GITHUB_TOKEN")),
//	    Timeout:  60 * time.Second,
//	    DefaultHeaders: map[string]string{
//	        "Accept":     "application/vnd.github.v3+json",
//	        "User-Agent": "dipeo-execengine",
//	    },
//	}
//
//	builder := httpclient.NewBuilder(engineConfig)
//	client, err := builder.Build(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// NewPortAdapter wraps a Builder as a ports.HttpCallerPort for ApiJob/Hook
// nodes; pkg/ports/integratedapi wraps the same Builder for its provider
// templates.
//
// # Security Considerations
//
//   - Redirect targets are checked against the engine configuration's SSRF
//     rules (pkg/config's AllowPrivateIPs/AllowLocalhost/AllowLinkLocal/AllowCloudMetadata)
//     when FollowRedirects is set; redirects are not followed by default
//   - Credentials should be passed via environment variables, not hardcoded
//   - MaxResponseSize is validated as a setting but not applied: response
//     bodies are read in full
//   - Redirect validation prevents redirect-based SSRF attacks
//   - Connection pooling limits prevent resource exhaustion
package httpclient
