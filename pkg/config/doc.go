// Package config centralizes diagram execution engine configuration:
// execution limits, HTTP client behavior, zero-trust network access
// control, cache sizing, per-run resource ceilings, retry/backoff defaults,
// and the logging level the engine and server construct their loggers
// from.
//
// # Zero Trust Network Access
//
// Every network-reaching Allow* field defaults to false. ApiJob/Hook/
// IntegratedApi requests are denied private IPs, localhost, link-local
// addresses, and cloud metadata endpoints unless a profile explicitly
// turns them on — Development and Testing relax these for local work,
// Production leaves every one blocked.
//
// # Profiles
//
//	cfg := config.Default()      // secure, production-ready baseline
//	cfg := config.Development()  // HTTP/private IPs/localhost allowed, debug logging
//	cfg := config.Production()   // Default with every Allow* pinned false
//	cfg := config.Testing()      // short timeouts, local network allowed
//
// Profiles are independent snapshots, not layered overrides: Development,
// Production and Testing each start from Default() and flip only the
// fields their name implies.
//
// # Validation
//
// Validate rejects negative durations/sizes, an unrecognized LogLevel (see
// pkg/logging.ParseLevel), and any empty string in AllowedURLPatterns or
// AllowedDomains. Clone deep-copies the two domain/pattern slices so a
// caller can hand out cfg.Clone() and mutate it without aliasing the
// original.
//
// # Logging
//
// ToLoggingConfig translates LogLevel/LogPretty into a logging.Config;
// pkg/server and pkg/engine call it when building their default logger so
// a single engine Config controls both network policy and log verbosity.
package config
