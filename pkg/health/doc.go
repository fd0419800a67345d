// Package health backs the execution server's /health, /health/live, and
// /health/ready routes.
//
// A Checker aggregates named Checks, each with its own timeout and a
// Critical flag: a critical check failing makes the whole response
// StatusUnhealthy, a non-critical one failing shows in its own CheckResult
// and leaves the overall status unchanged.
// CheckDiagramRepository and CheckStreamingRouter build Checks against
// this module's own ports so readiness reflects whether the server can
// actually save/load diagrams and stream execution events, not just
// whether the HTTP listener is up.
package health
