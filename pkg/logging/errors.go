package logging

import "errors"

// ErrInvalidLogLevel is returned by ParseLevel for anything other than
// debug/info/warn/warning/error. pkg/config.Config.Validate checks a
// configured LogLevel against it before the value ever reaches New.
var ErrInvalidLogLevel = errors.New("invalid log level")
