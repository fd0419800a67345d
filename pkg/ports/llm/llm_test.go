package llm

import "errors"

var errBoom = errors.New("boom")
