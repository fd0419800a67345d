package types

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"reflect"
	"time"

	"github.com/dipeo/execengine/pkg/config"
)

// GenerateExecutionID creates a unique execution identifier in the form
// "exec_" followed by 32 lowercase hex characters, per the execution ID
// format required of externally supplied IDs.
func GenerateExecutionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("exec_%032x", time.Now().UnixNano())
	}
	return "exec_" + hex.EncodeToString(buf)
}

// ValidateExecutionID reports whether id matches the required
// "exec_" + 32 lowercase hex characters format.
func ValidateExecutionID(id string) bool {
	const prefix = "exec_"
	if len(id) != len(prefix)+32 || id[:len(prefix)] != prefix {
		return false
	}
	for _, r := range id[len(prefix):] {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}

// ValidateValue validates a value against the resource limits in config.
// Returns an error if the value violates any limit.
func ValidateValue(value interface{}, cfg config.Config) error {
	if value == nil {
		return nil
	}

	if cfg.MaxStringLength > 0 {
		if str, ok := value.(string); ok && len(str) > cfg.MaxStringLength {
			return fmt.Errorf("string too long: %d bytes (limit: %d)", len(str), cfg.MaxStringLength)
		}
	}

	if cfg.MaxArrayLength > 0 {
		if arr, ok := value.([]interface{}); ok {
			if len(arr) > cfg.MaxArrayLength {
				return fmt.Errorf("array too large: %d elements (limit: %d)", len(arr), cfg.MaxArrayLength)
			}
			for i, elem := range arr {
				if err := ValidateValue(elem, cfg); err != nil {
					return fmt.Errorf("array element %d: %w", i, err)
				}
			}
		}
	}

	if cfg.MaxContextDepth > 0 {
		if depth := valueDepth(value); depth > cfg.MaxContextDepth {
			return fmt.Errorf("value too deeply nested: %d levels (limit: %d)", depth, cfg.MaxContextDepth)
		}
	}

	return nil
}

func valueDepth(value interface{}) int {
	if value == nil {
		return 0
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Map:
		maxDepth := 0
		iter := v.MapRange()
		for iter.Next() {
			if d := valueDepth(iter.Value().Interface()); d > maxDepth {
				maxDepth = d
			}
		}
		return 1 + maxDepth
	case reflect.Slice, reflect.Array:
		maxDepth := 0
		for i := 0; i < v.Len(); i++ {
			if d := valueDepth(v.Index(i).Interface()); d > maxDepth {
				maxDepth = d
			}
		}
		return 1 + maxDepth
	default:
		return 1
	}
}
