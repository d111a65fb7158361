package conv

import (
	"encoding/json"
	"strconv"
)

// AsInt64 coerces a generically decoded JSON value into an int64.
// Unknown shapes yield the fallback.
func AsInt64(value interface{}, fallback int64) int64 {
	switch actual := value.(type) {
	case int64:
		return actual
	case int:
		return int64(actual)
	case float64:
		return int64(actual)
	case json.Number:
		if ret, err := actual.Int64(); err == nil {
			return ret
		}
	case string:
		if ret, err := strconv.ParseInt(actual, 10, 64); err == nil {
			return ret
		}
	}
	return fallback
}
