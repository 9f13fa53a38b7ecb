package storage

import (
	"fmt"
	"strconv"
)

// String returns the column as text. Missing and NULL columns report false.
func (r Row) String(col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return fmt.Sprint(x), true
	}
}

// Int returns the column as an integer. Text holding a number is parsed;
// anything else reports false.
func (r Row) Int(col string) (int64, bool) {
	switch x := r[col].(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
