package siteconfig

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// stringifyValue converts a decoded JSON primitive to its stored string
// form. Arrays, objects and null are rejected.
func stringifyValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case nil:
		return "", fmt.Errorf("value must not be null")
	case map[string]any, []any:
		return "", fmt.Errorf("value must be a string, number or boolean")
	}
	return "", fmt.Errorf("unsupported value of type %T", value)
}
