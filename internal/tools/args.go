package tools

import (
	"math"
	"strings"

	"github.com/tembo-mcp/tembo-mcp/internal/core"
)

// Args is the decoded "arguments" object of a tools/call request. JSON null
// is treated the same as an absent key.
type Args map[string]any

// lookup returns the first present, non-null value among names.
func (a Args) lookup(names ...string) (any, string, bool) {
	for _, n := range names {
		if v, ok := a[n]; ok && v != nil {
			return v, n, true
		}
	}
	return nil, names[0], false
}

func (a Args) RequiredString(names ...string) (string, error) {
	v, name, ok := a.lookup(names...)
	if !ok {
		return "", core.InvalidArgument("%s is required", names[0])
	}
	s, isString := v.(string)
	if !isString {
		return "", core.InvalidArgument("%s must be a string", name)
	}
	if strings.TrimSpace(s) == "" {
		return "", core.InvalidArgument("%s must not be empty", name)
	}
	return s, nil
}

func (a Args) OptionalString(names ...string) (*string, error) {
	v, name, ok := a.lookup(names...)
	if !ok {
		return nil, nil
	}
	s, isString := v.(string)
	if !isString {
		return nil, core.InvalidArgument("%s must be a string", name)
	}
	return &s, nil
}

func (a Args) OptionalBool(names ...string) (*bool, error) {
	v, name, ok := a.lookup(names...)
	if !ok {
		return nil, nil
	}
	b, isBool := v.(bool)
	if !isBool {
		return nil, core.InvalidArgument("%s must be a boolean", name)
	}
	return &b, nil
}

// OptionalStrings accepts []any (as decoded from JSON) or []string.
func (a Args) OptionalStrings(names ...string) (*[]string, error) {
	v, name, ok := a.lookup(names...)
	if !ok {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		out := append([]string{}, list...)
		return &out, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, isString := item.(string)
			if !isString {
				return nil, core.InvalidArgument("%s[%d] must be a string", name, i)
			}
			out = append(out, s)
		}
		return &out, nil
	default:
		return nil, core.InvalidArgument("%s must be an array of strings", name)
	}
}

func (a Args) OptionalObject(names ...string) (map[string]any, error) {
	v, name, ok := a.lookup(names...)
	if !ok {
		return nil, nil
	}
	m, isMap := v.(map[string]any)
	if !isMap {
		return nil, core.InvalidArgument("%s must be an object", name)
	}
	return m, nil
}

func (a Args) OptionalObjects(names ...string) (*[]map[string]any, error) {
	v, name, ok := a.lookup(names...)
	if !ok {
		return nil, nil
	}
	switch list := v.(type) {
	case []map[string]any:
		out := append([]map[string]any{}, list...)
		return &out, nil
	case []any:
		out := make([]map[string]any, 0, len(list))
		for i, item := range list {
			m, isMap := item.(map[string]any)
			if !isMap {
				return nil, core.InvalidArgument("%s[%d] must be an object", name, i)
			}
			out = append(out, m)
		}
		return &out, nil
	default:
		return nil, core.InvalidArgument("%s must be an array of objects", name)
	}
}

// PositiveInt requires an integral number greater than zero. JSON numbers
// decode as float64, so a fractional part is rejected explicitly.
func (a Args) PositiveInt(names ...string) (int, error) {
	v, name, ok := a.lookup(names...)
	if !ok {
		return 0, core.InvalidArgument("%s is required", names[0])
	}
	var n int64
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || x > math.MaxInt32 {
			return 0, core.InvalidArgument("%s must be a positive integer", name)
		}
		n = int64(x)
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	default:
		return 0, core.InvalidArgument("%s must be a positive integer", name)
	}
	if n <= 0 || n > math.MaxInt32 {
		return 0, core.InvalidArgument("%s must be a positive integer", name)
	}
	return int(n), nil
}
