// Package matcher implements the ignore-aware structural equality used to
// pair an intercepted call with a recorded one.
package matcher

import (
	"fmt"
	"reflect"

	"github.com/stubtape/stubtape/pkg/models"
)

// IgnoreSet holds the field names excluded from request comparison. A name
// matches either a bare field key at any depth or a full dotted path from the
// argument root (e.g. "metadata.request_id").
type IgnoreSet map[string]struct{}

func NewIgnoreSet(fields ...string) IgnoreSet {
	set := make(IgnoreSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Union returns a new set containing the fields of both sets. Neither
// receiver nor argument is mutated.
func (s IgnoreSet) Union(other IgnoreSet) IgnoreSet {
	out := make(IgnoreSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

func (s IgnoreSet) contains(key, path string) bool {
	if _, ok := s[key]; ok {
		return true
	}
	_, ok := s[path]
	return ok
}

// Match reports whether two normalized requests are equal: same method
// identity and equal argument mappings after removing every ignored field.
// Comparison is recursive and independent of field order.
func Match(a, b models.Request, ignored IgnoreSet) bool {
	if a.Method != b.Method {
		return false
	}
	return matchMaps("", a.Args, b.Args, ignored)
}

// MatchFunc adapts an ignore set to the models.MatchFunc shape consumed by
// cassette lookup and append.
func MatchFunc(ignored IgnoreSet) models.MatchFunc {
	return func(a, b models.Request) bool {
		return Match(a, b, ignored)
	}
}

func matchMaps(prefix string, expected, actual map[string]interface{}, ignored IgnoreSet) bool {
	for key, expVal := range expected {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if ignored.contains(key, path) {
			continue
		}
		actVal, ok := actual[key]
		if !ok {
			return false
		}
		if !matchValues(path, expVal, actVal, ignored) {
			return false
		}
	}
	for key := range actual {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if ignored.contains(key, path) {
			continue
		}
		if _, ok := expected[key]; !ok {
			return false
		}
	}
	return true
}

func matchValues(path string, expected, actual interface{}, ignored IgnoreSet) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := actual.(map[string]interface{})
		if !ok {
			return false
		}
		return matchMaps(path, exp, act, ignored)
	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok {
			return false
		}
		if len(exp) != len(act) {
			return false
		}
		for i := range exp {
			if !matchValues(path, exp[i], act[i], ignored) {
				return false
			}
		}
		return true
	}

	// Scalars. YAML decodes numbers as int while the live-call codecs
	// produce float64, so numeric kinds compare by value, not type.
	if expNum, ok := toFloat(expected); ok {
		actNum, ok := toFloat(actual)
		return ok && expNum == actNum
	}
	if reflect.TypeOf(expected) != reflect.TypeOf(actual) {
		return false
	}
	return expected == actual
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Strip returns a copy of args with every ignored field removed, recursively.
// Used to render diagnostics that reflect what comparison actually saw.
func Strip(args map[string]interface{}, ignored IgnoreSet) map[string]interface{} {
	return stripMap("", args, ignored)
}

func stripMap(prefix string, args map[string]interface{}, ignored IgnoreSet) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for key, val := range args {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if ignored.contains(key, path) {
			continue
		}
		if nested, ok := val.(map[string]interface{}); ok {
			out[key] = stripMap(path, nested, ignored)
			continue
		}
		out[key] = val
	}
	return out
}

// InterfaceToString renders a scalar for log fields and error messages.
func InterfaceToString(val interface{}) string {
	switch v := val.(type) {
	case int:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%f", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
