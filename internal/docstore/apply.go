package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return parts, nil
}

func lookup(data map[string]any, parts []string) (any, bool) {
	var cur any = data
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Number converts a decoded JSON number to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// resolve replaces ServerTimestamp sentinels inside maps and slices.
func resolve(v any, now time.Time) (any, error) {
	switch val := v.(type) {
	case sentinel:
		if val == serverTimestamp {
			return formatTime(now), nil
		}
		return nil, fmt.Errorf("docstore: DeleteField is only valid as a top-level update value")
	case increment, arrayUnion:
		return nil, fmt.Errorf("docstore: field transforms cannot be nested")
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			r, err := resolve(item, now)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			r, err := resolve(item, now)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case time.Time:
		return formatTime(val), nil
	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return formatTime(*val), nil
	}
	return v, nil
}

// hasTransform reports whether v holds a sentinel or field transform at any
// depth.
func hasTransform(v any) bool {
	switch val := v.(type) {
	case sentinel, increment, arrayUnion:
		return true
	case map[string]any:
		for _, item := range val {
			if hasTransform(item) {
				return true
			}
		}
	case []any:
		for _, item := range val {
			if hasTransform(item) {
				return true
			}
		}
	}
	return false
}

// filterValue normalizes a query filter value. Query.validate has already
// rejected transforms, so no clock is needed.
func filterValue(v any) (any, error) {
	return normalize(v, time.Time{})
}

// normalize turns any JSON-encodable value into its decoded JSON form
// (map[string]any, []any, float64, string, bool, nil).
func normalize(v any, now time.Time) (any, error) {
	resolved, err := resolve(v, now)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("docstore: decode value: %w", err)
	}
	return out, nil
}

func normalizeObject(v any, now time.Time) (map[string]any, error) {
	n, err := normalize(v, now)
	if err != nil {
		return nil, err
	}
	m, ok := n.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("docstore: document data must be an object, got %T", v)
	}
	return m, nil
}

func applyUpdates(data map[string]any, updates []Update, now time.Time) error {
	for _, u := range updates {
		if err := applyUpdate(data, u, now); err != nil {
			return err
		}
	}
	return nil
}

func applyUpdate(data map[string]any, u Update, now time.Time) error {
	parts, err := splitPath(u.Path)
	if err != nil {
		return err
	}

	parent := data
	for _, p := range parts[:len(parts)-1] {
		next, ok := parent[p]
		if !ok || next == nil {
			child := map[string]any{}
			parent[p] = child
			parent = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q crosses a non-object value", ErrInvalidPath, u.Path)
		}
		parent = child
	}
	last := parts[len(parts)-1]

	switch val := u.Value.(type) {
	case sentinel:
		if val == deleteField {
			delete(parent, last)
			return nil
		}
		parent[last] = formatTime(now)
	case increment:
		cur, _ := Number(parent[last])
		parent[last] = cur + val.delta
	case arrayUnion:
		cur, _ := parent[last].([]any)
		for _, e := range val.elems {
			ne, err := normalize(e, now)
			if err != nil {
				return err
			}
			if !containsValue(cur, ne) {
				cur = append(cur, ne)
			}
		}
		if cur == nil {
			cur = []any{}
		}
		parent[last] = cur
	default:
		nv, err := normalize(u.Value, now)
		if err != nil {
			return err
		}
		parent[last] = nv
	}
	return nil
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

// mergeObjects merges src into dst; nested objects are merged, everything
// else is replaced.
func mergeObjects(dst, src map[string]any) {
	for k, v := range src {
		sm, sok := v.(map[string]any)
		dm, dok := dst[k].(map[string]any)
		if sok && dok {
			mergeObjects(dm, sm)
			continue
		}
		dst[k] = v
	}
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	}
	return v
}

func copyObject(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return deepCopy(m).(map[string]any)
}

// compareValues orders two normalized values of the same JSON type.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func matches(data map[string]any, f Filter, value any) bool {
	parts, err := splitPath(f.Path)
	if err != nil {
		return false
	}
	field, ok := lookup(data, parts)
	if !ok {
		return false
	}

	switch f.Op {
	case OpEq:
		return reflect.DeepEqual(field, value)
	case OpNe:
		return !reflect.DeepEqual(field, value)
	case OpIn:
		list, ok := value.([]any)
		return ok && containsValue(list, field)
	}

	c, ok := compareValues(field, value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	}
	return false
}
