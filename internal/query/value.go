package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Kind groups dynamic record values into the classes that can be compared
// with each other. Every Go numeric type is a KindNumber.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindTime
	KindOther
)

// ValueKey is a comparable form of a dynamic value. Two values are equal
// exactly when their keys are equal, so the key can address index buckets.
type ValueKey struct {
	Kind Kind
	Repr string
}

// TupleKey joins several values into one key, used by multi-field indexes.
func TupleKey(values ...any) ValueKey {
	if len(values) == 1 {
		return KeyOf(values[0])
	}
	parts := make([]string, len(values))
	for i, v := range values {
		k := KeyOf(v)
		parts[i] = strconv.Itoa(int(k.Kind)) + ":" + k.Repr
	}
	return ValueKey{Kind: KindOther, Repr: strings.Join(parts, "\x00")}
}

func KeyOf(v any) ValueKey {
	v = Normalize(v)
	switch v := v.(type) {
	case nil:
		return ValueKey{Kind: KindNil}
	case bool:
		return ValueKey{Kind: KindBool, Repr: strconv.FormatBool(v)}
	case float64:
		return ValueKey{Kind: KindNumber, Repr: formatNumber(v)}
	case string:
		return ValueKey{Kind: KindString, Repr: v}
	case time.Time:
		return ValueKey{Kind: KindTime, Repr: v.UTC().Format(time.RFC3339Nano)}
	default:
		return ValueKey{Kind: KindOther, Repr: encodeOther(v)}
	}
}

// Normalize folds every numeric type into float64 and json.Number into a
// number, leaving other values untouched.
func Normalize(v any) any {
	switch v := v.(type) {
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return string(v)
		}
		return f
	}
	return v
}

func KindOf(v any) Kind {
	return KeyOf(v).Kind
}

// Equal is typed equality: the string "1" never equals the number 1.
func Equal(a, b any) bool {
	return KeyOf(a) == KeyOf(b)
}

// Compare orders two values of the same kind. ok is false when the kinds
// differ or the kind has no order.
func Compare(a, b any) (cmp int, ok bool) {
	a, b = Normalize(a), Normalize(b)
	switch a := a.(type) {
	case float64:
		if b, is := b.(float64); is {
			return compareNumbers(a, b), true
		}
	case string:
		if b, is := b.(string); is {
			return strings.Compare(a, b), true
		}
	case bool:
		if b, is := b.(bool); is {
			if a == b {
				return 0, true
			} else if !a {
				return -1, true
			}
			return 1, true
		}
	case time.Time:
		if b, is := b.(time.Time); is {
			return a.Compare(b), true
		}
	}
	return 0, false
}

func compareNumbers(a, b float64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

// String is the text form used by the string operators and by composite
// keys. nil becomes the empty string.
func String(v any) string {
	v = Normalize(v)
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatNumber(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return encodeOther(v)
	}
}

// Contains reports whether list (any slice or array) holds a value equal to v.
// A non-list never contains anything.
func Contains(list, v any) bool {
	if list == nil {
		return false
	}
	if l, ok := list.([]any); ok {
		for _, item := range l {
			if Equal(item, v) {
				return true
			}
		}
		return false
	}

	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if Equal(rv.Index(i).Interface(), v) {
			return true
		}
	}
	return false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func encodeOther(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
