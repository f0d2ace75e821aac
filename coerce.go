package ioc

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// coerce casts a supplied value to a builtin parameter type. Casts never
// fail: text that is not numeric becomes zero, scalars given for arrays are
// wrapped, and so on. Types without a cast rule pass through unchanged.
func coerce(v any, typeName string) any {
	switch typeName {
	case TypeInt:
		return toInt(v)
	case TypeFloat:
		return toFloat(v)
	case TypeString:
		return toString(v)
	case TypeBool:
		return toBool(v)
	case TypeArray:
		return toArray(v)
	case TypeObject:
		return toObject(v)
	}
	return v
}

func toInt(v any) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return int(f)
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}
		return 0
	case reflect.String:
		prefix := numericPrefix(rv.String())
		if i, err := strconv.Atoi(prefix); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(prefix, 64)
		return toInt(f)
	case reflect.Slice, reflect.Array, reflect.Map:
		if rv.Len() > 0 {
			return 1
		}
		return 0
	}
	return 1
}

func toFloat(v any) float64 {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		f, _ := strconv.ParseFloat(numericPrefix(rv.String()), 64)
		return f
	}
	return float64(toInt(v))
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return ""
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func toBool(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		s := rv.String()
		return s != "" && s != "0"
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return !rv.IsZero()
}

func toArray(v any) any {
	if v == nil {
		return []any{}
	}
	if isList(v) || reflect.TypeOf(v).Kind() == reflect.Map {
		return v
	}
	return []any{v}
}

func toObject(v any) any {
	if v == nil {
		return map[string]any{}
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Struct, reflect.Pointer:
		return v
	}
	return map[string]any{"scalar": v}
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// numericPrefix returns the leading part of s that reads as a decimal
// number, allowing a sign, a fraction and an exponent.
func numericPrefix(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := scanDigits(s, end)
	if digits == end {
		return "0"
	}
	end = digits
	if end < len(s) && s[end] == '.' {
		end = scanDigits(s, end+1)
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		if expEnd := scanDigits(s, exp); expEnd > exp {
			end = expEnd
		}
	}
	return s[:end]
}

func scanDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
