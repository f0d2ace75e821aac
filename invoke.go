package ioc

import (
	"fmt"
	"math"
	"reflect"
)

// callFunc converts args onto fn's parameter types and calls it. The
// non-error results are returned in order; a non-nil trailing error result is
// returned as-is so the caller sees the function's own error.
func callFunc(owner string, fn reflect.Value, info *funcInfo, args []any) ([]any, error) {
	in, spread, err := buildCallArgs(owner, fn.Type(), args)
	if err != nil {
		return nil, err
	}

	var results []reflect.Value
	if spread {
		results = fn.CallSlice(in)
	} else {
		results = fn.Call(in)
	}
	return splitResults(results, info.hasError)
}

// splitResults separates a trailing error result from the values.
func splitResults(results []reflect.Value, hasError bool) ([]any, error) {
	if hasError {
		last := results[len(results)-1]
		results = results[:len(results)-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}
	values := make([]any, len(results))
	for i, r := range results {
		values[i] = r.Interface()
	}
	return values, nil
}

// buildCallArgs produces the reflect arguments for a call. Missing fixed
// arguments become zero values and surplus ones are ignored unless fnType is
// variadic, in which case they are converted to the element type. A single
// slice in the variadic position is passed through CallSlice instead.
func buildCallArgs(owner string, fnType reflect.Type, args []any) ([]reflect.Value, bool, error) {
	n := fnType.NumIn()
	fixed := n
	if fnType.IsVariadic() {
		fixed = n - 1
	}

	in := make([]reflect.Value, 0, n)
	for i := 0; i < fixed; i++ {
		var v any
		if i < len(args) {
			v = args[i]
		}
		rv, err := convertValue(v, fnType.In(i))
		if err != nil {
			return nil, false, invalidArgument(owner, i, err)
		}
		in = append(in, rv)
	}
	if !fnType.IsVariadic() || len(args) <= fixed {
		return in, false, nil
	}

	rest := args[fixed:]
	sliceType := fnType.In(n - 1)
	if len(rest) == 1 && rest[0] != nil {
		if k := reflect.TypeOf(rest[0]).Kind(); k == reflect.Slice || k == reflect.Array {
			rv, err := convertValue(rest[0], sliceType)
			if err == nil {
				return append(in, rv), true, nil
			}
		}
	}
	for i, v := range rest {
		rv, err := convertValue(v, sliceType.Elem())
		if err != nil {
			return nil, false, invalidArgument(owner, fixed+i, err)
		}
		in = append(in, rv)
	}
	return in, false, nil
}

func invalidArgument(owner string, index int, err error) error {
	return &ContainerError{
		Kind:        ErrInvalidArgument,
		ID:          owner,
		Param:       fmt.Sprintf("#%d", index),
		SourceError: err,
	}
}

// convertValue turns v into a value of type t. Values are assigned directly
// when possible, slices and maps are converted element by element, and the
// remaining Go conversions are allowed except number to string, which would
// produce a rune rather than the number's text.
func convertValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		if rv.Type() == t {
			return rv, nil
		}
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}

	switch {
	case t.Kind() == reflect.Slice && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array):
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := convertValue(rv.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case t.Kind() == reflect.Map && rv.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(t, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			kv, err := convertValue(iter.Key().Interface(), t.Key())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			ev, err := convertValue(iter.Value().Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("value for %v: %w", iter.Key(), err)
			}
			out.SetMapIndex(kv, ev)
		}
		return out, nil
	case t.Kind() == reflect.String && rv.Kind() != reflect.String,
		rv.Kind() == reflect.Slice && t.Kind() != reflect.Slice:
		return reflect.Value{}, fmt.Errorf("cannot use %T as %v", v, t)
	case rv.Type().ConvertibleTo(t):
		if err := checkNumericRange(rv, t); err != nil {
			return reflect.Value{}, err
		}
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %v", v, t)
}

// checkNumericRange rejects numeric conversions that would wrap or change
// sign. Float to integer conversions truncate, which is allowed.
func checkNumericRange(rv reflect.Value, t reflect.Type) error {
	out := reflect.New(t).Elem()
	overflow := false
	switch {
	case isIntKind(rv.Kind()):
		x := rv.Int()
		switch {
		case isIntKind(t.Kind()):
			overflow = out.OverflowInt(x)
		case isUintKind(t.Kind()):
			overflow = x < 0 || out.OverflowUint(uint64(x))
		}
	case isUintKind(rv.Kind()):
		x := rv.Uint()
		switch {
		case isIntKind(t.Kind()):
			overflow = x > math.MaxInt64 || out.OverflowInt(int64(x))
		case isUintKind(t.Kind()):
			overflow = out.OverflowUint(x)
		}
	case rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64:
		f := rv.Float()
		switch {
		case isIntKind(t.Kind()):
			overflow = math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f))
		case isUintKind(t.Kind()):
			overflow = math.IsNaN(f) || f < 0 || f >= math.MaxUint64 || out.OverflowUint(uint64(f))
		case t.Kind() == reflect.Float32:
			overflow = !math.IsInf(f, 0) && out.OverflowFloat(f)
		}
	}
	if overflow {
		return fmt.Errorf("%v overflows %v", rv.Interface(), t)
	}
	return nil
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
