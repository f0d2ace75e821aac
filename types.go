package ioc

import (
	"reflect"
	"sort"
	"strings"
)

// Builtin type names used in parameter descriptors. Values supplied for
// parameters declared with one of these are coerced before use.
const (
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeString = "string"
	TypeBool   = "bool"
	TypeArray  = "array"
	TypeObject = "object"
)

// Parameter describes a single constructor or function parameter.
//
// An empty Type means the parameter is untyped (declared as `any`). Builtin
// parameters carry one of the Type* constants (or another kind name that is
// passed through without coercion), Callable parameters are function typed,
// and a Type containing "|" is treated as a union. None of these are ever
// auto-wired from the container.
type Parameter struct {
	Name     string
	Type     string
	Builtin  bool
	Callable bool
	Optional bool
	Default  any
	Variadic bool
}

// IsUnion reports whether the parameter's declared type names several types.
func (p Parameter) IsUnion() bool {
	return strings.Contains(p.Type, "|")
}

// autowirable reports whether a value for this parameter may be looked up
// through the container by type.
func (p Parameter) autowirable() bool {
	return p.Type != "" && !p.Builtin && !p.Callable && !p.IsUnion()
}

// InjectDirective marks a property for injection. ID is only consulted when
// the property is untyped.
type InjectDirective struct {
	ID string
}

// Property describes an exported struct field.
type Property struct {
	Name    string
	Type    string
	Builtin bool
	Inject  *InjectDirective

	index []int
}

// Arg is a single caller supplied argument. An Arg with an empty Name is
// positional: it is never matched by name, only collected by a variadic
// parameter.
type Arg struct {
	Name  string
	Value any
}

// Arguments is an ordered list of supplied arguments.
type Arguments []Arg

// Named returns an argument matched against the parameter with that name.
func Named(name string, value any) Arg {
	return Arg{Name: name, Value: value}
}

// Positional returns an argument that only a variadic parameter will consume.
func Positional(value any) Arg {
	return Arg{Value: value}
}

// ArgsFromMap converts a map into Arguments, ordered by key.
func ArgsFromMap(m map[string]any) Arguments {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make(Arguments, 0, len(m))
	for _, k := range keys {
		args = append(args, Arg{Name: k, Value: m[k]})
	}
	return args
}

// TypeID returns the identifier the container uses for T. Pointer
// indirections are stripped, so *Foo and Foo share an identifier.
func TypeID[T any]() string {
	return typeID(reflect.TypeOf((*T)(nil)).Elem())
}

// TypeIDOf returns the identifier of the dynamic type of v.
func TypeIDOf(v any) string {
	if v == nil {
		return ""
	}
	return typeID(reflect.TypeOf(v))
}

func typeID(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// classifyType maps a Go type onto the descriptor vocabulary: the declared
// type name and whether it is builtin or callable.
func classifyType(t reflect.Type) (name string, builtin bool, callable bool) {
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return "", false, false
	}
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	switch base.Kind() {
	case reflect.Struct, reflect.Interface:
		return typeID(t), false, false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return TypeInt, true, false
	case reflect.Float32, reflect.Float64:
		return TypeFloat, true, false
	case reflect.String:
		return TypeString, true, false
	case reflect.Bool:
		return TypeBool, true, false
	case reflect.Slice, reflect.Array:
		return TypeArray, true, false
	case reflect.Map:
		return TypeObject, true, false
	case reflect.Func:
		return t.String(), false, true
	default:
		return base.Kind().String(), true, false
	}
}
