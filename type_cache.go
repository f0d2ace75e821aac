package ioc

import (
	"fmt"
	"reflect"
	"sync"
)

// funcInfo caches expensive reflection operations for a function type
type funcInfo struct {
	params   []reflect.Type
	returns  []reflect.Type
	hasError bool
	variadic bool
}

var (
	globalFuncCache     sync.Map // map[reflect.Type]*funcInfo
	globalPropertyCache sync.Map // map[reflect.Type][]Property

	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// getFuncInfo returns cached signature information for a function type,
// computing it if necessary. Only a trailing error result is treated as the
// function's error.
func getFuncInfo(t reflect.Type) (*funcInfo, error) {
	if cached, ok := globalFuncCache.Load(t); ok {
		return cached.(*funcInfo), nil
	}
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %v", t)
	}

	info := &funcInfo{
		params:   make([]reflect.Type, t.NumIn()),
		returns:  make([]reflect.Type, 0, t.NumOut()),
		variadic: t.IsVariadic(),
	}
	for i := 0; i < t.NumIn(); i++ {
		info.params[i] = t.In(i)
	}
	for i := 0; i < t.NumOut(); i++ {
		out := t.Out(i)
		if out == errorType {
			if i != t.NumOut()-1 {
				return nil, fmt.Errorf("error result must be last: %v", t)
			}
			info.hasError = true
			continue
		}
		info.returns = append(info.returns, out)
	}

	actual, _ := globalFuncCache.LoadOrStore(t, info)
	return actual.(*funcInfo), nil
}

// paramSpec holds the parts of a parameter list that reflection cannot see.
type paramSpec struct {
	names    []string
	defaults map[string]any
}

// buildParams turns reflected parameter types into descriptors. Names that
// were not supplied become arg0, arg1, ... in declaration order.
func buildParams(in []reflect.Type, variadic bool, spec paramSpec) []Parameter {
	params := make([]Parameter, len(in))
	for i, t := range in {
		p := Parameter{}
		if i < len(spec.names) && spec.names[i] != "" {
			p.Name = spec.names[i]
		} else {
			p.Name = fmt.Sprintf("arg%d", i)
		}
		if variadic && i == len(in)-1 {
			p.Variadic = true
			t = t.Elem()
		}
		p.Type, p.Builtin, p.Callable = classifyType(t)
		if def, ok := spec.defaults[p.Name]; ok {
			p.Optional = true
			p.Default = def
		}
		params[i] = p
	}
	return params
}

// describeProperties returns the exported fields of a struct type (or pointer
// to one), memoized per type. Fields tagged `inject` carry a directive.
func describeProperties(t reflect.Type) ([]Property, error) {
	if cached, ok := globalPropertyCache.Load(t); ok {
		return cached.([]Property), nil
	}
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%v is not a struct", t)
	}

	var props []Property
	for i := 0; i < base.NumField(); i++ {
		f := base.Field(i)
		if !f.IsExported() {
			continue
		}
		p := Property{Name: f.Name, index: f.Index}
		p.Type, p.Builtin, _ = classifyType(f.Type)
		if tag, ok := f.Tag.Lookup("inject"); ok {
			p.Inject = &InjectDirective{ID: tag}
		}
		props = append(props, p)
	}

	actual, _ := globalPropertyCache.LoadOrStore(t, props)
	return actual.([]Property), nil
}
