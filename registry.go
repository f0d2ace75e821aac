package ioc

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Introspector describes types by identifier. The container consumes it to
// learn what a constructor or method needs and to build and invoke them.
// Every method fails with an error matching ErrUnknownType when the
// identifier cannot be described.
type Introspector interface {
	// DescribeConstructor returns the constructor parameters of a type.
	DescribeConstructor(typeID string) ([]Parameter, error)

	// DescribeProperties returns the exported fields of a struct type.
	DescribeProperties(typeID string) ([]Property, error)

	// DescribeMethod returns a method, or a static function registered
	// against the type, by name.
	DescribeMethod(typeID, method string) (*MethodInfo, error)

	// DescribeValueMethod returns a method of a live receiver.
	DescribeValueMethod(receiver any, method string) (*MethodInfo, error)

	// IsInterface reports whether the type is an abstract contract.
	IsInterface(typeID string) (bool, error)

	// Instantiate constructs the type from positional arguments.
	Instantiate(typeID string, args []any) (any, error)

	// Invoke calls the method on receiver (ignored for static methods) and
	// returns its non-error results.
	Invoke(m *MethodInfo, receiver any, args []any) ([]any, error)
}

// MethodInfo describes a callable member of a type.
type MethodInfo struct {
	Owner    string
	Name     string
	Params   []Parameter
	Static   bool
	Abstract bool

	fn   reflect.Value
	info *funcInfo
}

// RegisterOption supplies what reflection cannot see about a function:
// parameter names, defaults, and the identifier to register under.
type RegisterOption func(*registration)

type registration struct {
	id   string
	spec paramSpec
}

// WithID registers a constructor under id instead of its result type's id.
func WithID(id string) RegisterOption {
	return func(r *registration) {
		r.id = id
	}
}

// WithParams names the function's parameters in declaration order.
func WithParams(names ...string) RegisterOption {
	return func(r *registration) {
		r.spec.names = names
	}
}

// WithDefault makes the named parameter optional with the given default.
func WithDefault(name string, value any) RegisterOption {
	return func(r *registration) {
		if r.spec.defaults == nil {
			r.spec.defaults = map[string]any{}
		}
		r.spec.defaults[name] = value
	}
}

func applyRegisterOptions(opts []RegisterOption) registration {
	reg := registration{}
	for _, opt := range opts {
		opt(&reg)
	}
	return reg
}

type typeEntry struct {
	id     string
	goType reflect.Type
	iface  bool
	ctor   reflect.Value
	info   *funcInfo
	params []Parameter
}

// methodKey identifies a described method. The receiver type is part of the
// key because T and *T have different method sets.
type methodKey struct {
	id   string
	t    reflect.Type
	name string
}

// TypeRegistry is the reflection backed Introspector. Types are registered by
// constructor function, by zero value, or as interfaces; methods are
// described lazily and memoized for the life of the registry.
type TypeRegistry struct {
	mu          sync.RWMutex
	types       map[string]*typeEntry
	statics     map[string]*MethodInfo
	methodSpecs map[string]paramSpec
	methods     map[methodKey]*MethodInfo
	ids         map[reflect.Type]string
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types:       map[string]*typeEntry{},
		statics:     map[string]*MethodInfo{},
		methodSpecs: map[string]paramSpec{},
		methods:     map[methodKey]*MethodInfo{},
		ids:         map[reflect.Type]string{},
	}
}

// Register adds a constructor function. The function must return exactly one
// value, optionally followed by an error, and is registered under the id of
// that result type unless WithID is given. The id is returned. Invalid
// constructors panic, as they are programming errors.
func (r *TypeRegistry) Register(ctor any, opts ...RegisterOption) string {
	fnType := reflect.TypeOf(ctor)
	if fnType == nil || fnType.Kind() != reflect.Func {
		panic(fmt.Sprintf("constructor must be a function, got %T", ctor))
	}
	info, err := getFuncInfo(fnType)
	if err != nil {
		panic(err.Error())
	}
	if len(info.returns) != 1 {
		panic(fmt.Sprintf("constructor must return exactly one non-error value: %v", fnType))
	}

	reg := applyRegisterOptions(opts)
	id := reg.id
	if id == "" {
		id = typeID(info.returns[0])
	}
	r.store(&typeEntry{
		id:     id,
		goType: info.returns[0],
		ctor:   reflect.ValueOf(ctor),
		info:   info,
		params: buildParams(info.params, info.variadic, reg.spec),
	})
	return id
}

// RegisterType adds T as a type constructed from its zero value. For a
// pointer type a new zeroed value is allocated. Any constructor arguments
// are ignored.
func RegisterType[T any](r *TypeRegistry, opts ...RegisterOption) string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Interface {
		panic(fmt.Sprintf("RegisterType requires a concrete type, got %v; use RegisterInterface", t))
	}
	reg := applyRegisterOptions(opts)
	id := reg.id
	if id == "" {
		id = typeID(t)
	}
	r.store(&typeEntry{id: id, goType: t})
	return id
}

// RegisterInterface adds the interface T as an abstract contract. Making it
// requires a binding to a concrete type.
func RegisterInterface[T any](r *TypeRegistry, opts ...RegisterOption) string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Interface {
		panic(fmt.Sprintf("RegisterInterface requires an interface type, got %v", t))
	}
	reg := applyRegisterOptions(opts)
	id := reg.id
	if id == "" {
		id = typeID(t)
	}
	r.store(&typeEntry{id: id, goType: t, iface: true})
	return id
}

// RegisterMethod names the parameters, and sets defaults, of a method of the
// type with the given id. Methods that are never registered are still
// callable; their parameters are named arg0, arg1, ...
func (r *TypeRegistry) RegisterMethod(typeID, method string, opts ...RegisterOption) {
	reg := applyRegisterOptions(opts)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methodSpecs[typeID+"."+method] = reg.spec
	r.methods = map[methodKey]*MethodInfo{}
}

// RegisterStatic attaches fn to the type as a static method: calling it
// never constructs a receiver.
func (r *TypeRegistry) RegisterStatic(typeID, name string, fn any, opts ...RegisterOption) {
	fnType := reflect.TypeOf(fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		panic(fmt.Sprintf("static method must be a function, got %T", fn))
	}
	info, err := getFuncInfo(fnType)
	if err != nil {
		panic(err.Error())
	}
	reg := applyRegisterOptions(opts)
	m := &MethodInfo{
		Owner:  typeID,
		Name:   name,
		Params: buildParams(info.params, info.variadic, reg.spec),
		Static: true,
		fn:     reflect.ValueOf(fn),
		info:   info,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statics[typeID+"."+name] = m
}

func (r *TypeRegistry) store(e *typeEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[e.id] = e
	r.ids[baseType(e.goType)] = e.id
}

// idOf returns the id t was registered under, or its TypeID when it was
// never registered.
func (r *TypeRegistry) idOf(t reflect.Type) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.ids[baseType(t)]; ok {
		return id
	}
	return typeID(t)
}

func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func (r *TypeRegistry) entry(id string) (*typeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.types[id]
	if !ok {
		return nil, &ContainerError{Kind: ErrUnknownType, ID: id}
	}
	return e, nil
}

// Known reports whether id has been registered.
func (r *TypeRegistry) Known(id string) bool {
	_, err := r.entry(id)
	return err == nil
}

// IDs returns the registered type ids, sorted.
func (r *TypeRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *TypeRegistry) DescribeConstructor(id string) ([]Parameter, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	if e.iface {
		return nil, &ContainerError{Kind: ErrNoImplementation, ID: id}
	}
	return e.params, nil
}

func (r *TypeRegistry) DescribeProperties(id string) ([]Property, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	props, err := describeProperties(e.goType)
	if err != nil {
		return nil, &ContainerError{Kind: ErrUnknownType, ID: id, SourceError: err}
	}
	return props, nil
}

func (r *TypeRegistry) DescribeMethod(id, method string) (*MethodInfo, error) {
	r.mu.RLock()
	static, ok := r.statics[id+"."+method]
	r.mu.RUnlock()
	if ok {
		return static, nil
	}
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	return r.describeMethod(id, e.goType, method)
}

func (r *TypeRegistry) DescribeValueMethod(receiver any, method string) (*MethodInfo, error) {
	if receiver == nil {
		return nil, &ContainerError{Kind: ErrInvalidTarget, ID: method, Message: "nil receiver"}
	}
	t := reflect.TypeOf(receiver)
	return r.describeMethod(r.idOf(t), t, method)
}

func (r *TypeRegistry) describeMethod(id string, t reflect.Type, name string) (*MethodInfo, error) {
	key := methodKey{id: id, t: t, name: name}
	r.mu.RLock()
	cached, ok := r.methods[key]
	spec := r.methodSpecs[id+"."+name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	sig, ok := methodSignature(t, name)
	if !ok {
		return nil, &ContainerError{Kind: ErrUnknownType, ID: id + "." + name, Message: "unknown method"}
	}
	info, err := getFuncInfo(sig)
	if err != nil {
		return nil, &ContainerError{Kind: ErrInvalidTarget, ID: id + "." + name, SourceError: err}
	}
	m := &MethodInfo{
		Owner:    id,
		Name:     name,
		Params:   buildParams(info.params, info.variadic, spec),
		Abstract: t.Kind() == reflect.Interface,
		info:     info,
	}

	r.mu.Lock()
	r.methods[key] = m
	r.mu.Unlock()
	return m, nil
}

// methodSignature returns the signature of a method as seen through a method
// value, that is without the receiver.
func methodSignature(t reflect.Type, name string) (reflect.Type, bool) {
	m, ok := t.MethodByName(name)
	if !ok {
		return nil, false
	}
	if t.Kind() == reflect.Interface {
		return m.Type, true
	}
	ft := m.Type
	in := make([]reflect.Type, 0, ft.NumIn()-1)
	for i := 1; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}
	out := make([]reflect.Type, 0, ft.NumOut())
	for i := 0; i < ft.NumOut(); i++ {
		out = append(out, ft.Out(i))
	}
	return reflect.FuncOf(in, out, ft.IsVariadic()), true
}

func (r *TypeRegistry) IsInterface(id string) (bool, error) {
	e, err := r.entry(id)
	if err != nil {
		return false, err
	}
	return e.iface, nil
}

func (r *TypeRegistry) Instantiate(id string, args []any) (any, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	if e.iface {
		return nil, &ContainerError{Kind: ErrNoImplementation, ID: id}
	}
	if !e.ctor.IsValid() {
		if e.goType.Kind() == reflect.Pointer {
			return reflect.New(e.goType.Elem()).Interface(), nil
		}
		return reflect.New(e.goType).Elem().Interface(), nil
	}
	values, err := callFunc(id, e.ctor, e.info, args)
	if err != nil {
		return nil, err
	}
	return values[0], nil
}

func (r *TypeRegistry) Invoke(m *MethodInfo, receiver any, args []any) ([]any, error) {
	owner := m.Owner + "." + m.Name
	if m.Abstract {
		return nil, &ContainerError{Kind: ErrUncallableMethod, ID: owner}
	}
	if m.Static {
		return callFunc(owner, m.fn, m.info, args)
	}
	if receiver == nil {
		return nil, &ContainerError{Kind: ErrUncallableMethod, ID: owner, Message: "nil receiver"}
	}
	fn := reflect.ValueOf(receiver).MethodByName(m.Name)
	if !fn.IsValid() {
		return nil, &ContainerError{Kind: ErrUncallableMethod, ID: owner}
	}
	return callFunc(owner, fn, m.info, args)
}
