package ioc

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/gburgyan/go-timing"
	"go.uber.org/zap"
)

// Container maps identifiers to concrete types and holds one shared instance
// per resolved identifier.
//
// Make constructs an identifier's type on first use by describing its
// constructor through the Introspector and resolving every parameter:
// first from the caller supplied arguments by name, then, for parameters of a
// nominal type, from the container itself. The result is cached; later Make
// calls return the same instance regardless of the arguments passed. Call
// applies the same parameter resolution to functions and methods.
//
// A Container is safe for concurrent use. Construction of a given identifier
// happens at most once even when several goroutines Make it at the same time.
type Container struct {
	mu        sync.RWMutex
	bindings  bindingTable
	instances instanceRegistry
	types     Introspector
	locks     keyedLock
	logger    *zap.Logger
	timing    TimingMode
}

// Option is a functional option for configuring a Container.
type Option func(*Container)

// WithLogger sets the logger used for resolution diagnostics. The default
// discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTiming enables go-timing instrumentation of constructions. Timings are
// recorded into whatever timing context is carried by the context passed to
// MakeContext or CallContext.
func WithTiming(mode TimingMode) Option {
	return func(c *Container) {
		c.timing = mode
	}
}

// New creates a container backed by the given Introspector. A nil
// Introspector gets a fresh TypeRegistry.
func New(types Introspector, opts ...Option) *Container {
	if types == nil {
		types = NewTypeRegistry()
	}
	c := &Container{
		bindings:  bindingTable{},
		instances: instanceRegistry{},
		types:     types,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Types returns the container's Introspector.
func (c *Container) Types() Introspector {
	return c.types
}

// Set stores instance under the resolved binding of id, replacing any
// instance already there.
func (c *Container) Set(id string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances.set(c.bindings.resolve(id), instance)
}

// Get returns the instance stored under the resolved binding of id. It does
// not construct anything; see Make for that.
func (c *Container) Get(id string) (any, error) {
	if instance, ok := c.lookup(id); ok {
		return instance, nil
	}
	return nil, &ContainerError{Kind: ErrNotFound, ID: id}
}

// Has reports whether an instance is stored under the resolved binding of id.
func (c *Container) Has(id string) bool {
	_, ok := c.lookup(id)
	return ok
}

func (c *Container) lookup(id string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.instances.get(c.bindings.resolve(id))
}

// Bind makes id resolve to concrete. An existing binding is replaced.
func (c *Container) Bind(id, concrete string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings.bind(id, concrete)
	c.logger.Debug("bound identifier", zap.String("id", id), zap.String("concrete", concrete))
}

// Unbind removes the binding of id, if any.
func (c *Container) Unbind(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings.unbind(id)
}

// Bound reports whether id has a binding.
func (c *Container) Bound(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bindings.bound(id)
}

// Resolve returns the concrete id bound to id, or id itself when unbound.
func (c *Container) Resolve(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bindings.resolve(id)
}

// Remove evicts the instance stored for id. Both the resolved binding and the
// raw id are cleared, which covers a binding that changed after the instance
// was stored.
func (c *Container) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances.remove(c.bindings.resolve(id), id)
}

// Make behaves like MakeContext with a background context.
func (c *Container) Make(id string, args ...Arg) (any, error) {
	return c.MakeContext(context.Background(), id, args...)
}

// MakeContext returns the instance for id, constructing and storing it if
// none is stored yet. The arguments are only used when a construction
// actually happens.
//
// Errors from the Introspector and from the constructor itself are returned
// unchanged. A type that needs itself along its own construction chain fails
// with ErrCyclicDependency. The context is only used for waiting on a
// concurrent construction of the same id and for timing.
func (c *Container) MakeContext(ctx context.Context, id string, args ...Arg) (any, error) {
	if instance, ok := c.lookup(id); ok {
		return instance, nil
	}

	concrete := c.Resolve(id)
	ctx, exit, err := enterResolution(ctx, concrete)
	if err != nil {
		return nil, err
	}
	defer exit()

	unlock, err := c.locks.lock(ctx, concrete)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Somebody else may have finished while we were waiting.
	if instance, ok := c.lookup(concrete); ok {
		return instance, nil
	}

	if c.timing == TimingConstruction {
		timingCtx, complete := timing.Start(ctx, concrete)
		defer complete()
		ctx = timingCtx
	}

	instance, err := c.construct(ctx, concrete, args)
	if err != nil {
		c.logger.Debug("construction failed", zap.String("id", concrete), zap.Error(err))
		return nil, err
	}
	c.Set(concrete, instance)
	c.logger.Debug("constructed instance", zap.String("id", concrete), zap.String("type", fmt.Sprintf("%T", instance)))
	return instance, nil
}

func (c *Container) construct(ctx context.Context, id string, args Arguments) (any, error) {
	iface, err := c.types.IsInterface(id)
	if err != nil {
		return nil, err
	}
	target := id
	if iface {
		if !c.Bound(id) {
			return nil, &ContainerError{Kind: ErrNoImplementation, ID: id}
		}
		target = c.Resolve(id)
	}

	params, err := c.types.DescribeConstructor(target)
	if err != nil {
		return nil, err
	}
	values, err := c.resolveArguments(ctx, target, params, args)
	if err != nil {
		return nil, err
	}
	return c.types.Instantiate(target, values)
}

// MakeAs makes id and asserts the instance to T.
func MakeAs[T any](c *Container, id string, args ...Arg) (T, error) {
	var zero T
	instance, err := c.Make(id, args...)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &ContainerError{
			Kind:    ErrInvalidTarget,
			ID:      id,
			Message: fmt.Sprintf("instance is %T, not %v", instance, reflect.TypeOf((*T)(nil)).Elem()),
		}
	}
	return typed, nil
}
