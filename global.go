package ioc

import (
	"context"
	"sync"
)

type TimingMode int

const (
	// TimingDisable records no timing information.
	TimingDisable TimingMode = iota

	// TimingConstruction starts a timing context for every construction made
	// by the container. Dependencies constructed along the way nest under the
	// type that needed them, so the report shows where construction time is
	// spent.
	TimingConstruction
)

// ContainerID is the identifier the default container is stored under in
// itself, so constructors may declare a *Container parameter.
var ContainerID = TypeID[Container]()

var (
	defaultMu        sync.Mutex
	defaultContainer *Container
	defaultTypes     = NewTypeRegistry()
)

// DefaultRegistry returns the TypeRegistry backing the default container.
func DefaultRegistry() *TypeRegistry {
	return defaultTypes
}

// Default returns the process-wide container, creating it on first use. A
// newly created default container is backed by DefaultRegistry and stores
// itself under ContainerID.
//
// New code should prefer passing a *Container explicitly; this accessor is
// for code that has no way to receive one.
func Default() *Container {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultContainer == nil {
		c := New(defaultTypes)
		c.Set(ContainerID, c)
		defaultContainer = c
	}
	return defaultContainer
}

// SetDefault replaces the process-wide container. Passing nil makes the next
// Default call create a fresh one.
func SetDefault(c *Container) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultContainer = c
}

// Make makes id on the default container.
func Make(id string, args ...Arg) (any, error) {
	return Default().Make(id, args...)
}

// MakeContext makes id on the default container.
func MakeContext(ctx context.Context, id string, args ...Arg) (any, error) {
	return Default().MakeContext(ctx, id, args...)
}

// Call invokes target through the default container.
func Call(target Target, args ...Arg) (any, error) {
	return Default().Call(target, args...)
}
