package ioc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Warm makes every id concurrently, each on its own goroutine, and waits for
// all of them. Ids that share dependencies still construct each dependency
// once. The errors of the failed ids are joined.
//
// Each id starts its own resolution chain. Two chains that need each other's
// types fail with ErrCyclicDependency instead of waiting on each other.
func (c *Container) Warm(ctx context.Context, ids ...string) error {
	// Goroutines must not share the caller's chain.
	ctx = context.WithValue(ctx, cycleKey, nil)

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			defer func() {
				// Constructors are user code. Report their panics as errors.
				if r := recover(); r != nil {
					c.logger.Error("panic warming identifier", zap.String("id", id), zap.Any("panic", r))
					errs[i] = panicError(id, r)
				}
			}()
			if _, err := c.MakeContext(ctx, id); err != nil {
				errs[i] = err
			}
		}(i, id)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func panicError(id string, r any) error {
	source, ok := r.(error)
	if !ok {
		source = fmt.Errorf("%v", r)
	}
	return &ContainerError{ID: id, Message: "panic", SourceError: source}
}
