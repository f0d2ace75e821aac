package ioc

import (
	"context"
	"strings"
	"sync"
)

type cycle int

const cycleKey cycle = 0

type unlocker func()

// cycleChecker tracks the ids being constructed along one resolution chain.
// It travels in the context so that nested Make calls share it.
type cycleChecker struct {
	inProcess map[string]bool
	chain     []string
	lock      sync.Mutex

	// waitingOn is the key this chain is blocked on in a keyedLock, guarded
	// by that keyedLock's mu.
	waitingOn string
}

func enterResolution(ctx context.Context, id string) (context.Context, unlocker, error) {
	var checker *cycleChecker
	checkerCtx := ctx
	if c := ctx.Value(cycleKey); c != nil {
		checker = c.(*cycleChecker)
	} else {
		checker = &cycleChecker{
			inProcess: map[string]bool{},
		}
		checkerCtx = context.WithValue(ctx, cycleKey, checker)
	}

	checker.lock.Lock()
	defer checker.lock.Unlock()

	if checker.inProcess[id] {
		return nil, func() {}, &ContainerError{
			Kind:    ErrCyclicDependency,
			ID:      id,
			Message: "cyclic dependency " + strings.Join(append(append([]string{}, checker.chain...), id), " -> "),
		}
	}
	checker.inProcess[id] = true
	checker.chain = append(checker.chain, id)

	return checkerCtx, func() {
		checker.lock.Lock()
		delete(checker.inProcess, id)
		if n := len(checker.chain); n > 0 && checker.chain[n-1] == id {
			checker.chain = checker.chain[:n-1]
		}
		checker.lock.Unlock()
	}, nil
}
