package ioc

import (
	"context"
	"strings"
	"sync"
)

// keyedLock is a set of mutexes addressed by key. Waiting for a key can be
// abandoned through the caller's context.
//
// Each held key remembers the resolution chain holding it, and each chain
// remembers the key it is blocked on. Before blocking, lock follows that
// wait-for relation from the holder and refuses to wait when it leads back
// to a key held by the caller's own chain.
type keyedLock struct {
	mu   sync.Mutex
	keys map[string]*keyedLockWait
}

// lock acquires the lock for key, waiting for the current holder to release
// it. The returned function releases the lock.
func (kl *keyedLock) lock(ctx context.Context, key string) (func(), error) {
	owner, _ := ctx.Value(cycleKey).(*cycleChecker)
	for {
		kl.mu.Lock()
		if kl.keys == nil {
			kl.keys = make(map[string]*keyedLockWait)
		}
		if owner != nil {
			owner.waitingOn = ""
		}
		if holder, ok := kl.keys[key]; ok {
			if err := kl.checkDeadlock(owner, holder, key); err != nil {
				kl.mu.Unlock()
				return nil, err
			}
			// Already locked, register as a waiter before letting go of mu so
			// the release cannot be missed.
			ch := holder.add()
			if owner != nil {
				owner.waitingOn = key
			}
			kl.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				kl.mu.Lock()
				if owner != nil {
					owner.waitingOn = ""
				}
				kl.mu.Unlock()
				return nil, ctx.Err()
			}
		}
		kl.keys[key] = &keyedLockWait{owner: owner}
		kl.mu.Unlock()
		return func() {
			kl.unlock(key)
		}, nil
	}
}

// checkDeadlock must be called with mu held.
func (kl *keyedLock) checkDeadlock(caller *cycleChecker, holder *keyedLockWait, key string) error {
	if caller == nil {
		return nil
	}
	seen := map[*cycleChecker]bool{}
	for w := holder; w.owner != nil && !seen[w.owner]; {
		if w.owner == caller {
			return caller.deadlockError(key)
		}
		seen[w.owner] = true
		next, ok := kl.keys[w.owner.waitingOn]
		if w.owner.waitingOn == "" || !ok {
			return nil
		}
		if next.owner == caller {
			return caller.deadlockError(w.owner.waitingOn)
		}
		w = next
	}
	return nil
}

// unlock releases the lock for key and wakes every waiter. The waiters then
// race to acquire it again.
func (kl *keyedLock) unlock(key string) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	if holder, ok := kl.keys[key]; ok {
		holder.release()
	}
	delete(kl.keys, key)
}

type keyedLockWait struct {
	owner  *cycleChecker
	strobe []chan struct{}
}

// add must be called with the owning keyedLock's mu held.
func (w *keyedLockWait) add() <-chan struct{} {
	ch := make(chan struct{})
	w.strobe = append(w.strobe, ch)
	return ch
}

func (w *keyedLockWait) release() {
	for _, ch := range w.strobe {
		close(ch)
	}
	w.strobe = nil
}

// deadlockError reports the caller's chain closed by heldKey, the key this
// chain holds that the other resolution is waiting on.
func (c *cycleChecker) deadlockError(heldKey string) error {
	c.lock.Lock()
	chain := append(append([]string{}, c.chain...), heldKey)
	c.lock.Unlock()
	return &ContainerError{
		Kind:    ErrCyclicDependency,
		ID:      heldKey,
		Message: "cyclic dependency " + strings.Join(chain, " -> "),
	}
}
