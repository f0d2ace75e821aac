package ioc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gburgyan/go-timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContainer_MakeSingleton(t *testing.T) {
	c, _ := newTestContainer(t)

	first, err := c.Make(serviceID)
	require.NoError(t, err)
	second, err := c.Make(serviceID)
	require.NoError(t, err)

	assert.Same(t, first, second)

	svc := first.(*testService)
	assert.Equal(t, 20, svc.pageSize)
	assert.Equal(t, "memory://", svc.repo.dsn)
	assert.Empty(t, svc.tags)
}

func TestContainer_ArgumentsOnlyHonoredOnFirstMake(t *testing.T) {
	c, _ := newTestContainer(t)

	first, err := c.Make(repoID, Named("dsn", "first://"))
	require.NoError(t, err)
	second, err := c.Make(repoID, Named("dsn", "second://"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "first://", second.(*testRepo).dsn)
}

func TestContainer_BindingTransparency(t *testing.T) {
	c, _ := newTestContainer(t)

	instance, err := c.Make(loggerID)
	require.NoError(t, err)

	assert.IsType(t, &memLogger{}, instance)
	assert.True(t, c.Has(loggerID))
	assert.True(t, c.Has(memID))
	assert.Equal(t, []string{memID}, c.Instances())

	viaConcrete, err := c.Get(memID)
	require.NoError(t, err)
	assert.Same(t, instance, viaConcrete)
}

func TestContainer_NamePriority(t *testing.T) {
	c, _ := newTestContainer(t)
	custom := &memLogger{}

	instance, err := c.Make(repoID, Named("log", custom))
	require.NoError(t, err)

	assert.Same(t, custom, instance.(*testRepo).log)
	assert.False(t, c.Has(memID), "the logger must not be auto-constructed")
}

func TestContainer_SuppliedValueMatchedByType(t *testing.T) {
	c, _ := newTestContainer(t)
	repo := &testRepo{dsn: "supplied://"}

	instance, err := c.Make(serviceID, Named("whatever", repo))
	require.NoError(t, err)

	assert.Same(t, repo, instance.(*testService).repo)
	assert.False(t, c.Has(repoID))
}

func TestContainer_OptionalFallback(t *testing.T) {
	c, _ := newTestContainer(t)

	instance, err := c.Make(TypeID[cachedService]())
	require.NoError(t, err)

	assert.Nil(t, instance.(*cachedService).cache)
}

func TestContainer_CoercesBuiltinArguments(t *testing.T) {
	c, _ := newTestContainer(t)

	instance, err := c.Make(serviceID, Named("pageSize", "5"))
	require.NoError(t, err)

	assert.Equal(t, 5, instance.(*testService).pageSize)
}

func TestContainer_VariadicConstructor(t *testing.T) {
	c, _ := newTestContainer(t)

	instance, err := c.Make(serviceID,
		Named("pageSize", 10),
		Named("x", "alpha"),
		Positional("beta"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta"}, instance.(*testService).tags)
}

func TestContainer_RemoveRoundTrip(t *testing.T) {
	c, _ := newTestContainer(t)

	first, err := c.Make(repoID)
	require.NoError(t, err)

	c.Remove(repoID)
	assert.False(t, c.Has(repoID))

	second, err := c.Make(repoID)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestContainer_RemoveAfterRebinding(t *testing.T) {
	c, _ := newTestContainer(t)
	c.Set("cache", "stored under raw id")
	c.Bind("cache", "elsewhere")

	assert.False(t, c.Has("cache"))
	c.Remove("cache")

	c.Unbind("cache")
	assert.False(t, c.Has("cache"), "raw entry must have been removed too")
}

func TestContainer_InterfaceWithoutBinding(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := c.Make(cacheID)

	assert.ErrorIs(t, err, ErrNoImplementation)
	assert.Equal(t, "no implementation bound: "+cacheID, err.Error())
}

func TestContainer_UnknownType(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := c.Make("example.com/missing.Type")

	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestContainer_DependencyErrorPropagatesUnchanged(t *testing.T) {
	c, _ := newTestContainer(t)
	c.Unbind(loggerID)

	_, err := c.Make(serviceID)

	var cerr *ContainerError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrNoImplementation, cerr.Kind)
	assert.Equal(t, loggerID, cerr.ID)
	assert.False(t, c.Has(repoID))
	assert.False(t, c.Has(serviceID))
}

func TestContainer_ConstructorError(t *testing.T) {
	types := NewTypeRegistry()
	boom := errors.New("boom")
	id := types.Register(func() (*testRepo, error) { return nil, boom })
	c := New(types)

	_, err := c.Make(id)

	assert.Same(t, boom, err)
	assert.False(t, c.Has(id))
}

func TestContainer_CyclicDependency(t *testing.T) {
	c, _ := newTestContainer(t)
	aID := TypeID[cycleA]()
	bID := TypeID[cycleB]()

	_, err := c.Make(aID)

	assert.ErrorIs(t, err, ErrCyclicDependency)
	assert.Equal(t, "cyclic dependency "+aID+" -> "+bID+" -> "+aID+": "+aID, err.Error())

	// The failed chain must not leave anything locked behind.
	_, err = c.Make(bID)
	assert.ErrorIs(t, err, ErrCyclicDependency)
}

func TestContainer_GetNotFound(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := c.Get(repoID)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContainer_SetOverwrites(t *testing.T) {
	c := New(nil)
	c.Bind("cfg", "config")

	c.Set("cfg", 1)
	c.Set("config", 2)

	v, err := c.Get("cfg")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, []string{"config"}, c.Instances())
}

func TestContainer_BindingTable(t *testing.T) {
	c := New(nil)

	assert.False(t, c.Bound("a"))
	assert.Equal(t, "a", c.Resolve("a"))

	c.Bind("a", "b")
	c.Bind("a", "c")
	assert.True(t, c.Bound("a"))
	assert.Equal(t, "c", c.Resolve("a"))

	c.Unbind("a")
	c.Unbind("a")
	assert.False(t, c.Bound("a"))
	assert.Equal(t, map[string]string{}, c.Bindings())
}

func TestContainer_ConcurrentMakeConstructsOnce(t *testing.T) {
	types := NewTypeRegistry()
	var calls int64
	id := types.Register(func() *memLogger {
		atomic.AddInt64(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return &memLogger{}
	})
	c := New(types)

	const workers = 16
	results := make([]any, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Make(id)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestContainer_MakeContextCancelledWhileWaiting(t *testing.T) {
	types := NewTypeRegistry()
	release := make(chan struct{})
	started := make(chan struct{})
	id := types.Register(func() *memLogger {
		close(started)
		<-release
		return &memLogger{}
	})
	c := New(types)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Make(id)
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.MakeContext(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done
	assert.True(t, c.Has(id))
}

func TestContainer_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c, _ := newTestContainer(t, WithLogger(zap.New(core)))

	_, err := c.Make(TypeID[cachedService]())
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("using default for optional parameter").Len())
	assert.Equal(t, 1, logs.FilterMessage("constructed instance").Len())
}

func TestContainer_Timing(t *testing.T) {
	c, _ := newTestContainer(t, WithTiming(TimingConstruction))
	root := timing.Root(context.Background())

	instance, err := c.MakeContext(root, serviceID)
	require.NoError(t, err)

	assert.IsType(t, &testService{}, instance)
	assert.True(t, c.Has(repoID))
}

func TestMakeAs(t *testing.T) {
	c, _ := newTestContainer(t)

	svc, err := MakeAs[*testService](c, serviceID)
	require.NoError(t, err)
	assert.Equal(t, 20, svc.pageSize)

	_, err = MakeAs[*testRepo](c, serviceID)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestContainer_Status(t *testing.T) {
	c := New(nil)
	c.Bind("a", "b")
	c.Set("b", &memLogger{})
	c.Set("c", 5)

	assert.Equal(t, "a - bound to b - instance: true\nb - instance: *ioc.memLogger\nc - instance: int", c.Status())
}
