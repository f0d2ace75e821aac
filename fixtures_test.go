package ioc

import (
	"fmt"
	"sync"
	"testing"
)

type testLogger interface {
	Log(line string)
}

type memLogger struct {
	mu    sync.Mutex
	lines []string
}

func newMemLogger() *memLogger {
	return &memLogger{}
}

func (m *memLogger) Log(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, line)
}

func (m *memLogger) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

type testRepo struct {
	log testLogger
	dsn string
}

func newTestRepo(log testLogger, dsn string) *testRepo {
	return &testRepo{log: log, dsn: dsn}
}

type testService struct {
	repo     *testRepo
	pageSize int
	tags     []string
}

func newTestService(repo *testRepo, pageSize int, tags ...string) *testService {
	return &testService{repo: repo, pageSize: pageSize, tags: tags}
}

func (s *testService) Describe(prefix string) string {
	return fmt.Sprintf("%s%s/%d", prefix, s.repo.dsn, s.pageSize)
}

type testCache interface {
	Fetch(key string) string
}

type cachedService struct {
	cache testCache
}

func newCachedService(cache testCache) *cachedService {
	return &cachedService{cache: cache}
}

type cycleA struct {
	b *cycleB
}

type cycleB struct {
	a *cycleA
}

func newCycleA(b *cycleB) *cycleA {
	return &cycleA{b: b}
}

func newCycleB(a *cycleA) *cycleB {
	return &cycleB{a: a}
}

var (
	loggerID  = TypeID[testLogger]()
	memID     = TypeID[memLogger]()
	repoID    = TypeID[testRepo]()
	serviceID = TypeID[testService]()
	cacheID   = TypeID[testCache]()
)

// newTestContainer registers the fixture types and binds the logger
// interface to the in-memory logger.
func newTestContainer(t *testing.T, opts ...Option) (*Container, *TypeRegistry) {
	t.Helper()
	types := NewTypeRegistry()
	RegisterInterface[testLogger](types)
	RegisterInterface[testCache](types)
	types.Register(newMemLogger)
	types.Register(newTestRepo, WithParams("log", "dsn"), WithDefault("dsn", "memory://"))
	types.Register(newTestService, WithParams("repo", "pageSize", "tags"), WithDefault("pageSize", 20))
	types.Register(newCachedService, WithParams("cache"), WithDefault("cache", nil))
	types.Register(newCycleA, WithParams("b"))
	types.Register(newCycleB, WithParams("a"))

	c := New(types, opts...)
	c.Bind(loggerID, memID)
	return c, types
}
