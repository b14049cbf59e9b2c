package storefake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-session-client/storage"
)

var _ storage.Store = (*FakeStore)(nil)

// FakeStore is an in-memory storage.Store. Errors can be injected per operation and key.
type FakeStore struct {
	values map[string]string
	fail   map[string]error // "op:key" -> error
	holds  map[string]*hold
	lock   sync.RWMutex
}

type hold struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values: make(map[string]string),
		fail:   make(map[string]error),
		holds:  make(map[string]*hold),
	}
}

// Hold makes the next op on key wait, after it has taken effect and before it returns,
// until release is called. entered is closed once that call is waiting.
func (s *FakeStore) Hold(op, key string) (entered <-chan struct{}, release func()) {
	h := &hold{entered: make(chan struct{}), release: make(chan struct{})}
	s.lock.Lock()
	s.holds[op+":"+key] = h
	s.lock.Unlock()
	return h.entered, func() { h.once.Do(func() { close(h.release) }) }
}

func (s *FakeStore) wait(op, key string) {
	s.lock.Lock()
	h, ok := s.holds[op+":"+key]
	delete(s.holds, op+":"+key)
	s.lock.Unlock()
	if ok {
		close(h.entered)
		<-h.release
	}
}

// FailOn makes op ("set", "get" or "remove") on key return err until cleared with a nil err.
func (s *FakeStore) FailOn(op, key string, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err == nil {
		delete(s.fail, op+":"+key)
		return
	}
	s.fail[op+":"+key] = err
}

func (s *FakeStore) Set(_ context.Context, key, value string) error {
	defer s.wait("set", key)
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.fail["set:"+key]; err != nil {
		return err
	}
	s.values[key] = value
	return nil
}

func (s *FakeStore) Get(_ context.Context, key string) (string, bool, error) {
	defer s.wait("get", key)
	s.lock.RLock()
	defer s.lock.RUnlock()
	if err := s.fail["get:"+key]; err != nil {
		return "", false, err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FakeStore) Remove(_ context.Context, key string) error {
	defer s.wait("remove", key)
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.fail["remove:"+key]; err != nil {
		return err
	}
	delete(s.values, key)
	return nil
}

// Has reports whether key is currently stored, bypassing injected failures.
func (s *FakeStore) Has(key string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.values[key]
	return ok
}

// Value returns the raw stored value, bypassing injected failures.
func (s *FakeStore) Value(key string) string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.values[key]
}
