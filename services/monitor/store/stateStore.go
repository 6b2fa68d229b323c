package store

import (
	"sync"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("store")

// Generation identifies the current owner of a key
type Generation uint64

// Listener is called after every write on the subscribed key, outside the store lock.
// Notification order matches write order only while a single writer owns the key.
type Listener func(key string, state common.PollState)

type entry struct {
	state      common.PollState
	published  bool
	generation Generation
	listeners  map[int]Listener
}

type alertStateStore struct {
	mut            sync.RWMutex
	entries        map[string]*entry
	nextListenerID int
}

// NewAlertStateStore creates an empty state store
func NewAlertStateStore() *alertStateStore {
	return &alertStateStore{
		entries: make(map[string]*entry),
	}
}

// Get returns the latest state of the key and false if nothing was published yet
func (s *alertStateStore) Get(key string) (common.PollState, bool) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	e, found := s.entries[key]
	if !found || !e.published {
		return common.PollState{}, false
	}

	return e.state, true
}

// Put writes the state regardless of the key's owner
func (s *alertStateStore) Put(key string, state common.PollState) {
	s.mut.Lock()
	e := s.getOrCreateEntry(key)
	listeners := s.write(e, state)
	s.mut.Unlock()

	notify(listeners, key, state)
}

// Claim makes the caller the only owner allowed to publish on the key, superseding the previous owner
func (s *alertStateStore) Claim(key string) Generation {
	s.mut.Lock()
	defer s.mut.Unlock()

	e := s.getOrCreateEntry(key)
	e.generation++

	return e.generation
}

// Publish writes the state only if the generation still owns the key. Returns false if the write was dropped.
func (s *alertStateStore) Publish(key string, generation Generation, state common.PollState) bool {
	s.mut.Lock()
	e := s.getOrCreateEntry(key)
	if e.generation != generation {
		s.mut.Unlock()
		log.Debug("dropped stale publish", "key", key, "generation", generation, "owner", e.generation)
		return false
	}
	listeners := s.write(e, state)
	s.mut.Unlock()

	notify(listeners, key, state)

	return true
}

// Subscribe registers a listener for the key. The returned function removes it.
func (s *alertStateStore) Subscribe(key string, listener Listener) func() {
	if listener == nil {
		return func() {}
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	e := s.getOrCreateEntry(key)
	id := s.nextListenerID
	s.nextListenerID++
	e.listeners[id] = listener

	return func() {
		s.mut.Lock()
		defer s.mut.Unlock()

		delete(e.listeners, id)
	}
}

func (s *alertStateStore) getOrCreateEntry(key string) *entry {
	e, found := s.entries[key]
	if !found {
		e = &entry{
			listeners: make(map[int]Listener),
		}
		s.entries[key] = e
	}

	return e
}

// write must be called under the write lock. It returns a copy of the listeners to be notified outside the lock.
func (s *alertStateStore) write(e *entry, state common.PollState) []Listener {
	e.state = state
	e.published = true

	listeners := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}

	return listeners
}

func notify(listeners []Listener, key string, state common.PollState) {
	for _, l := range listeners {
		l(key, state)
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *alertStateStore) IsInterfaceNil() bool {
	return s == nil
}
