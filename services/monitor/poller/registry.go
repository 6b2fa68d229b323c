package poller

import (
	"sort"
	"sync"
	"time"
)

// registry holds the running loop of every key. It is owned by its caller, no state lives at package level.
type registry struct {
	mut   sync.Mutex
	loops map[string]*pollLoop
}

// NewRegistry creates an empty poller registry
func NewRegistry() *registry {
	return &registry{
		loops: make(map[string]*pollLoop),
	}
}

// Start starts a poll loop for the key, cancelling and replacing any loop already running for it
func (r *registry) Start(key string, fetch FetchFunc, interval time.Duration, onUpdate UpdateFunc) CancelHandle {
	r.mut.Lock()
	defer r.mut.Unlock()

	old, found := r.loops[key]
	if found {
		old.Cancel()
		log.Debug("replaced poll loop", "key", key)
	}

	l := StartLoop(key, fetch, interval, onUpdate)
	r.loops[key] = l

	return &registryHandle{
		registry: r,
		key:      key,
		loop:     l,
	}
}

// Cancel cancels the loop of the key, if any
func (r *registry) Cancel(key string) {
	r.mut.Lock()
	defer r.mut.Unlock()

	l, found := r.loops[key]
	if !found {
		return
	}

	l.Cancel()
	delete(r.loops, key)
}

// CancelAll cancels every loop
func (r *registry) CancelAll() {
	r.mut.Lock()
	defer r.mut.Unlock()

	for key, l := range r.loops {
		l.Cancel()
		delete(r.loops, key)
	}
}

// Keys returns the sorted keys of the running loops
func (r *registry) Keys() []string {
	r.mut.Lock()
	defer r.mut.Unlock()

	keys := make([]string, 0, len(r.loops))
	for key := range r.loops {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Len returns the number of running loops
func (r *registry) Len() int {
	r.mut.Lock()
	defer r.mut.Unlock()

	return len(r.loops)
}

// cancelLoop removes the key only if it still points to the provided loop
func (r *registry) cancelLoop(key string, l *pollLoop) {
	r.mut.Lock()
	defer r.mut.Unlock()

	l.Cancel()
	if r.loops[key] == l {
		delete(r.loops, key)
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *registry) IsInterfaceNil() bool {
	return r == nil
}

type registryHandle struct {
	registry *registry
	key      string
	loop     *pollLoop
}

// Cancel cancels the loop and removes it from the registry if it was not replaced meanwhile
func (h *registryHandle) Cancel() {
	h.registry.cancelLoop(h.key, h.loop)
}

// Done is closed when the loop goroutine exits
func (h *registryHandle) Done() <-chan struct{} {
	return h.loop.Done()
}
