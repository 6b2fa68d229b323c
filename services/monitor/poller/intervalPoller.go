package poller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("poller")

// DefaultInterval is the delay between the end of a poll cycle and the start of the next one
const DefaultInterval = 15000 * time.Millisecond

// FetchFunc fetches the remote state. The context is cancelled when the loop is cancelled.
type FetchFunc func(ctx context.Context) (interface{}, error)

// UpdateFunc receives every state published by a loop
type UpdateFunc func(state common.PollState)

// CancelHandle stops a poll loop
type CancelHandle interface {
	Cancel()
	Done() <-chan struct{}
}

type pollLoop struct {
	key        string
	cancelled  atomic.Bool
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// StartLoop starts a poll loop for the key. Each cycle publishes Loading, calls fetch and publishes Loaded or Errored.
// The next cycle starts interval after the previous publish completed. Errors never stop the loop.
// It does not deduplicate keys, use a Registry for that.
func StartLoop(key string, fetch FetchFunc, interval time.Duration, onUpdate UpdateFunc) *pollLoop {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &pollLoop{
		key:        key,
		cancelFunc: cancel,
		done:       make(chan struct{}),
	}

	go l.run(ctx, fetch, interval, onUpdate)

	return l
}

func (l *pollLoop) run(ctx context.Context, fetch FetchFunc, interval time.Duration, onUpdate UpdateFunc) {
	defer close(l.done)

	for {
		l.cycle(ctx, fetch, onUpdate)

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			log.Debug("poll loop stopped", "key", l.key)
			return
		}
	}
}

func (l *pollLoop) cycle(ctx context.Context, fetch FetchFunc, onUpdate UpdateFunc) {
	if !l.publish(onUpdate, common.PollState{Status: common.StatusLoading}) {
		return
	}

	payload, err := fetch(ctx)
	if err != nil {
		log.Debug("poll cycle failed", "key", l.key, "error", err)
		l.publish(onUpdate, common.PollState{Status: common.StatusErrored, Error: err})
		return
	}

	l.publish(onUpdate, common.PollState{Status: common.StatusLoaded, Payload: payload})
}

// publish drops the state if the loop was cancelled
func (l *pollLoop) publish(onUpdate UpdateFunc, state common.PollState) bool {
	if l.cancelled.Load() {
		log.Trace("dropped result of cancelled loop", "key", l.key, "status", state.Status)
		return false
	}

	onUpdate(state)

	return true
}

// Cancel stops the pending timer and marks the loop inert. A fetch in flight may complete but its result is dropped.
func (l *pollLoop) Cancel() {
	if l.cancelled.Swap(true) {
		return
	}

	l.cancelFunc()
}

// Done is closed when the loop goroutine exits
func (l *pollLoop) Done() <-chan struct{} {
	return l.done
}
