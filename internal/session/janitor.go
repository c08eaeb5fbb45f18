package session

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("catalogbot.session")

// DefaultCleanupInterval is how often expired sessions are swept by default.
const DefaultCleanupInterval = time.Minute

// Janitor periodically evicts expired sessions from a MemoryStore.
type Janitor struct {
	store    *MemoryStore
	interval time.Duration
	clock    clock.Clock

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewJanitor creates a janitor for the store.
func NewJanitor(store *MemoryStore, interval time.Duration, clk clock.Clock) *Janitor {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &Janitor{
		store:    store,
		interval: interval,
		clock:    clk,
	}
}

// Start begins sweeping in the background. Calling Start twice is a no-op.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})
	j.running = true

	go j.run(sweepCtx, j.done)
}

// Stop stops the background sweep and waits for it to exit.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	cancel, done := j.cancel, j.done
	j.running = false
	j.mu.Unlock()

	cancel()
	<-done
}

func (j *Janitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.clock.After(j.interval):
			if n := j.store.EvictExpired(); n > 0 {
				logger.Debugf("evicted %d expired sessions", n)
			}
		}
	}
}
