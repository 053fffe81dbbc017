package editsession

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid repeats of the same keyed action into one call
// after a quiet period. Each key owns at most one pending timer; scheduling
// again before it fires cancels and restarts it, so only the last scheduled
// function ever runs.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	seq     map[string]uint64
	timers  map[string]*time.Timer
	pending map[string]func()
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = defaultDebounceInterval
	}
	return &Debouncer{
		delay:   delay,
		seq:     make(map[string]uint64),
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]func()),
	}
}

func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.seq[key]++
	gen := d.seq[key]
	d.pending[key] = fn
	d.timers[key] = time.AfterFunc(d.delay, func() { d.fire(key, gen) })
}

func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	// Stop cannot halt a timer whose callback is already blocked on d.mu;
	// such a timer carries a stale generation and must not run the newly
	// scheduled function early.
	if d.seq[key] != gen {
		d.mu.Unlock()
		return
	}
	fn := d.pending[key]
	delete(d.pending, key)
	delete(d.timers, key)
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
		delete(d.timers, key)
	}
	delete(d.pending, key)
}

func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
	for key := range d.pending {
		delete(d.pending, key)
	}
}

// Flush runs every pending action immediately. Used on orderly teardown so
// a pending edit is persisted instead of lost.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.pending))
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
	for key, fn := range d.pending {
		fns = append(fns, fn)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
