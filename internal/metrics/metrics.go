// Package metrics holds process-local counters exposed through expvar.
package metrics

import (
	"encoding/json"
	"expvar"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

// String implements expvar.Var.
func (c *Counter) String() string {
	return strconv.FormatUint(c.Load(), 10)
}

// CounterVec is a set of counters keyed by a single label.
type CounterVec struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

func NewCounterVec() *CounterVec {
	return &CounterVec{counters: make(map[string]*Counter)}
}

func (v *CounterVec) With(label string) *Counter {
	v.mu.RLock()
	c, ok := v.counters[label]
	v.mu.RUnlock()
	if ok {
		return c
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok = v.counters[label]; !ok {
		c = &Counter{}
		v.counters[label] = c
	}
	return c
}

func (v *CounterVec) Snapshot() map[string]uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string]uint64, len(v.counters))
	for k, c := range v.counters {
		out[k] = c.Load()
	}
	return out
}

// String implements expvar.Var.
func (v *CounterVec) String() string {
	b, _ := json.Marshal(v.Snapshot())
	return string(b)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

var (
	CheckoutAttempts = &Counter{}
	CheckoutFailures = NewCounterVec() // by reason
	VerifyOutcomes   = NewCounterVec() // by terminal state and reason
	GatewayCalls     = NewCounterVec() // by op and result

	publishOnce sync.Once
)

// Publish registers the counters on expvar's /debug/vars. Safe to call more than once.
func Publish() {
	publishOnce.Do(func() {
		expvar.Publish("checkout_attempts", CheckoutAttempts)
		expvar.Publish("checkout_failures", CheckoutFailures)
		expvar.Publish("verify_outcomes", VerifyOutcomes)
		expvar.Publish("gateway_calls", GatewayCalls)
	})
}
