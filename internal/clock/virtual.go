package clock

import (
	"sort"
	"sync"
	"time"
)

// Virtual is a deterministic Clock for tests. Timers fire only when the test
// advances logical time explicitly; callbacks run synchronously on the
// goroutine that calls Advance, in firing order.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	seq   int64
	tasks []*virtualTimer
}

type virtualTimer struct {
	clock   *Virtual
	at      time.Time
	seq     int64 // разрешает порядок задач с одинаковым временем срабатывания
	fn      func()
	stopped bool
	fired   bool
}

// NewVirtual creates a virtual clock anchored at the given start time.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the current virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// AfterFunc schedules f at now+d. The callback does not run until Advance
// moves virtual time past the deadline.
func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	t := &virtualTimer{
		clock: v,
		at:    v.now.Add(d),
		seq:   v.seq,
		fn:    f,
	}
	v.tasks = append(v.tasks, t)
	return t
}

// Stop cancels the timer. Reports whether it was cancelled before firing.
func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves virtual time forward by d, firing due timers in deadline
// order. Callbacks may schedule new timers; those fire too if they fall
// within the advanced window.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		t := v.popDue(target)
		if t == nil {
			break
		}
		// Запускаем callback вне мьютекса: он может планировать новые таймеры.
		t.fn()
	}

	v.mu.Lock()
	v.now = target
	v.mu.Unlock()
}

// popDue removes and returns the earliest unfired timer with deadline at or
// before target, advancing virtual time to its deadline. Returns nil when no
// timer is due.
func (v *Virtual) popDue(target time.Time) *virtualTimer {
	v.mu.Lock()
	defer v.mu.Unlock()

	pending := v.tasks[:0]
	for _, t := range v.tasks {
		if !t.stopped && !t.fired {
			pending = append(pending, t)
		}
	}
	v.tasks = pending

	sort.SliceStable(v.tasks, func(i, j int) bool {
		if v.tasks[i].at.Equal(v.tasks[j].at) {
			return v.tasks[i].seq < v.tasks[j].seq
		}
		return v.tasks[i].at.Before(v.tasks[j].at)
	})

	if len(v.tasks) == 0 || v.tasks[0].at.After(target) {
		return nil
	}

	t := v.tasks[0]
	v.tasks = v.tasks[1:]
	t.fired = true
	if t.at.After(v.now) {
		v.now = t.at
	}
	return t
}
