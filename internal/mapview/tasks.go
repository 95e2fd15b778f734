package mapview

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

const (
	taskResize = "resize"
	taskPopup  = "popup"
)

type pendingTask struct {
	id    uint64
	timer *clock.Timer
}

// tasks owns the controller's deferred work. Scheduling a name supersedes
// the previous task of that name, and a superseded or cancelled task never
// runs even if its timer already fired. Callbacks run with mu held.
type tasks struct {
	mu      sync.Locker
	clk     clock.Clock
	seq     uint64
	pending map[string]pendingTask
}

func newTasks(mu sync.Locker, clk clock.Clock) *tasks {
	return &tasks{mu: mu, clk: clk, pending: make(map[string]pendingTask)}
}

// schedule must be called with mu held.
func (t *tasks) schedule(name string, d time.Duration, fn func()) {
	t.cancel(name)
	t.seq++
	id := t.seq
	timer := t.clk.AfterFunc(d, func() { t.fire(name, id, fn) })
	t.pending[name] = pendingTask{id: id, timer: timer}
}

func (t *tasks) fire(name string, id uint64, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pending[name]
	if !ok || p.id != id {
		return
	}
	delete(t.pending, name)
	fn()
}

// cancel must be called with mu held.
func (t *tasks) cancel(name string) {
	if p, ok := t.pending[name]; ok {
		p.timer.Stop()
		delete(t.pending, name)
	}
}

func (t *tasks) cancelAll() {
	for name := range t.pending {
		t.cancel(name)
	}
}

func (t *tasks) scheduled(name string) bool {
	_, ok := t.pending[name]
	return ok
}
