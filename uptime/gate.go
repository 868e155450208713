package uptime

import "sync"

// Gate ensures only one manual check per target is in flight. Acquire never
// blocks; a per-target entry is created on first use and kept for the life
// of the Gate.
type Gate struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewGate() *Gate {
	return &Gate{locks: make(map[string]*sync.Mutex)}
}

// TryAcquire returns false if a check for id is already running.
func (g *Gate) TryAcquire(id string) bool {
	g.mu.Lock()
	l, ok := g.locks[id]
	if !ok {
		l = &sync.Mutex{}
		g.locks[id] = l
	}
	g.mu.Unlock()
	return l.TryLock()
}

// Release frees the gate for id. Releasing a gate that is not held is a no-op.
func (g *Gate) Release(id string) {
	g.mu.Lock()
	l, ok := g.locks[id]
	g.mu.Unlock()
	if !ok {
		return
	}
	if !l.TryLock() {
		l.Unlock()
		return
	}
	l.Unlock()
}
