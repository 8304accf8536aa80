package core

import "sync"

// reentrancyGuard marks a window in which the model is mutating the
// buffer itself, so its own change listeners stand down. acquire returns
// the release; deferring it guarantees the flag clears on every exit
// path, including a failed mutation.
type reentrancyGuard struct {
	mu   sync.Mutex
	held bool
}

func (g *reentrancyGuard) acquire() (release func()) {
	g.mu.Lock()
	g.held = true
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		g.held = false
		g.mu.Unlock()
	}
}

func (g *reentrancyGuard) isHeld() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}
