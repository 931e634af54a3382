// Package session owns the current authentication identity and gates every
// remote read and write behind it.
package session

import (
	"sync"

	"github.com/caffeinepub/calorie-burn-tracker/internal/identity"
)

// Gate is the single holder of the current identity. Every identity
// transition bumps the epoch and notifies subscribers before the transition
// call returns, so cached state scoped to the previous identity can be
// dropped before any read on behalf of the new one is admitted.
type Gate struct {
	mu      sync.RWMutex
	current identity.Identity
	epoch   uint64
	subs    []func()
}

// NewGate starts anonymous at epoch zero.
func NewGate() *Gate {
	return &Gate{}
}

// Current returns the identity as of this call.
func (g *Gate) Current() identity.Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// Authenticated reports whether a non-anonymous identity is bound.
func (g *Gate) Authenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.current.Anonymous()
}

// Epoch returns the current session epoch. Completions carrying an older
// epoch belong to a previous identity and must be discarded.
func (g *Gate) Epoch() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch
}

// Subscribe registers fn to run on every identity transition.
func (g *Gate) Subscribe(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subs = append(g.subs, fn)
}

// Login binds id as the current identity. Binding the identity already
// bound is a no-op; binding an anonymous identity is equivalent to Logout.
func (g *Gate) Login(id identity.Identity) {
	g.transition(id)
}

// Logout reverts to the anonymous identity.
func (g *Gate) Logout() {
	g.transition(identity.Identity{})
}

func (g *Gate) transition(next identity.Identity) {
	g.mu.Lock()
	if g.current == next {
		g.mu.Unlock()
		return
	}
	g.current = next
	g.epoch++
	subs := make([]func(), len(g.subs))
	copy(subs, g.subs)
	g.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
