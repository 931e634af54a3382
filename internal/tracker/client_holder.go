package tracker

import (
	"sync"

	"github.com/caffeinepub/calorie-burn-tracker/internal/remote"
)

// clientHolder is the single mutable binding between the session and the
// remote client. nil while anonymous.
type clientHolder struct {
	mu     sync.RWMutex
	client remote.Client
}

func (h *clientHolder) get() remote.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client
}

func (h *clientHolder) set(c remote.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.client = c
}
