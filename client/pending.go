package client

import (
	"fmt"
	"sync"
)

// PendingRoots holds root components added by script that have not been
// claimed by the session host yet. Each entry is claimed at most once.
//
// It is safe for concurrent use.
type PendingRoots struct {
	mu         sync.Mutex
	containers map[string]string
}

// NewPendingRoots creates an empty set.
func NewPendingRoots() *PendingRoots {
	return &PendingRoots{containers: make(map[string]string)}
}

// Add registers container (an element selector) under id.
func (p *PendingRoots) Add(id, container string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.containers[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRoot, id)
	}
	p.containers[id] = container
	return nil
}

// Take claims and removes the container registered under id.
func (p *PendingRoots) Take(id string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	container, ok := p.containers[id]
	if ok {
		delete(p.containers, id)
	}
	return container, ok
}

// Len returns how many roots are still pending.
func (p *PendingRoots) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.containers)
}
