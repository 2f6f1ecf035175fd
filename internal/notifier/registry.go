package notifier

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/newthinker/quantsafe/internal/core"
)

// Registry manages notifier instances
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

// NewRegistry creates a new notifier registry
func NewRegistry() *Registry {
	return &Registry{
		notifiers: make(map[string]Notifier),
	}
}

// Register adds a notifier to the registry
func (r *Registry) Register(n Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := n.Name()
	if _, exists := r.notifiers[name]; exists {
		return fmt.Errorf("notifier %s already registered", name)
	}

	r.notifiers[name] = n
	return nil
}

// Get retrieves a notifier by name
func (r *Registry) Get(name string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, exists := r.notifiers[name]
	if !exists {
		return nil, fmt.Errorf("notifier %s not found", name)
	}
	return n, nil
}

// GetAll returns all registered notifiers ordered by name
func (r *Registry) GetAll() []Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Notifier, 0, len(r.notifiers))
	for _, n := range r.notifiers {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Len returns the number of registered notifiers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notifiers)
}

// NotifyAll sends event to every registered notifier. Failures are keyed by
// notifier name and wrapped as core.ErrNotifierFailed.
func (r *Registry) NotifyAll(ctx context.Context, event Event) map[string]error {
	errs := make(map[string]error)
	for _, n := range r.GetAll() {
		if err := n.Send(ctx, event); err != nil {
			errs[n.Name()] = core.WrapError(core.ErrNotifierFailed, err)
		}
	}
	return errs
}

// Close closes every notifier that holds resources.
func (r *Registry) Close() error {
	var first error
	for _, n := range r.GetAll() {
		if c, ok := n.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = fmt.Errorf("close %s: %w", n.Name(), err)
			}
		}
	}
	return first
}
