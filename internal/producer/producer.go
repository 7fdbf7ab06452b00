// Package producer defines the content-producer abstraction and its
// implementations. A producer turns a task description into stage
// content; the engine re-invokes it with revision instructions when a
// reviewer rejects its output.
package producer

import (
	"context"
	"sync"

	"github.com/stagegate/stagegate/internal/review"
)

// Producer generates content from a task description.
type Producer interface {
	Produce(ctx context.Context, task string) (string, error)
}

// Func adapts a plain function to Producer.
type Func func(ctx context.Context, task string) (string, error)

func (f Func) Produce(ctx context.Context, task string) (string, error) {
	return f(ctx, task)
}

// Registry maps producer ids to Producers and serves the review engine's
// resolver interface.
type Registry struct {
	mu        sync.RWMutex
	producers map[string]Producer
}

// NewRegistry creates an empty producer registry.
func NewRegistry() *Registry {
	return &Registry{producers: make(map[string]Producer)}
}

// Register binds id to p, replacing any previous binding.
func (r *Registry) Register(id string, p Producer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.producers[id] = p
}

// Resolve returns the producer function bound to id.
func (r *Registry) Resolve(id string) (review.ProducerFunc, bool) {
	r.mu.RLock()
	p, ok := r.producers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return p.Produce, true
}

// IDs lists the registered producer ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.producers))
	for id := range r.producers {
		out = append(out, id)
	}
	return out
}
