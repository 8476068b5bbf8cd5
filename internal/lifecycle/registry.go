// Lifecycle of cache generations: install, activate, supersede.
package lifecycle

import (
	"sync"

	"github.com/its7amo/clean-and-green-website-sub003/internal/fetch"
)

// Registry is the single-owner handle deciding which generation serves
// traffic. At most one controller is active at a time; claiming the
// registry revokes the previous owner.
type Registry struct {
	mu      sync.Mutex
	current *Controller
}

func NewRegistry() *Registry {
	return &Registry{}
}

// claim installs c as the active generation and supersedes the previous one.
func (r *Registry) claim(c *Controller) {
	r.mu.Lock()
	prev := r.current
	r.current = c
	r.mu.Unlock()

	if prev != nil && prev != c {
		prev.supersede()
	}
}

// Interceptor returns the active generation's interceptor, or nil when no
// generation controls traffic yet.
func (r *Registry) Interceptor() *fetch.Interceptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	return r.current.interceptor
}

// Current returns the controlling generation, or nil.
func (r *Registry) Current() *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
