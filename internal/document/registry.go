package document

import "sync"

// DefaultContainerID is the identity the form page is mounted under
const DefaultContainerID = "form-document"

// Registry maps stable container identities to renderable containers
type Registry struct {
	mu         sync.RWMutex
	containers map[string]Container
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{containers: make(map[string]Container)}
}

// Mount registers c under id, replacing any previous container
func (r *Registry) Mount(id string, c Container) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers[id] = c
}

// Unmount removes the container registered under id
func (r *Registry) Unmount(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.containers, id)
}

// Lookup resolves a container by identity
func (r *Registry) Lookup(id string) (Container, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.containers[id]
	return c, ok
}
