package cart

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound indicates the requested cart session could not be located.
var ErrNotFound = errors.New("cart not found")

// Registry owns the live cart sessions of the process. Carts are created
// explicitly per POS session and dropped on checkout or reset; there is no
// ambient singleton cart.
type Registry struct {
	mu    sync.RWMutex
	carts map[uuid.UUID]*Cart
}

// NewRegistry constructs an empty cart registry.
func NewRegistry() *Registry {
	return &Registry{carts: make(map[uuid.UUID]*Cart)}
}

// Create registers a new empty cart and returns it.
func (r *Registry) Create() *Cart {
	c := New()
	r.mu.Lock()
	r.carts[c.id] = c
	r.mu.Unlock()
	return c
}

// Get returns the cart for the given session identifier.
func (r *Registry) Get(id uuid.UUID) (*Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Drop discards the cart session. Dropping an unknown session is a no-op.
func (r *Registry) Drop(id uuid.UUID) {
	r.mu.Lock()
	delete(r.carts, id)
	r.mu.Unlock()
}

// Len reports the number of live cart sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carts)
}
