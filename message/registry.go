package message

import (
	"sort"
	"sync"
)

// Shim is a typed view over a decoded message. Any struct embedding
// *Message satisfies it.
type Shim interface {
	Base() *Message
	GlobalMessageNumber() uint16
}

// Constructor wraps a decoded message in its typed shim.
type Constructor func(*Message) Shim

// Unknown wraps messages that have no registered shim.
type Unknown struct {
	*Message
}

// Registry maps global message numbers to shim constructors. Registration is
// expected at setup; lookups are safe from concurrent decoders.
type Registry struct {
	mu    sync.RWMutex
	ctors map[uint16]Constructor
}

func NewRegistry() *Registry {
	return &Registry{ctors: make(map[uint16]Constructor)}
}

// Register binds c to global, replacing any previous constructor.
func (r *Registry) Register(global uint16, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[global] = c
}

func (r *Registry) Lookup(global uint16) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.ctors[global]
	return c, ok
}

// Wrap builds the typed shim for m, falling back to Unknown.
func (r *Registry) Wrap(m *Message) Shim {
	if r != nil {
		if c, ok := r.Lookup(m.GlobalMessageNumber()); ok {
			if s := c(m); s != nil {
				return s
			}
		}
	}
	return Unknown{m}
}

// Globals lists registered message numbers in ascending order.
func (r *Registry) Globals() []uint16 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uint16, 0, len(r.ctors))
	for g := range r.ctors {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
