// Package registry holds live curves keyed by plot and curve name.
//
// Entries live in an arena of slots indexed through a map from the xxHash64
// curve ID to the slot. Keys whose ID is already owned by another key are
// indexed by the full key instead. Iteration walks a snapshot of the arena,
// so a pass visits every entry that was live when it started exactly once
// regardless of concurrent inserts and removals.
package registry

import (
	"iter"
	"strings"
	"sync"

	"github.com/arloliu/smartplot/internal/collision"
	"github.com/arloliu/smartplot/internal/hash"
)

// Key identifies a curve. Names are case sensitive.
type Key struct {
	Plot  string
	Curve string
}

// Valid reports whether the key can be registered; names must not contain NUL.
func (k Key) Valid() bool {
	return strings.IndexByte(k.Plot, 0) < 0 && strings.IndexByte(k.Curve, 0) < 0
}

// String returns "plot/curve".
func (k Key) String() string {
	return k.Plot + "/" + k.Curve
}

func (k Key) name() string {
	return k.Plot + "\x00" + k.Curve
}

func keyOf(name string) Key {
	plot, curve, _ := strings.Cut(name, "\x00")
	return Key{Plot: plot, Curve: curve}
}

type slot[V any] struct {
	key  Key
	val  V
	live bool
}

// Registry is a concurrent map of curves with stable iteration.
type Registry[V any] struct {
	mu      sync.RWMutex
	slots   []slot[V]
	free    []int
	byID    map[uint64]int
	byKey   map[Key]int
	tracker *collision.Tracker
	idOf    func(Key) uint64
}

func curveID(k Key) uint64 {
	return hash.CurveID(k.Plot, k.Curve)
}

// New creates an empty registry.
func New[V any]() *Registry[V] {
	return &Registry[V]{
		byID:    make(map[uint64]int),
		byKey:   make(map[Key]int),
		tracker: collision.NewTracker(),
		idOf:    curveID,
	}
}

// Get looks up key.
func (r *Registry[V]) Get(key Key) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookup(key)
}

// FindOrCreate returns the entry for key, creating it with create when absent.
//
// create runs under the registry's exclusive lock and returns false to decline
// creation; nothing is inserted then and FindOrCreate reports not found.
func (r *Registry[V]) FindOrCreate(key Key, create func() (V, bool)) (val V, created bool, ok bool) {
	if v, found := r.Get(key); found {
		return v, false, true
	}
	if !key.Valid() {
		return val, false, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, found := r.lookup(key); found {
		return v, false, true
	}

	v, accept := create()
	if !accept {
		return val, false, false
	}
	if !r.insert(key, v) {
		return val, false, false
	}

	return v, true, true
}

// FindOrCreatePair returns the entries for two keys that are always
// registered together, creating both with create when neither exists.
// When only one of them exists the pair is reported not found.
func (r *Registry[V]) FindOrCreatePair(kx, ky Key, create func() (V, V, bool)) (vx, vy V, created bool, ok bool) {
	r.mu.RLock()
	x, okX := r.lookup(kx)
	y, okY := r.lookup(ky)
	r.mu.RUnlock()

	if okX && okY {
		return x, y, false, true
	}
	if kx == ky || !kx.Valid() || !ky.Valid() {
		return vx, vy, false, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	x, okX = r.lookup(kx)
	y, okY = r.lookup(ky)
	switch {
	case okX && okY:
		return x, y, false, true
	case okX || okY:
		return vx, vy, false, false
	}

	nx, ny, accept := create()
	if !accept {
		return vx, vy, false, false
	}
	if !r.insert(kx, nx) {
		return vx, vy, false, false
	}
	if !r.insert(ky, ny) {
		r.remove(kx)
		return vx, vy, false, false
	}

	return nx, ny, true, true
}

// Remove detaches and returns the entry for key.
func (r *Registry[V]) Remove(key Key) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.remove(key)
}

// Len returns the number of live entries.
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tracker.Count()
}

// Collisions returns the number of live keys sharing their curve ID with another key.
func (r *Registry[V]) Collisions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tracker.Collisions()
}

// Snapshot returns the live entries in arena order.
func (r *Registry[V]) Snapshot() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]V, 0, r.tracker.Count())
	for i := range r.slots {
		if r.slots[i].live {
			out = append(out, r.slots[i].val)
		}
	}

	return out
}

// All iterates a snapshot of the live entries in arena order.
func (r *Registry[V]) All() iter.Seq2[Key, V] {
	r.mu.RLock()
	type kv struct {
		key Key
		val V
	}
	snap := make([]kv, 0, r.tracker.Count())
	for i := range r.slots {
		if r.slots[i].live {
			snap = append(snap, kv{r.slots[i].key, r.slots[i].val})
		}
	}
	r.mu.RUnlock()

	return func(yield func(Key, V) bool) {
		for _, e := range snap {
			if !yield(e.key, e.val) {
				return
			}
		}
	}
}

func (r *Registry[V]) lookup(key Key) (V, bool) {
	var zero V

	if idx, ok := r.byID[r.idOf(key)]; ok && r.slots[idx].key == key {
		return r.slots[idx].val, true
	}
	if idx, ok := r.byKey[key]; ok {
		return r.slots[idx].val, true
	}

	return zero, false
}

func (r *Registry[V]) insert(key Key, val V) bool {
	id := r.idOf(key)

	collided, err := r.tracker.Track(key.name(), id)
	if err != nil {
		return false
	}

	idx := len(r.slots)
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[idx] = slot[V]{key: key, val: val, live: true}
	} else {
		r.slots = append(r.slots, slot[V]{key: key, val: val, live: true})
	}

	if collided {
		r.byKey[key] = idx
	} else {
		r.byID[id] = idx
	}

	return true
}

func (r *Registry[V]) remove(key Key) (V, bool) {
	var zero V

	id := r.idOf(key)
	idx, ok := r.byID[id]
	if ok && r.slots[idx].key == key {
		delete(r.byID, id)
	} else if idx, ok = r.byKey[key]; ok {
		delete(r.byKey, key)
	} else {
		return zero, false
	}

	if promoted, ok := r.tracker.Untrack(key.name()); ok {
		pk := keyOf(promoted)
		r.byID[id] = r.byKey[pk]
		delete(r.byKey, pk)
	}

	val := r.slots[idx].val
	r.slots[idx] = slot[V]{}
	r.free = append(r.free, idx)

	return val, true
}
