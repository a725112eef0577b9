package collision

import (
	"github.com/arloliu/smartplot/errs"
)

// Tracker tracks curve keys by their hash and detects hash collisions.
//
// Each hash has one owner, the first key tracked with it; later keys with the
// same hash are colliders that the registry indexes by key instead.
type Tracker struct {
	owners     map[uint64]string // hash → owning key
	names      map[string]uint64 // key → hash, for every tracked key
	collisions int               // keys tracked under a hash they do not own
}

// NewTracker creates a new collision tracker.
func NewTracker() *Tracker {
	return &Tracker{
		owners: make(map[uint64]string),
		names:  make(map[string]uint64),
	}
}

// Track records name under hash and reports whether hash is already owned by
// another name.
// Returns error if:
// - The name is empty (ErrInvalidKey)
// - The same name is tracked twice (ErrDuplicateKey)
func (t *Tracker) Track(name string, hash uint64) (bool, error) {
	if name == "" {
		return false, errs.ErrInvalidKey
	}
	if _, exists := t.names[name]; exists {
		return false, errs.ErrDuplicateKey
	}

	t.names[name] = hash

	if _, owned := t.owners[hash]; owned {
		t.collisions++
		return true, nil
	}

	t.owners[hash] = name

	return false, nil
}

// Untrack forgets name. When name owned its hash and a collider shares that
// hash, the collider becomes the new owner and is returned.
func (t *Tracker) Untrack(name string) (string, bool) {
	hash, exists := t.names[name]
	if !exists {
		return "", false
	}
	delete(t.names, name)

	if t.owners[hash] != name {
		t.collisions--
		return "", false
	}
	delete(t.owners, hash)

	for other, h := range t.names {
		if h == hash {
			t.owners[hash] = other
			t.collisions--

			return other, true
		}
	}

	return "", false
}

// Owner returns the name owning hash.
func (t *Tracker) Owner(hash uint64) (string, bool) {
	name, ok := t.owners[hash]
	return name, ok
}

// HasCollision returns true if any tracked name shares its hash with another.
func (t *Tracker) HasCollision() bool {
	return t.collisions > 0
}

// Collisions returns the number of tracked names that do not own their hash.
func (t *Tracker) Collisions() int {
	return t.collisions
}

// Count returns the number of tracked names.
func (t *Tracker) Count() int {
	return len(t.names)
}

// Reset clears all tracked names and collision state.
func (t *Tracker) Reset() {
	clear(t.owners)
	clear(t.names)
	t.collisions = 0
}
