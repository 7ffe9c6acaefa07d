// Package directory stores the contact and blacklist relations.
//
// Contacts are a directed owner -> contact-id relation, insertion-ordered
// and duplicate-free. The blacklist is the symmetric contact -> blocked
// owner-id relation, checked at alert fan-out time. Both relations are
// safe for concurrent use from different keys: the fan-out path reads a
// contact set while that owner's own edits run elsewhere.
package directory

import "sync"

// Directory is the keyed store for contact and blacklist edges. The zero
// value is not usable; construct with New.
type Directory struct {
	mu        sync.RWMutex
	contacts  map[int64][]int64 // owner -> contact ids, insertion order
	blacklist map[int64][]int64 // contact -> blocked owner ids, insertion order
}

// New creates an empty directory.
func New() *Directory {
	return &Directory{
		contacts:  make(map[int64][]int64),
		blacklist: make(map[int64][]int64),
	}
}

// AddContact appends contact to owner's list if absent. Reports whether
// the list changed; adding twice is idempotent.
func (d *Directory) AddContact(owner, contact int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return appendUnique(d.contacts, owner, contact)
}

// ListContacts returns an ordered-unique snapshot of owner's contacts.
// Unknown owners get an empty list.
func (d *Directory) ListContacts(owner int64) []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot(d.contacts[owner])
}

// RemoveContact removes contact from owner's list. Reports whether a
// removal occurred.
func (d *Directory) RemoveContact(owner, contact int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return removeOne(d.contacts, owner, contact)
}

// RemoveEverywhere removes contact from every owner's list and returns
// the number of lists it was removed from. Used for global opt-out.
func (d *Directory) RemoveEverywhere(contact int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for owner := range d.contacts {
		if removeOne(d.contacts, owner, contact) {
			removed++
		}
	}
	return removed
}

// BlacklistAdd records that contact refuses alerts from owner.
// Idempotent; reports whether the relation changed.
func (d *Directory) BlacklistAdd(contact, owner int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return appendUnique(d.blacklist, contact, owner)
}

// BlacklistRemove lifts a block. Reports whether a removal occurred.
func (d *Directory) BlacklistRemove(contact, owner int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return removeOne(d.blacklist, contact, owner)
}

// BlacklistList returns the owners blocked by contact, insertion-ordered.
func (d *Directory) BlacklistList(contact int64) []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot(d.blacklist[contact])
}

// IsBlacklisted reports whether contact has blocked owner.
func (d *Directory) IsBlacklisted(contact, owner int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, id := range d.blacklist[contact] {
		if id == owner {
			return true
		}
	}
	return false
}

// Export returns deep copies of both relations for persistence.
func (d *Directory) Export() (contacts, blacklist map[int64][]int64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return copyRelation(d.contacts), copyRelation(d.blacklist)
}

// Restore replaces both relations from a persisted snapshot. Nil maps
// are treated as empty.
func (d *Directory) Restore(contacts, blacklist map[int64][]int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts = copyRelation(contacts)
	d.blacklist = copyRelation(blacklist)
}

func appendUnique(rel map[int64][]int64, key, id int64) bool {
	for _, existing := range rel[key] {
		if existing == id {
			return false
		}
	}
	rel[key] = append(rel[key], id)
	return true
}

func removeOne(rel map[int64][]int64, key, id int64) bool {
	lst := rel[key]
	for i, existing := range lst {
		if existing == id {
			rel[key] = append(lst[:i:i], lst[i+1:]...)
			return true
		}
	}
	return false
}

func snapshot(lst []int64) []int64 {
	out := make([]int64, len(lst))
	copy(out, lst)
	return out
}

func copyRelation(rel map[int64][]int64) map[int64][]int64 {
	out := make(map[int64][]int64, len(rel))
	for key, lst := range rel {
		out[key] = snapshot(lst)
	}
	return out
}
