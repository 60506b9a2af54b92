// Package tasks models externally-owned marketplace records and reconciles
// their owner references against the session identity. Reconciliation is
// pure: it never mutates the session or the records, so several disjoint
// views can be partitioned from one fetch.
package tasks

import (
	"taskmarket-client/internal/session"
)

// Partition splits entities into those owned by identity and the rest,
// preserving input order. The owner reference is chosen by ownerOf (see
// PostedBy, AssignedTo). First match wins per entity:
//
//  1. canonical-id equality, neutralizing number-vs-string producers
//  2. exact, case-sensitive email equality
//  3. otherwise not owned
func Partition(identity session.Identity, entities []Task, ownerOf OwnerFunc) (owned, notOwned []Task) {
	owned = make([]Task, 0, len(entities))
	notOwned = make([]Task, 0, len(entities))
	for _, t := range entities {
		if Owns(identity, ownerOf(t)) {
			owned = append(owned, t)
		} else {
			notOwned = append(notOwned, t)
		}
	}
	return owned, notOwned
}

// Owns reports whether the session identity matches an owner reference.
func Owns(identity session.Identity, owner *Owner) bool {
	if owner == nil {
		return false
	}
	if identity.ID.Equal(owner.ID) {
		return true
	}
	return identity.Email != "" && identity.Email == owner.Email
}
