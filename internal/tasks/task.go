package tasks

import (
	"taskmarket-client/internal/session"
)

// Owner is a reference to a user carried on externally-fetched records.
// Producers disagree on the id type (number vs numeric string); Owner
// preserves the wire form and leaves normalization to the comparison.
type Owner struct {
	ID    session.EntityID `json:"id"`
	Email string           `json:"email,omitempty"`
	Name  string           `json:"name,omitempty"`
}

// Task is a marketplace task as returned by the backend. Read-only to this
// client.
type Task struct {
	ID          session.EntityID `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Budget      float64          `json:"budget,omitempty"`
	Location    string           `json:"location,omitempty"`
	Status      string           `json:"status,omitempty"`
	CreatedAt   string           `json:"createdAt,omitempty"`

	// User posted the task; AssignedTo is working on it. Either may be
	// absent.
	User       *Owner `json:"user,omitempty"`
	AssignedTo *Owner `json:"assignedTo,omitempty"`
}

// OwnerFunc selects which owner reference of a task a partition is about.
type OwnerFunc func(Task) *Owner

// PostedBy selects the task's poster.
func PostedBy(t Task) *Owner { return t.User }

// AssignedTo selects the task's assignee.
func AssignedTo(t Task) *Owner { return t.AssignedTo }
