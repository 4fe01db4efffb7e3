// Package project implements the project aggregate and its membership
// lifecycle: capacity-limited collaborator enrollment with FIFO waitlist
// promotion.
package project

import (
	"time"
)

// Status is a project's lifecycle state.
type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusCompleted:
		return true
	}
	return false
}

// DefaultMaxCollaborators applies when a project is created without an
// explicit capacity.
const DefaultMaxCollaborators = 5

// Collaborator is a user counted against the project's capacity.
type Collaborator struct {
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Project is the aggregate root. Collaborators and the waitlist never
// share a user id, and len(Collaborators) never exceeds MaxCollaborators;
// every mutation goes through the membership engine or the service's
// locked update path to keep it that way.
type Project struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"ownerId"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	RequiredSkills   []string       `json:"requiredSkills"`
	MaxCollaborators int            `json:"maxCollaborators"`
	Collaborators    []Collaborator `json:"collaborators"`
	Waitlist         []string       `json:"waitlist"`
	Deadline         *time.Time     `json:"deadline,omitempty"`
	Status           Status         `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// IsCollaborator reports whether userID holds a collaborator slot.
func (p *Project) IsCollaborator(userID string) bool {
	for _, c := range p.Collaborators {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// IsWaitlisted reports whether userID is queued for a slot.
func (p *Project) IsWaitlisted(userID string) bool {
	for _, id := range p.Waitlist {
		if id == userID {
			return true
		}
	}
	return false
}

// HasCapacity reports whether a collaborator slot is free.
func (p *Project) HasCapacity() bool {
	return len(p.Collaborators) < p.MaxCollaborators
}
