package project

import (
	"time"

	"github.com/samber/lo"

	"github.com/teamforge/collabd/internal/apperrors"
)

// Membership engine: pure mutations on the aggregate. The service applies
// them under the per-project lock so concurrent joins cannot both observe
// spare capacity and overshoot MaxCollaborators.

var (
	// ErrAlreadyMember is returned when the user already holds a slot.
	ErrAlreadyMember = apperrors.New(apperrors.KindConflict, "already joined")
	// ErrAlreadyWaitlisted is returned when the user is already queued.
	ErrAlreadyWaitlisted = apperrors.New(apperrors.KindConflict, "already in waitlist")
)

// JoinStatus describes the outcome of a join.
type JoinStatus string

const (
	// Joined means the user took a free collaborator slot.
	Joined JoinStatus = "joined"
	// Waitlisted means the project was full and the user queued.
	Waitlisted JoinStatus = "waitlisted"
)

// Join enrolls userID: into a collaborator slot when capacity allows,
// otherwise onto the end of the waitlist.
func Join(p *Project, userID string, now time.Time) (JoinStatus, error) {
	if p.IsCollaborator(userID) {
		return "", ErrAlreadyMember
	}

	if p.HasCapacity() {
		p.Collaborators = append(p.Collaborators, Collaborator{UserID: userID, JoinedAt: now})
		return Joined, nil
	}

	if p.IsWaitlisted(userID) {
		return "", ErrAlreadyWaitlisted
	}

	p.Waitlist = append(p.Waitlist, userID)
	return Waitlisted, nil
}

// Leave removes userID from the collaborators and the waitlist, then runs
// the promotion loop. It is idempotent: leaving a project the user never
// joined is not an error, and the promotion loop still runs so any
// spare capacity drains the waitlist.
func Leave(p *Project, userID string, now time.Time) []string {
	p.Collaborators = lo.Reject(p.Collaborators, func(c Collaborator, _ int) bool {
		return c.UserID == userID
	})
	p.Waitlist = lo.Reject(p.Waitlist, func(id string, _ int) bool {
		return id == userID
	})
	return promote(p, now)
}

// promote moves waitlisted users into free slots, strictly FIFO: the
// longest-waiting user fills the first freed slot. Returns the promoted
// user ids in promotion order.
func promote(p *Project, now time.Time) []string {
	var promoted []string
	for p.HasCapacity() && len(p.Waitlist) > 0 {
		next := p.Waitlist[0]
		p.Waitlist = p.Waitlist[1:]
		p.Collaborators = append(p.Collaborators, Collaborator{UserID: next, JoinedAt: now})
		promoted = append(promoted, next)
	}
	return promoted
}
