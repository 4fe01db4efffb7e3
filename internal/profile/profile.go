// Package profile manages maker profiles: bio, skills, portfolio and
// availability, keyed by the owning user.
package profile

import (
	"time"

	"github.com/teamforge/collabd/internal/account"
)

// Skill is a named skill with an optional 1-5 level.
type Skill struct {
	Name  string `json:"name" validate:"required"`
	Level int    `json:"level" validate:"omitempty,min=1,max=5"`
}

// PortfolioItem is a past work sample linked from the profile.
type PortfolioItem struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"omitempty,url"`
	Type        string `json:"type" validate:"omitempty,oneof=project image video document other"`
}

// Availability describes how much time the user can commit.
type Availability struct {
	HoursPerWeek int  `json:"hoursPerWeek"`
	Active       bool `json:"active"`
}

// Location is a coarse city/country pair for search.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Profile is one user's public profile document.
type Profile struct {
	UserID       string          `json:"userId"`
	Bio          string          `json:"bio"`
	Skills       []Skill         `json:"skills"`
	Portfolio    []PortfolioItem `json:"portfolio"`
	Availability Availability    `json:"availability"`
	Location     Location        `json:"location"`
	RatingAvg    float64         `json:"ratingAvg"`
	RatingsCount int             `json:"ratingsCount"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// View is a profile with the owning user's resolved identity.
type View struct {
	Profile
	User account.UserRef `json:"user"`
}

// SearchResult is a paginated search response.
type SearchResult struct {
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	Results []View `json:"results"`
}
