package profile

import (
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/teamforge/collabd/internal/storage"
)

// Profiles are keyed "profile:<userID>": one document per user, upserted
// in place.
const keyPrefix = "profile:"

// SearchFilter narrows Search results. Zero values match everything.
type SearchFilter struct {
	Skill    string
	City     string
	Country  string
	MinHours int
}

func (f SearchFilter) matches(p Profile) bool {
	if f.Skill != "" {
		found := false
		needle := strings.ToLower(f.Skill)
		for _, s := range p.Skills {
			if strings.Contains(strings.ToLower(s.Name), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.City != "" && !strings.Contains(strings.ToLower(p.Location.City), strings.ToLower(f.City)) {
		return false
	}
	if f.Country != "" && !strings.Contains(strings.ToLower(p.Location.Country), strings.ToLower(f.Country)) {
		return false
	}
	if f.MinHours > 0 && p.Availability.HoursPerWeek < f.MinHours {
		return false
	}
	return true
}

// Repository persists profiles in badger.
type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{db: db}
}

// Put upserts the profile document for its user.
func (r *Repository) Put(p Profile) error {
	return storage.SetJSON(r.db, keyPrefix+p.UserID, p)
}

// Get fetches a profile by user id. Returns storage.ErrKeyNotFound when
// the user has no profile yet.
func (r *Repository) Get(userID string) (Profile, error) {
	var p Profile
	if err := storage.GetJSON(r.db, keyPrefix+userID, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Search scans all profiles and returns the page matching the filter,
// plus the total match count for pagination.
func (r *Repository) Search(f SearchFilter, page, limit int) ([]Profile, int, error) {
	all, err := storage.ScanJSON[Profile](r.db, keyPrefix)
	if err != nil {
		return nil, 0, err
	}

	var matched []Profile
	for _, p := range all {
		if f.matches(p) {
			matched = append(matched, p)
		}
	}

	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, len(matched), nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}
