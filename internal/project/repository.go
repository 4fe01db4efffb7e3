package project

import (
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/teamforge/collabd/internal/storage"
)

// keyPrefix scopes all project documents. Keys are "project:<uuid>";
// listing is a prefix scan with in-process filtering, which matches the
// scale a single collabd deployment serves.
const keyPrefix = "project:"

// Filter narrows List results. Zero values match everything.
type Filter struct {
	// Skill matches projects whose required skills contain the value as a
	// case-insensitive substring.
	Skill string
	// Status matches projects with the exact status.
	Status Status
}

func (f Filter) matches(p Project) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Skill != "" {
		needle := strings.ToLower(f.Skill)
		for _, s := range p.RequiredSkills {
			if strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
		return false
	}
	return true
}

// Repository persists project aggregates in badger.
type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{db: db}
}

// Put writes the aggregate.
func (r *Repository) Put(p Project) error {
	return storage.SetJSON(r.db, keyPrefix+p.ID, p)
}

// Get fetches an aggregate by id. Returns storage.ErrKeyNotFound when the
// project does not exist.
func (r *Repository) Get(id string) (Project, error) {
	var p Project
	if err := storage.GetJSON(r.db, keyPrefix+id, &p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// List scans all projects and returns those matching the filter, in key
// (creation id) order.
func (r *Repository) List(f Filter) ([]Project, error) {
	all, err := storage.ScanJSON[Project](r.db, keyPrefix)
	if err != nil {
		return nil, err
	}
	matched := all[:0]
	for _, p := range all {
		if f.matches(p) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}
