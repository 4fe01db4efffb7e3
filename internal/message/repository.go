package message

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/teamforge/collabd/internal/storage"
)

// Repository persists messages in badger.
//
// Keys are "msg:<projectID>:<%019d nanos>:<uuid>": the zero-padded
// nanosecond timestamp makes lexicographic key order the chronological
// order, and the uuid suffix disambiguates two messages written in the
// same nanosecond. A forward prefix scan therefore yields the ascending,
// stable order the list endpoint promises.
type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{db: db}
}

func key(m Message) string {
	return fmt.Sprintf("msg:%s:%019d:%s", m.ProjectID, m.CreatedAt.UnixNano(), m.ID)
}

func prefix(projectID string) string {
	return fmt.Sprintf("msg:%s:", projectID)
}

// Store persists a message.
func (r *Repository) Store(m Message) error {
	return storage.SetJSON(r.db, key(m), m)
}

// ListByProject returns all messages for the project, ascending by
// creation time (key order).
func (r *Repository) ListByProject(projectID string) ([]Message, error) {
	return storage.ScanJSON[Message](r.db, prefix(projectID))
}
