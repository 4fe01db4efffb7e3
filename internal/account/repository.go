package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/teamforge/collabd/internal/storage"
)

// Key scheme:
//
//	account:id:<uuid>             -> Account JSON
//	account:email:<lower(email)>  -> account id
//
// The email index makes login and uniqueness checks a point lookup.
const (
	idKeyPrefix    = "account:id:"
	emailKeyPrefix = "account:email:"
)

// ErrEmailTaken is returned by Create when the email index already holds
// an entry for the address.
var ErrEmailTaken = errors.New("email already registered")

// Repository persists accounts in badger.
type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{db: db}
}

func idKey(id string) string       { return idKeyPrefix + id }
func emailKey(email string) string { return emailKeyPrefix + strings.ToLower(email) }

// Create stores a new account and its email index entry atomically.
func (r *Repository) Create(a Account) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshaling account %s: %w", a.ID, err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(emailKey(a.Email)))
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set([]byte(idKey(a.ID)), data); err != nil {
			return err
		}
		return txn.Set([]byte(emailKey(a.Email)), []byte(a.ID))
	})
}

// Get fetches an account by id.
func (r *Repository) Get(id string) (Account, error) {
	var a Account
	if err := storage.GetJSON(r.db, idKey(id), &a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// GetByEmail fetches an account through the email index.
func (r *Repository) GetByEmail(email string) (Account, error) {
	var id string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(emailKey(email)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return Account{}, err
	}
	return r.Get(id)
}

// GetMany fetches the accounts for the given ids, skipping ids with no
// stored account. Used by identity resolution, where a dangling reference
// must not fail the whole read.
func (r *Repository) GetMany(ids []string) ([]Account, error) {
	accounts := make([]Account, 0, len(ids))
	for _, id := range ids {
		a, err := r.Get(id)
		if errors.Is(err, storage.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetching account %s: %w", id, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}
