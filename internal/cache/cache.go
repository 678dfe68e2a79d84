package cache

import (
	"encoding/json"
	"fmt"

	"bakatter.app/server/internal/model"
	"github.com/dgraph-io/badger/v4"
)

// Fixed keys mirroring what the web client keeps in its local storage.
const (
	keyPosts   = "bakatter-posts"
	keyAccount = "bakatter-account:"
)

// Cache is a badger-backed local key/value mirror: the current session's
// profile plus a pending-write fallback copy of the posts list. It is always
// subordinate to the remote store on a successful fetch.
type Cache struct {
	db *badger.DB
}

// Open opens (or creates) the cache at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// OpenInMemory opens a throwaway cache with no disk backing, for tests.
func OpenInMemory() (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// SavePosts overwrites the fallback posts snapshot.
func (c *Cache) SavePosts(posts []*model.Post) error {
	return c.setJSON(keyPosts, posts)
}

// LoadPosts returns the last saved snapshot. A missing key is an empty list,
// not an error.
func (c *Cache) LoadPosts() ([]*model.Post, error) {
	var posts []*model.Post
	err := c.getJSON(keyPosts, &posts)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	return posts, err
}

// SaveProfile mirrors a user's profile snapshot under their id.
func (c *Cache) SaveProfile(user *model.User) error {
	return c.setJSON(keyAccount+user.ID.String(), user)
}

// LoadProfile returns the mirrored profile, or nil when none was saved.
func (c *Cache) LoadProfile(userID string) (*model.User, error) {
	var user model.User
	err := c.getJSON(keyAccount+userID, &user)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteProfile drops the mirror, used when an account is deleted.
func (c *Cache) DeleteProfile(userID string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(keyAccount + userID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

func (c *Cache) setJSON(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), b)
	})
}

func (c *Cache) getJSON(key string, v interface{}) error {
	return c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}
