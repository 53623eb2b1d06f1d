// Package persist is the on-device cache: a single sqlite key-value table
// holding the session token and small bounded slices of store state so the
// app can render something immediately after a restart. Every failure here
// degrades to a cache miss; the cache is never a source of truth.
package persist

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hearth-app/hearth-client/internal/model"
)

const (
	keyToken          = "auth/token"
	keyUser           = "auth/user"
	keyFeed           = "feed/posts"
	maxPersistedPosts = 20
)

var ErrBadCacheKey = errors.New("cache key must be 32 bytes")

type Entry struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     []byte
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "cache_entries" }

type Cache struct {
	db   *gorm.DB
	aead cipher.AEAD
	log  *zap.Logger
}

// Open creates or migrates the cache file. key encrypts the token at rest;
// pass nil to store it in the clear (tests, devserver runs).
func Open(path string, key []byte, log *zap.Logger) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}

	c := &Cache{db: db, log: log}
	if key != nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, ErrBadCacheKey
		}
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, err
		}
		c.aead = aead
	}
	return c, nil
}

func (c *Cache) Close() error {
	db, err := c.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// Put stores v as JSON under key, overwriting any previous value.
func (c *Cache) Put(key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.putRaw(key, value)
}

// Get loads key into out. Returns false on miss or any failure.
func (c *Cache) Get(key string, out any) bool {
	value, ok := c.getRaw(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(value, out); err != nil {
		c.log.Warn("dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = c.Delete(key)
		return false
	}
	return true
}

func (c *Cache) Delete(key string) error {
	return c.db.Delete(&Entry{}, "key = ?", key).Error
}

// SaveToken persists the session token, sealed when a cache key was given.
func (c *Cache) SaveToken(token string) error {
	value := []byte(token)
	if c.aead != nil {
		nonce := make([]byte, c.aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return err
		}
		value = c.aead.Seal(nonce, nonce, value, nil)
	}
	return c.putRaw(keyToken, value)
}

func (c *Cache) LoadToken() (string, bool) {
	value, ok := c.getRaw(keyToken)
	if !ok {
		return "", false
	}
	if c.aead != nil {
		if len(value) < c.aead.NonceSize() {
			return "", false
		}
		nonce, sealed := value[:c.aead.NonceSize()], value[c.aead.NonceSize():]
		plain, err := c.aead.Open(nil, nonce, sealed, nil)
		if err != nil {
			c.log.Warn("cached token failed to decrypt, discarding", zap.Error(err))
			_ = c.Delete(keyToken)
			return "", false
		}
		value = plain
	}
	return string(value), true
}

func (c *Cache) DeleteToken() error {
	return c.Delete(keyToken)
}

func (c *Cache) SaveUser(u model.User) error {
	return c.Put(keyUser, u)
}

func (c *Cache) LoadUser() (model.User, bool) {
	var u model.User
	ok := c.Get(keyUser, &u)
	return u, ok
}

func (c *Cache) DeleteUser() error {
	return c.Delete(keyUser)
}

// SaveFeed keeps only the newest slice of the feed on disk.
func (c *Cache) SaveFeed(posts []model.Post) error {
	if len(posts) > maxPersistedPosts {
		posts = posts[:maxPersistedPosts]
	}
	return c.Put(keyFeed, posts)
}

func (c *Cache) LoadFeed() []model.Post {
	var posts []model.Post
	if !c.Get(keyFeed, &posts) {
		return nil
	}
	return posts
}

func (c *Cache) putRaw(key string, value []byte) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&entry).Error
}

func (c *Cache) getRaw(key string) ([]byte, bool) {
	var entry Entry
	err := c.db.First(&entry, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return entry.Value, true
}
