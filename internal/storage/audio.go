package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultAudioMaxAge is how long synthesized audio stays retrievable once a
// later write sweeps the cache.
const DefaultAudioMaxAge = 30 * time.Minute

const (
	audioIDLength    = 8
	maxIDAttempts    = 8
	audioRoutePrefix = "/audio/"
)

var (
	// ErrNotFound is returned for ids that were never stored or have expired.
	ErrNotFound = errors.New("not found")

	// ErrIDExhausted is returned when no free id could be drawn.
	ErrIDExhausted = errors.New("could not allocate a unique audio id")
)

type AudioAsset struct {
	ID        string
	Data      []byte
	Phrase    string
	CreatedAt time.Time
}

type AudioInfo struct {
	ID        string    `json:"id"`
	Phrase    string    `json:"phrase"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
	Size      int       `json:"size"`
}

// AudioCache keeps synthesized replies in memory under short random ids.
//
// Expiry is best-effort: entries older than maxAge are swept on the next Put,
// never by a background timer. Under light traffic an entry can therefore
// remain readable past maxAge.
type AudioCache struct {
	baseURL string
	maxAge  time.Duration
	now     func() time.Time
	newID   func() string

	mu     sync.RWMutex
	assets map[string]AudioAsset
}

type AudioCacheOption func(*AudioCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) AudioCacheOption {
	return func(c *AudioCache) {
		c.now = now
	}
}

// WithIDGenerator overrides how candidate ids are drawn.
func WithIDGenerator(gen func() string) AudioCacheOption {
	return func(c *AudioCache) {
		c.newID = gen
	}
}

// NewAudioCache creates an empty cache. baseURL prefixes the URLs returned by
// URLFor and Info; a non-positive maxAge falls back to DefaultAudioMaxAge.
func NewAudioCache(baseURL string, maxAge time.Duration, opts ...AudioCacheOption) *AudioCache {
	if maxAge <= 0 {
		maxAge = DefaultAudioMaxAge
	}
	c := &AudioCache{
		baseURL: strings.TrimRight(baseURL, "/"),
		maxAge:  maxAge,
		now:     time.Now,
		newID:   shortID,
		assets:  make(map[string]AudioAsset),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:audioIDLength]
}

// Put stores data under a fresh id and then sweeps expired entries.
func (c *AudioCache) Put(data []byte, phrase string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	id := ""
	for range maxIDAttempts {
		candidate := c.newID()
		if _, taken := c.assets[candidate]; !taken && candidate != "" {
			id = candidate
			break
		}
	}
	if id == "" {
		return "", ErrIDExhausted
	}

	c.assets[id] = AudioAsset{ID: id, Data: data, Phrase: phrase, CreatedAt: now}
	c.sweepLocked(now, c.maxAge)
	return id, nil
}

func (c *AudioCache) Get(id string) (AudioAsset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	asset, ok := c.assets[id]
	if !ok {
		return AudioAsset{}, fmt.Errorf("audio %s: %w", id, ErrNotFound)
	}
	return asset, nil
}

func (c *AudioCache) Info(id string) (AudioInfo, error) {
	asset, err := c.Get(id)
	if err != nil {
		return AudioInfo{}, err
	}
	return AudioInfo{
		ID:        asset.ID,
		Phrase:    asset.Phrase,
		CreatedAt: asset.CreatedAt,
		URL:       c.URLFor(asset.ID),
		Size:      len(asset.Data),
	}, nil
}

// SweepExpired removes every entry older than maxAge at now and reports how
// many were removed.
func (c *AudioCache) SweepExpired(now time.Time, maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(now, maxAge)
}

func (c *AudioCache) sweepLocked(now time.Time, maxAge time.Duration) int {
	removed := 0
	for id, asset := range c.assets {
		if now.Sub(asset.CreatedAt) > maxAge {
			delete(c.assets, id)
			removed++
		}
	}
	return removed
}

// URLFor returns the retrieval URL for id.
func (c *AudioCache) URLFor(id string) string {
	return c.baseURL + audioRoutePrefix + id
}

func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}

func (c *AudioCache) MaxAge() time.Duration {
	return c.maxAge
}
