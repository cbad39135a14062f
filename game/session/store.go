package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is a persisted key-value store of integers. Writes may be buffered
// until Save.
type Store interface {
	// Lookup returns the value of key or ErrKeyNotFound
	Lookup(key string) (int, error)
	// GetInt returns the value of key, or def when it is missing or unreadable
	GetInt(key string, def int) int
	SetInt(key string, value int) error
	DeleteKey(key string) error
	// Save flushes buffered writes
	Save() error
	Close() error
}

// Store kinds accepted by OpenStore
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreBadger = "badger"
	StoreRedis  = "redis"
)

// StoreConfig selects and configures a Store backend
type StoreConfig struct {
	Kind          string
	Path          string // file path or badger directory
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// OpenStore opens the backend named by cfg.Kind
func OpenStore(cfg StoreConfig, log logrus.FieldLogger) (Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("store", cfg.Kind)

	switch strings.ToLower(cfg.Kind) {
	case "", StoreMemory:
		return NewMemoryStore(), nil
	case StoreFile:
		path := cfg.Path
		if path == "" {
			path = "data/progress.json"
		}
		return NewFileStore(path, log)
	case StoreBadger:
		path := cfg.Path
		if path == "" {
			path = "data/progress"
		}
		return NewBadgerStore(path, log)
	case StoreRedis:
		return NewRedisStore(RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		}, log)
	default:
		return nil, fmt.Errorf("unknown store kind %q (use memory, file, badger or redis)", cfg.Kind)
	}
}

// getInt implements GetInt on top of Lookup
func getInt(s Store, key string, def int, log logrus.FieldLogger) int {
	v, err := s.Lookup(key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) && log != nil {
			log.WithError(err).WithField("key", key).Warn("Failed to read key")
		}
		return def
	}
	return v
}
