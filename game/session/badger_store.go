package session

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v3"
	"github.com/sirupsen/logrus"
)

// BadgerStore persists values in an embedded BadgerDB. Every write is its
// own transaction; Save syncs the value log.
type BadgerStore struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerStore opens or creates a database in dir
func NewBadgerStore(dir string, log logrus.FieldLogger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return openBadger(opts, log)
}

// NewInMemoryBadgerStore opens a database that never touches disk
func NewInMemoryBadgerStore(log logrus.FieldLogger) (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts, log)
}

func openBadger(opts badger.Options, log logrus.FieldLogger) (*BadgerStore, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStore{db: db, log: log}, nil
}

func (b *BadgerStore) Lookup(key string) (int, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, ErrKeyNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("badger read %s: %w", key, err)
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("badger value %s: %w", key, err)
	}
	return v, nil
}

func (b *BadgerStore) GetInt(key string, def int) int { return getInt(b, key, def, b.log) }

func (b *BadgerStore) SetInt(key string, value int) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(strconv.Itoa(value)))
	})
	if err != nil {
		return fmt.Errorf("badger write %s: %w", key, err)
	}
	return nil
}

func (b *BadgerStore) DeleteKey(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete %s: %w", key, err)
	}
	return nil
}

// Save syncs written values to disk
func (b *BadgerStore) Save() error {
	if b.db.Opts().InMemory {
		return nil
	}
	return b.db.Sync()
}

func (b *BadgerStore) Close() error { return b.db.Close() }
