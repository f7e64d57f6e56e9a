package counterExample

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var ErrNotFound = errors.New("counterExample: no counterexample stored")

// A persistent archive of counterexamples, keyed by model and hazard.
//
// Is safe to call from multiple goroutines.
type Store struct {
	db *badger.DB
}

// Open the store in dir. An empty dir opens an in-memory store.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("counterExample: opening store: %w", err)
	}
	return &Store{db: db}, nil
}

func storeKey(modelName, hazard string) []byte {
	return []byte(modelName + "/" + hazard)
}

// Store the counterexample for hazard, replacing any previously stored one
func (s *Store) Put(hazard string, ce *CounterExample) error {
	if err := ce.validate(); err != nil {
		return err
	}
	value := ce.Marshal()
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(ce.ModelName, hazard), value)
	})
}

func (s *Store) Get(modelName, hazard string) (*CounterExample, error) {
	var ce *CounterExample
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(modelName, hazard))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			ce, err = Unmarshal(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("counterExample: %v/%v: %w", modelName, hazard, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return ce, nil
}

// The keys of all stored counterexamples, in the form model/hazard
func (s *Store) Keys() ([]string, error) {
	keys := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
