// Package store persists the documents of the last load in BadgerDB so that
// separate CLI invocations query the same index.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/dgallion1/notedex/internal/pipeline"
)

// ErrEmpty is returned by Load when nothing has been saved.
var ErrEmpty = errors.New("no saved load")

var (
	metaKey   = []byte("meta")
	docPrefix = []byte("doc/")
)

// Config controls how the database is opened.
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *slog.Logger
}

// InMemoryConfig is used by tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Meta describes the saved load.
type Meta struct {
	Generation string           `json:"generation"`
	SavedAt    time.Time        `json:"saved_at"`
	Threshold  float64          `json:"threshold"`
	Documents  int              `json:"documents"`
	Report     *pipeline.Report `json:"report,omitempty"`
}

// Store wraps a badger database.
type Store struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
		opts = opts.WithLogger(nil)
	} else {
		opts = opts.WithLogger(&badgerLogger{log: log.With("component", "badger")})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored load with docs and meta.
func (s *Store) Save(ctx context.Context, docs []*doctree.Document, meta Meta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix(docPrefix); err != nil {
		return fmt.Errorf("drop previous documents: %w", err)
	}

	wb := s.db.NewWriteBatch()
	if err := writeDocs(ctx, wb, docs); err != nil {
		wb.Cancel()
		return err
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush documents: %w", err)
	}

	meta.Documents = len(docs)
	if meta.SavedAt.IsZero() {
		meta.SavedAt = time.Now().UTC()
	}
	val, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey, val)
	}); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	s.log.Debug("load saved", "generation", meta.Generation, "documents", len(docs))
	return nil
}

func writeDocs(ctx context.Context, wb *badger.WriteBatch, docs []*doctree.Document) error {
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		val, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", doc.Name, err)
		}
		if err := wb.Set(docKey(doc.Ordinal), val); err != nil {
			return fmt.Errorf("write %s: %w", doc.Name, err)
		}
	}
	return nil
}

// Load returns the saved documents in their original order.
func (s *Store) Load(ctx context.Context) ([]*doctree.Document, *Meta, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var meta Meta
	var docs []*doctree.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEmpty
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &meta) }); err != nil {
			return fmt.Errorf("decode meta: %w", err)
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = docPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc doctree.Document
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &doc) }); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			docs = append(docs, &doc)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return docs, &meta, nil
}

// Clear removes everything.
func (s *Store) Clear() error {
	return s.db.DropAll()
}

// docKey orders documents by load position under a zero-padded key.
func docKey(ordinal int) []byte {
	return fmt.Appendf(nil, "%s%08d", docPrefix, ordinal)
}

type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
