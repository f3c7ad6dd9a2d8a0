// Package tracestore persists trace records in a local badger database so
// traces survive the process and can be scanned later by analysis tooling.
package tracestore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/granite-db/granitefs/pkg/iotrace"
	"github.com/granite-db/granitefs/pkg/metrics"
)

const recPrefix = "rec:"

// recKey returns the badger key for sequence number seq. Keys are
// zero-padded so lexicographic order equals submission order.
func recKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", recPrefix, seq))
}

// Store is a badger-backed trace store. It implements iotrace.Sink: Submit
// is best-effort, so a failed write is logged and counted but never
// surfaces to the traced I/O path. Use Append when the caller wants the
// write error.
type Store struct {
	db  *badger.DB
	seq atomic.Uint64
}

var _ iotrace.Sink = (*Store)(nil)

// Open opens (or creates) a trace store in dir and resumes the sequence
// counter from the last stored record.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("tracestore.Open: %s: %w", dir, err)
	}

	s := &Store{db: db}
	if err := s.resumeSeq(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Trace store opened", "component", "tracestore", "dir", dir, "next_seq", s.seq.Load())
	return s, nil
}

// resumeSeq positions the sequence counter after the greatest stored key.
func (s *Store) resumeSeq() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek to just past the record key range; the reverse iterator
		// lands on the greatest record key, if any.
		it.Seek([]byte(recPrefix + ";"))
		if !it.ValidForPrefix([]byte(recPrefix)) {
			return nil
		}
		last := strings.TrimPrefix(string(it.Item().Key()), recPrefix)
		n, err := strconv.ParseUint(last, 10, 64)
		if err != nil {
			return fmt.Errorf("tracestore: corrupt key %q: %w", it.Item().Key(), err)
		}
		s.seq.Store(n + 1)
		return nil
	})
}

// Submit persists rec, dropping it with a warning if the write fails.
func (s *Store) Submit(rec iotrace.Record) {
	if err := s.Append(rec); err != nil {
		metrics.TraceRecordsDropped.Inc()
		slog.Warn("trace store write failed", "op", rec.Op, "error", err)
	}
}

// Append persists rec under the next sequence number.
func (s *Store) Append(rec iotrace.Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("tracestore.Append: marshal: %w", err)
	}
	seq := s.seq.Add(1) - 1
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recKey(seq), val)
	})
	if err != nil {
		return fmt.Errorf("tracestore.Append: %w", err)
	}
	metrics.TraceStoreRecords.Inc()
	return nil
}

// Scan calls fn for every stored record in sequence order. fn returning an
// error stops the scan and the error is returned.
func (s *Store) Scan(fn func(seq uint64, rec iotrace.Record) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			seqStr := strings.TrimPrefix(string(item.Key()), recPrefix)
			seq, err := strconv.ParseUint(seqStr, 10, 64)
			if err != nil {
				continue // skip foreign keys
			}
			var rec iotrace.Record
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("tracestore.Scan: seq %d: %w", seq, err)
			}
			if err := fn(seq, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len counts stored records.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.Scan(func(uint64, iotrace.Record) error {
		n++
		return nil
	})
	return n, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
