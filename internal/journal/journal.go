// Package journal implements the Completion Journal: a durable,
// crash-safe record of which obligations have been paid in full, and by
// which on-chain transaction. It is the single source of truth the
// Disburser Engine consults before ever touching the chain on a given
// obligation, and the barrier it writes through before declaring an
// obligation done.
package journal

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/unicitynetwork/unicity-mining-core/errors"
)

var (
	journalBkt = []byte("journalbkt")
)

// Entry is one completed obligation's durable record.
type Entry struct {
	ObligationID  int64     `json:"obligationId"`
	TransactionID string    `json:"transactionId"`
	CompletedAt   time.Time `json:"completedAt"`
}

// Journal is a bbolt-backed, mutex-serialized store mapping
// obligation_id -> (transaction_id, completed_at). All access from
// within one process is serialized through mu; bbolt itself serializes
// writers across the single backing file.
type Journal struct {
	mu sync.Mutex
	db *bolt.DB
}

// Open opens (creating if absent) the journal file at path.
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.JournalError(errors.DBOpen,
			fmt.Sprintf("unable to open journal file %s: %v", path, err))
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(journalBkt)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.JournalError(errors.BucketNotFound,
			fmt.Sprintf("unable to create journal bucket: %v", err))
	}
	return &Journal{db: db}, nil
}

// Close releases the backing file.
func (j *Journal) Close() error {
	return j.db.Close()
}

func key(obligationID int64) []byte {
	return []byte(fmt.Sprintf("%020d", obligationID))
}

// IsCompleted reports whether obligationID has a durable completion
// entry.
func (j *Journal) IsCompleted(obligationID int64) (bool, error) {
	e, err := j.lookup(obligationID)
	if err != nil {
		return false, err
	}
	return e != nil, nil
}

// TransactionOf returns the transaction id journaled for obligationID,
// or ("", false, nil) if no entry exists.
func (j *Journal) TransactionOf(obligationID int64) (string, bool, error) {
	e, err := j.lookup(obligationID)
	if err != nil {
		return "", false, err
	}
	if e == nil {
		return "", false, nil
	}
	return e.TransactionID, true, nil
}

func (j *Journal) lookup(obligationID int64) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var e *Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(journalBkt)
		v := bkt.Get(key(obligationID))
		if v == nil {
			return nil
		}
		var entry Entry
		if err := json.Unmarshal(v, &entry); err != nil {
			return err
		}
		e = &entry
		return nil
	})
	if err != nil {
		return nil, errors.JournalError(errors.Decode,
			fmt.Sprintf("unable to decode journal entry for obligation %d: %v",
				obligationID, err))
	}
	return e, nil
}

// MarkCompleted writes a durable completion entry for obligationID.
// Idempotent: a repeated call with the same txid is silently accepted.
// A call with a different txid for an obligation already marked
// complete is rejected as JournalConflict and the existing entry is
// left untouched; the caller should treat the obligation as completed
// using the existing txid.
//
// This call does not accept a context: once invoked it always runs to
// completion. The journal write is the barrier between a broadcast and
// the obligation being considered done, and must never be interrupted
// by cancellation.
func (j *Journal) MarkCompleted(obligationID int64, txid string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().UTC()
	return j.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(journalBkt)
		v := bkt.Get(key(obligationID))
		if v != nil {
			var existing Entry
			if err := json.Unmarshal(v, &existing); err != nil {
				return errors.JournalError(errors.Decode,
					fmt.Sprintf("unable to decode existing journal entry for obligation %d: %v",
						obligationID, err))
			}
			if existing.TransactionID == txid {
				return nil
			}
			log.Errorf("journal conflict for obligation %d: existing txid %s, rejected new txid %s",
				obligationID, existing.TransactionID, txid)
			return errors.JournalError(errors.JournalConflict,
				fmt.Sprintf("obligation %d already completed by %s, rejecting %s",
					obligationID, existing.TransactionID, txid))
		}

		entry := Entry{ObligationID: obligationID, TransactionID: txid, CompletedAt: now}
		b, err := json.Marshal(entry)
		if err != nil {
			return errors.JournalError(errors.Parse,
				fmt.Sprintf("unable to encode journal entry for obligation %d: %v", obligationID, err))
		}
		if err := bkt.Put(key(obligationID), b); err != nil {
			return errors.JournalError(errors.PersistEntry,
				fmt.Sprintf("unable to persist journal entry for obligation %d: %v", obligationID, err))
		}
		return nil
	})
}

// Snapshot returns every entry currently in the journal, for operator
// inspection and diagnostics. Entries are self-describing JSON records,
// ordered by obligation id.
func (j *Journal) Snapshot() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var entries []Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(journalBkt)
		return bkt.ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, errors.JournalError(errors.Decode,
			fmt.Sprintf("unable to snapshot journal: %v", err))
	}
	return entries, nil
}
