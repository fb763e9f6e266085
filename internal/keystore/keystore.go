// Package keystore implements the bidirectional user-key dictionary
// used as an external collaborator to the core graph engine: a forward
// store (key -> external ID) and a reverse store (external ID -> key),
// kept in lockstep by the diskann.Index on every insert and delete.
package keystore

import (
	"encoding/binary"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// Store is a diskann.KeyStore backed by two LevelDB databases living at
// prefix+"forward_db.leveldb" and prefix+"reverse_db.leveldb".
type Store struct {
	forward *leveldb.DB
	reverse *leveldb.DB
}

// Open opens (creating if absent) the forward and reverse databases
// rooted at prefix.
func Open(prefix string) (*Store, error) {
	forwardPath := prefix + "forward_db.leveldb"
	reversePath := prefix + "reverse_db.leveldb"

	fwd, err := leveldb.OpenFile(forwardPath, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: open forward db: %w", err)
	}
	rev, err := leveldb.OpenFile(reversePath, nil)
	if err != nil {
		fwd.Close()
		return nil, fmt.Errorf("keystore: open reverse db: %w", err)
	}
	return &Store{forward: fwd, reverse: rev}, nil
}

func idBytes(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

// Put registers key as addressing externalID in both directions. Any
// stale entry left by a prior mapping — key pointing at a different ID,
// or externalID pointing at a different key — is scrubbed first so the
// two directions never disagree.
func (s *Store) Put(key string, externalID int64) error {
	if oldID, ok, err := s.LookupID(key); err != nil {
		return err
	} else if ok && oldID != externalID {
		if err := s.reverse.Delete(idBytes(oldID), nil); err != nil {
			return fmt.Errorf("keystore: scrub stale reverse entry: %w", err)
		}
	}
	if oldKey, ok, err := s.LookupKey(externalID); err != nil {
		return err
	} else if ok && oldKey != key {
		if err := s.forward.Delete([]byte(oldKey), nil); err != nil {
			return fmt.Errorf("keystore: scrub stale forward entry: %w", err)
		}
	}

	if err := s.forward.Put([]byte(key), idBytes(externalID), nil); err != nil {
		return fmt.Errorf("keystore: put forward: %w", err)
	}
	if err := s.reverse.Put(idBytes(externalID), []byte(key), nil); err != nil {
		return fmt.Errorf("keystore: put reverse: %w", err)
	}
	return nil
}

// LookupID returns the external ID registered for key.
func (s *Store) LookupID(key string) (int64, bool, error) {
	v, err := s.forward.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("keystore: get forward: %w", err)
	}
	if len(v) != 8 {
		return 0, false, fmt.Errorf("keystore: corrupt forward value for key %q", key)
	}
	return int64(binary.BigEndian.Uint64(v)), true, nil
}

// LookupKey returns the key registered for externalID, if any.
func (s *Store) LookupKey(externalID int64) (string, bool, error) {
	v, err := s.reverse.Get(idBytes(externalID), nil)
	if err == leveldb.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("keystore: get reverse: %w", err)
	}
	return string(v), true, nil
}

// Delete removes externalID's entry in both directions. A missing entry
// is not an error.
func (s *Store) Delete(externalID int64) error {
	key, ok, err := s.LookupKey(externalID)
	if err != nil {
		return err
	}
	if err := s.reverse.Delete(idBytes(externalID), nil); err != nil {
		return fmt.Errorf("keystore: delete reverse: %w", err)
	}
	if ok {
		if err := s.forward.Delete([]byte(key), nil); err != nil {
			return fmt.Errorf("keystore: delete forward: %w", err)
		}
	}
	return nil
}

// Close releases both underlying databases, forward first then reverse,
// so neither holds a lock past the other.
func (s *Store) Close() error {
	var firstErr error
	if err := s.forward.Close(); err != nil {
		firstErr = err
	}
	if err := s.reverse.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
