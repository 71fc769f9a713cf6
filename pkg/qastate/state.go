// Package qastate persists AnswerSet/state_token snapshots so a
// long-running wizard session can resume. It is a host-side concern
// only: the pure engine core never reaches into this package, and this
// package never reaches back into qaplan/qaengine — it stores and
// returns plain data.
package qastate

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var checkpointsBucket = []byte("checkpoints")

// Snapshot captures one resumable point in a form's wizard session.
type Snapshot struct {
	FormID     string         `json:"form_id"`
	StateToken string         `json:"state_token"`
	Answers    map[string]any `json:"answers"`
	Timestamp  time.Time      `json:"timestamp"`
}

// CheckpointInfo is listing metadata for a saved Snapshot, without its
// answer payload.
type CheckpointInfo struct {
	FormID     string    `json:"form_id"`
	Name       string    `json:"name"`
	StateToken string    `json:"state_token"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store manages named Snapshots, scoped per form id.
type Store interface {
	Save(formID, name string, snap Snapshot) error
	Restore(formID, name string) (Snapshot, error)
	List(formID string) ([]CheckpointInfo, error)
	Delete(formID, name string) error
	Close() error
}

// BoltStore is a bbolt-backed Store. Each form id gets its own nested
// bucket under the top-level "checkpoints" bucket, keyed by checkpoint
// name.
type BoltStore struct {
	db *bolt.DB
	mu sync.RWMutex
}

// Open opens (or creates) a bbolt-backed checkpoint store at path.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("qastate: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(checkpointsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("qastate: init checkpoints bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Save(formID, name string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("qastate: marshal snapshot: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		forms := tx.Bucket(checkpointsBucket)
		form, err := forms.CreateBucketIfNotExists([]byte(formID))
		if err != nil {
			return fmt.Errorf("qastate: bucket for form %q: %w", formID, err)
		}
		return form.Put([]byte(name), data)
	})
}

func (s *BoltStore) Restore(formID, name string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		form := tx.Bucket(checkpointsBucket).Bucket([]byte(formID))
		if form == nil {
			return fmt.Errorf("qastate: no checkpoints for form %q", formID)
		}
		data := form.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("qastate: checkpoint %q/%q not found", formID, name)
		}
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *BoltStore) List(formID string) ([]CheckpointInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var infos []CheckpointInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		form := tx.Bucket(checkpointsBucket).Bucket([]byte(formID))
		if form == nil {
			return nil
		}
		return form.ForEach(func(k, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return fmt.Errorf("qastate: unmarshal checkpoint %q: %w", string(k), err)
			}
			infos = append(infos, CheckpointInfo{
				FormID:     formID,
				Name:       string(k),
				StateToken: snap.StateToken,
				Timestamp:  snap.Timestamp,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.Before(infos[j].Timestamp)
	})
	return infos, nil
}

func (s *BoltStore) Delete(formID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		form := tx.Bucket(checkpointsBucket).Bucket([]byte(formID))
		if form == nil {
			return nil
		}
		return form.Delete([]byte(name))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
