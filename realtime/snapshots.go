package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/specboard/specboard/document"
)

// SnapshotBucket is the KV bucket holding the latest snapshot per project.
const SnapshotBucket = "api-docs"

// SnapshotStore persists the latest accepted snapshot per project. The relay
// writes through it on every accepted edit; initial loads read from it.
type SnapshotStore interface {
	// Load returns the latest snapshot and whether one exists.
	Load(ctx context.Context, projectID string) (document.Document, bool, error)

	// Save replaces the stored snapshot wholesale.
	Save(ctx context.Context, projectID string, doc document.Document) error
}

// kvSnapshotStore backs SnapshotStore with a JetStream KV bucket.
type kvSnapshotStore struct {
	kv jetstream.KeyValue
}

// NewKVSnapshotStore creates or opens the snapshot bucket.
func NewKVSnapshotStore(ctx context.Context, js jetstream.JetStream) (SnapshotStore, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      SnapshotBucket,
		Description: "Latest api-docs snapshot per project",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshot bucket: %w", err)
	}
	return &kvSnapshotStore{kv: kv}, nil
}

func (s *kvSnapshotStore) Load(ctx context.Context, projectID string) (document.Document, bool, error) {
	entry, err := s.kv.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return document.New(), false, nil
		}
		return document.Document{}, false, fmt.Errorf("load snapshot %s: %w", projectID, err)
	}

	var doc document.Document
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		return document.Document{}, false, fmt.Errorf("decode snapshot %s: %w", projectID, err)
	}
	return doc, true, nil
}

func (s *kvSnapshotStore) Save(ctx context.Context, projectID string, doc document.Document) error {
	data, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", projectID, err)
	}
	if _, err := s.kv.Put(ctx, projectID, data); err != nil {
		return fmt.Errorf("store snapshot %s: %w", projectID, err)
	}
	return nil
}

// MemorySnapshotStore is an in-memory SnapshotStore for tests and local runs
// without JetStream.
type MemorySnapshotStore struct {
	mu   sync.RWMutex
	docs map[string]document.Document
}

// NewMemorySnapshotStore creates an empty in-memory store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{docs: make(map[string]document.Document)}
}

// Load returns the stored snapshot, if any.
func (s *MemorySnapshotStore) Load(_ context.Context, projectID string) (document.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[projectID]
	if !ok {
		return document.New(), false, nil
	}
	return doc.Clone(), true, nil
}

// Save replaces the stored snapshot.
func (s *MemorySnapshotStore) Save(_ context.Context, projectID string, doc document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[projectID] = doc.Clone()
	return nil
}
