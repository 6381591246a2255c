package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"hrrnet/internal/model"
)

type memoryEntry struct {
	summary model.RecordSummary
	payload []byte
}

// MemoryStore keeps encoded records in process memory.
type MemoryStore struct {
	mu           sync.RWMutex
	initialized  bool
	vocabularies map[string]memoryEntry
	networks     map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.vocabularies = make(map[string]memoryEntry)
	s.networks = make(map[string]memoryEntry)
	return nil
}

func (s *MemoryStore) SaveVocabulary(_ context.Context, vocab model.VocabularyRecord) error {
	payload, err := EncodeVocabulary(vocab)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}
	s.vocabularies[vocab.ID] = memoryEntry{summary: vocabularySummary(vocab, len(payload)), payload: payload}
	return nil
}

func (s *MemoryStore) GetVocabulary(_ context.Context, id string) (model.VocabularyRecord, bool, error) {
	s.mu.RLock()
	entry, ok := s.vocabularies[id]
	s.mu.RUnlock()
	if !ok {
		return model.VocabularyRecord{}, false, nil
	}
	vocab, err := DecodeVocabulary(entry.payload)
	if err != nil {
		return model.VocabularyRecord{}, false, err
	}
	return vocab, true, nil
}

func (s *MemoryStore) ListVocabularies(_ context.Context) ([]model.RecordSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedSummaries(s.vocabularies), nil
}

func (s *MemoryStore) SaveNetwork(_ context.Context, network model.NetworkRecord) error {
	payload, err := EncodeNetwork(network)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}
	s.networks[network.ID] = memoryEntry{summary: networkSummary(network, len(payload)), payload: payload}
	return nil
}

func (s *MemoryStore) GetNetwork(_ context.Context, id string) (model.NetworkRecord, bool, error) {
	s.mu.RLock()
	entry, ok := s.networks[id]
	s.mu.RUnlock()
	if !ok {
		return model.NetworkRecord{}, false, nil
	}
	network, err := DecodeNetwork(entry.payload)
	if err != nil {
		return model.NetworkRecord{}, false, err
	}
	return network, true, nil
}

func (s *MemoryStore) ListNetworks(_ context.Context) ([]model.RecordSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedSummaries(s.networks), nil
}

func (s *MemoryStore) DeleteNetwork(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.networks, id)
	return nil
}

var errNotInitialized = errors.New("store is not initialized")

// sortedSummaries orders by creation time, then ID.
func sortedSummaries(entries map[string]memoryEntry) []model.RecordSummary {
	out := make([]model.RecordSummary, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
