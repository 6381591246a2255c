package storage

import (
	"context"

	"hrrnet/internal/model"
)

// Store persists generated vocabularies and compiled network descriptions.
type Store interface {
	Init(ctx context.Context) error
	SaveVocabulary(ctx context.Context, vocab model.VocabularyRecord) error
	GetVocabulary(ctx context.Context, id string) (model.VocabularyRecord, bool, error)
	ListVocabularies(ctx context.Context) ([]model.RecordSummary, error)
	SaveNetwork(ctx context.Context, network model.NetworkRecord) error
	GetNetwork(ctx context.Context, id string) (model.NetworkRecord, bool, error)
	ListNetworks(ctx context.Context) ([]model.RecordSummary, error)
	DeleteNetwork(ctx context.Context, id string) error
}

func vocabularySummary(v model.VocabularyRecord, size int) model.RecordSummary {
	return model.RecordSummary{
		ID:        v.ID,
		Name:      v.Catalog,
		Kind:      "vocabulary",
		Dimension: v.Dimension,
		CreatedAt: v.CreatedAt,
		Size:      size,
	}
}

func networkSummary(n model.NetworkRecord, size int) model.RecordSummary {
	return model.RecordSummary{
		ID:        n.ID,
		Name:      n.Name,
		Kind:      n.Kind,
		Dimension: n.Dimension,
		CreatedAt: n.CreatedAt,
		Size:      size,
	}
}
