package vocab

import (
	"fmt"

	"hrrnet/internal/hrr"
	"hrrnet/internal/model"
)

// ToRecord converts a generation result into its persistable form. ID and
// creation time are left for the caller.
func ToRecord(res Result) model.VocabularyRecord {
	rec := model.VocabularyRecord{
		Catalog:     res.Catalog,
		Dimension:   res.Vocabulary.Dimension(),
		Seed:        res.Seed,
		Threshold:   res.Threshold,
		Relaxations: res.Relaxations,
	}
	for _, s := range res.Vocabulary.symbols {
		rec.Symbols = append(rec.Symbols, model.SymbolRecord{Name: s.Name, Vector: s.Vector.Clone()})
	}
	return rec
}

func FromRecord(rec model.VocabularyRecord) (*Vocabulary, error) {
	v := New()
	for _, s := range rec.Symbols {
		if len(s.Vector) != rec.Dimension {
			return nil, fmt.Errorf("%w: symbol %s has %d components, record says %d",
				hrr.ErrDimensionMismatch, s.Name, len(s.Vector), rec.Dimension)
		}
		if err := v.Add(s.Name, hrr.Vector(s.Vector)); err != nil {
			return nil, err
		}
	}
	return v, nil
}
