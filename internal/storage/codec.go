package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"hrrnet/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Payloads are JSON compressed with zstd. Both coders are safe for
// concurrent EncodeAll/DecodeAll calls.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

func compress(data []byte) []byte {
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func decompress(data []byte) ([]byte, error) {
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return out, nil
}

func EncodeVocabulary(v model.VocabularyRecord) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return compress(data), nil
}

func DecodeVocabulary(data []byte) (model.VocabularyRecord, error) {
	raw, err := decompress(data)
	if err != nil {
		return model.VocabularyRecord{}, err
	}
	var vocab model.VocabularyRecord
	if err := json.Unmarshal(raw, &vocab); err != nil {
		return model.VocabularyRecord{}, err
	}
	if err := checkVersion(vocab.VersionedRecord); err != nil {
		return model.VocabularyRecord{}, err
	}
	return vocab, nil
}

func EncodeNetwork(n model.NetworkRecord) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return compress(data), nil
}

func DecodeNetwork(data []byte) (model.NetworkRecord, error) {
	raw, err := decompress(data)
	if err != nil {
		return model.NetworkRecord{}, err
	}
	var network model.NetworkRecord
	if err := json.Unmarshal(raw, &network); err != nil {
		return model.NetworkRecord{}, err
	}
	if err := checkVersion(network.VersionedRecord); err != nil {
		return model.NetworkRecord{}, err
	}
	return network, nil
}

// CurrentVersion is the version stamp new records carry.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
