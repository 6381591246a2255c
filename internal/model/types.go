package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type SymbolRecord struct {
	Name   string    `json:"name"`
	Vector []float64 `json:"vector"`
}

// VocabularyRecord is a generated vocabulary together with the parameters
// that reproduce it.
type VocabularyRecord struct {
	VersionedRecord
	ID          string         `json:"id"`
	Catalog     string         `json:"catalog"`
	Dimension   int            `json:"dimension"`
	Seed        int64          `json:"seed"`
	Threshold   float64        `json:"threshold"`
	Relaxations int            `json:"relaxations"`
	CreatedAt   time.Time      `json:"created_at"`
	Symbols     []SymbolRecord `json:"symbols"`
}

type FunctionRecord struct {
	Kernel string `json:"kernel"`
	Args   []int  `json:"args"`
}

type InputPortRecord struct {
	Name    string      `json:"name"`
	Tau     float64     `json:"tau"`
	Weights [][]float64 `json:"weights"`
}

type OutputPortRecord struct {
	Name      string           `json:"name"`
	Functions []FunctionRecord `json:"functions,omitempty"`
}

type NodeRecord struct {
	Path      string             `json:"path"`
	Kind      string             `json:"kind"`
	Mode      string             `json:"mode"`
	Dimension int                `json:"dimension"`
	Capacity  int                `json:"capacity"`
	Encoding  string             `json:"encoding,omitempty"`
	Encoders  [][]float64        `json:"encoders,omitempty"`
	Inputs    []InputPortRecord  `json:"inputs,omitempty"`
	Outputs   []OutputPortRecord `json:"outputs"`
}

type ConnectionRecord struct {
	From     string `json:"from"`
	FromPort string `json:"from_port"`
	To       string `json:"to"`
	ToPort   string `json:"to_port"`
}

type ExposedPortRecord struct {
	Name string `json:"name"`
	Node string `json:"node"`
	Port string `json:"port"`
}

// NetworkRecord is the structural description of a compiled network: what an
// external execution engine needs to instantiate it.
type NetworkRecord struct {
	VersionedRecord
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Kind        string              `json:"kind"`
	Dimension   int                 `json:"dimension"`
	CreatedAt   time.Time           `json:"created_at"`
	Nodes       []NodeRecord        `json:"nodes"`
	Connections []ConnectionRecord  `json:"connections"`
	Inputs      []ExposedPortRecord `json:"inputs"`
	Outputs     []ExposedPortRecord `json:"outputs"`
}

// RecordSummary is the listing view of a stored record.
type RecordSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Dimension int       `json:"dimension"`
	CreatedAt time.Time `json:"created_at"`
	Size      int       `json:"size"`
}
