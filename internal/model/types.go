package model

import (
	"time"

	"genecards/internal/genome"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

const (
	OperationGenesis = "genesis"
	OperationMerge   = "merge"
	OperationMutate  = "mutate"
)

// CardRecord is a stored card together with its breeding metadata.
type CardRecord struct {
	VersionedRecord
	ID         string      `json:"id"`
	Card       genome.Card `json:"card"`
	Generation int         `json:"generation"`
	ParentIDs  []string    `json:"parent_ids,omitempty"`
	Value      float64     `json:"value"`
	CreatedAt  time.Time   `json:"created_at"`
}

// LineageRecord describes the operation that produced a card.
type LineageRecord struct {
	VersionedRecord
	CardID     string                `json:"card_id"`
	ParentIDs  []string              `json:"parent_ids,omitempty"`
	Generation int                   `json:"generation"`
	Operation  string                `json:"operation"`
	Mutations  []genome.CardMutation `json:"mutations,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}
