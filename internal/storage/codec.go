package storage

import (
	"encoding/json"
	"errors"

	"genecards/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion is the version stamp for newly written records.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeCard(card model.CardRecord) ([]byte, error) {
	return json.Marshal(card)
}

func DecodeCard(data []byte) (model.CardRecord, error) {
	var card model.CardRecord
	if err := json.Unmarshal(data, &card); err != nil {
		return model.CardRecord{}, err
	}
	if err := checkVersion(card.VersionedRecord); err != nil {
		return model.CardRecord{}, err
	}
	return card, nil
}

func EncodeLineage(record model.LineageRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeLineage(data []byte) (model.LineageRecord, error) {
	var record model.LineageRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.LineageRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.LineageRecord{}, err
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
