// Package snapshot writes point-in-time exports of a card store to disk.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"genecards/internal/model"
	"genecards/internal/weight"
)

const indexFile = "snapshot_index.json"

type Snapshot struct {
	ID           string
	CreatedAtUTC string
	Rules        weight.Config
	Cards        []model.CardRecord
	Lineage      []model.LineageRecord
}

type Manifest struct {
	SnapshotID   string  `json:"snapshot_id"`
	Cards        int     `json:"cards"`
	MaxGen       int     `json:"max_generation"`
	BestCardID   string  `json:"best_card_id,omitempty"`
	BestValue    float64 `json:"best_value"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// Summarize derives the manifest of a snapshot from its cards.
func Summarize(s Snapshot) Manifest {
	m := Manifest{SnapshotID: s.ID, Cards: len(s.Cards), CreatedAtUTC: s.CreatedAtUTC}
	for i, card := range s.Cards {
		if card.Generation > m.MaxGen {
			m.MaxGen = card.Generation
		}
		if i == 0 || card.Value > m.BestValue {
			m.BestValue = card.Value
			m.BestCardID = card.ID
		}
	}
	return m
}

// Write stores the snapshot under baseDir/<id> and records it in the index.
func Write(baseDir string, s Snapshot) (string, error) {
	if s.ID == "" {
		return "", fmt.Errorf("snapshot id is required")
	}

	dir := filepath.Join(baseDir, s.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	manifest := Summarize(s)
	if err := writeJSON(filepath.Join(dir, "manifest.json"), manifest); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "rules.json"), s.Rules); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "cards.json"), nonNil(s.Cards)); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "lineage.json"), nonNil(s.Lineage)); err != nil {
		return "", err
	}
	if err := appendIndex(baseDir, manifest); err != nil {
		return "", err
	}
	return dir, nil
}

func appendIndex(baseDir string, entry Manifest) error {
	index, err := readIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].SnapshotID == entry.SnapshotID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, indexFile), index)
		}
	}
	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, indexFile), index)
}

// ListIndex returns recorded snapshots, newest first. Timestamps are compared
// as instants; an entry whose timestamp does not parse sorts last.
func ListIndex(baseDir string) ([]Manifest, error) {
	entries, err := readIndex(baseDir)
	if err != nil {
		return nil, err
	}
	type ranked struct {
		entry Manifest
		at    time.Time
		pos   int
	}
	rows := make([]ranked, len(entries))
	for i, e := range entries {
		at, _ := time.Parse(time.RFC3339Nano, e.CreatedAtUTC)
		rows[i] = ranked{entry: e, at: at, pos: i}
	}
	// Later appends win ties on equal timestamps.
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].at.Equal(rows[j].at) {
			return rows[i].at.After(rows[j].at)
		}
		return rows[i].pos > rows[j].pos
	})
	for i, row := range rows {
		entries[i] = row.entry
	}
	return entries, nil
}

// readIndex returns the index in append order.
func readIndex(baseDir string) ([]Manifest, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []Manifest{}, nil
		}
		return nil, err
	}
	var entries []Manifest
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode snapshot index: %w", err)
	}
	return entries, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
