package genecards

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"genecards/internal/api"
	"genecards/internal/breeding"
	"genecards/internal/genome"
	"genecards/internal/model"
	"genecards/internal/snapshot"
	"genecards/internal/storage"
	"genecards/internal/weight"
)

const (
	defaultDBPath  = "genecards.db"
	defaultWorkers = 4
)

// ErrCardNotFound is returned when a requested card id is unknown.
var ErrCardNotFound = breeding.ErrCardNotFound

// Options configures a Client. A zero Seed seeds the breeder from the clock.
type Options struct {
	StoreKind string
	DBPath    string
	Seed      int64
	RulesPath string
	Workers   int
}

type Client struct {
	store   storage.Store
	rules   weight.Config
	engine  *weight.Engine
	breeder *breeding.Breeder
	workers int
}

type CardItem struct {
	ID           string            `json:"id"`
	Generation   int               `json:"generation"`
	ParentIDs    []string          `json:"parent_ids,omitempty"`
	Value        float64           `json:"value"`
	CreatedAtUTC string            `json:"created_at_utc"`
	Sequences    map[string]string `json:"sequences"`
}

type GenesisRequest struct {
	Count   int
	Workers int
}

type BreedRequest struct {
	ParentA string
	ParentB string
}

type MutateRequest struct {
	CardID string
	Slot   string
}

type RankRequest struct {
	Limit int
}

type LineageRequest struct {
	CardID string
	Limit  int
}

type LineageItem struct {
	CardID     string   `json:"card_id"`
	ParentIDs  []string `json:"parent_ids,omitempty"`
	Generation int      `json:"generation"`
	Operation  string   `json:"operation"`
	Mutations  []string `json:"mutations,omitempty"`
}

type SlotScore struct {
	Slot     string             `json:"slot"`
	Sequence string             `json:"sequence"`
	Value    float64            `json:"value"`
	Weight   float64            `json:"weight"`
	Rules    map[string]float64 `json:"rules,omitempty"`
}

type ScoreSummary struct {
	CardID string      `json:"card_id"`
	Total  float64     `json:"total"`
	Slots  []SlotScore `json:"slots"`
}

type EvolveRequest struct {
	Rounds    int
	Selection string
}

type ExportRequest struct {
	Dir string
}

type ExportSummary struct {
	SnapshotID string `json:"snapshot_id"`
	Dir        string `json:"dir"`
	Cards      int    `json:"cards"`
	BestCardID string `json:"best_card_id,omitempty"`
}

type SnapshotItem struct {
	SnapshotID   string  `json:"snapshot_id"`
	Cards        int     `json:"cards"`
	MaxGen       int     `json:"max_generation"`
	BestCardID   string  `json:"best_card_id,omitempty"`
	BestValue    float64 `json:"best_value"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

type RulesSummary struct {
	Available []string `json:"available"`
	Gene      []string `json:"gene"`
	Sequence  []string `json:"sequence"`
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rules, err := weight.LoadConfig(opts.RulesPath)
	if err != nil {
		return nil, err
	}
	engine, err := rules.Engine()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	breeder, err := breeding.NewBreeder(breeding.Config{
		Store:  store,
		Engine: engine,
		Seed:   seed,
	})
	if err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}

	return &Client{
		store:   store,
		rules:   rules,
		engine:  engine,
		breeder: breeder,
		workers: workers,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.breeder.Init(ctx)
}

// Handler serves the breeding API over HTTP. Init must be called first.
func (c *Client) Handler() http.Handler {
	return api.NewServer(c.breeder, c.workers)
}

// Genesis creates req.Count generation-zero cards. If storing a batch fails
// partway, the cards already stored are returned along with the error.
func (c *Client) Genesis(ctx context.Context, req GenesisRequest) ([]CardItem, error) {
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Workers <= 0 {
		req.Workers = c.workers
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	if req.Count == 1 {
		record, err := c.breeder.Genesis(ctx)
		if err != nil {
			return nil, err
		}
		return []CardItem{cardItem(record)}, nil
	}
	records, err := c.breeder.Populate(ctx, req.Count, req.Workers)
	items := make([]CardItem, 0, len(records))
	for _, record := range records {
		items = append(items, cardItem(record))
	}
	return items, err
}

func (c *Client) Breed(ctx context.Context, req BreedRequest) (CardItem, error) {
	if req.ParentA == "" || req.ParentB == "" {
		return CardItem{}, errors.New("breed requires two parent ids")
	}
	if err := c.Init(ctx); err != nil {
		return CardItem{}, err
	}
	record, err := c.breeder.Breed(ctx, req.ParentA, req.ParentB)
	if err != nil {
		return CardItem{}, err
	}
	return cardItem(record), nil
}

func (c *Client) Mutate(ctx context.Context, req MutateRequest) (CardItem, error) {
	if req.CardID == "" {
		return CardItem{}, errors.New("mutate requires a card id")
	}
	slot, err := genome.ParseSlot(req.Slot)
	if err != nil {
		return CardItem{}, err
	}
	if err := c.Init(ctx); err != nil {
		return CardItem{}, err
	}
	record, err := c.breeder.Mutate(ctx, req.CardID, slot)
	if err != nil {
		return CardItem{}, err
	}
	return cardItem(record), nil
}

func (c *Client) Card(ctx context.Context, id string) (CardItem, error) {
	if err := c.Init(ctx); err != nil {
		return CardItem{}, err
	}
	record, err := c.breeder.Get(ctx, id)
	if err != nil {
		return CardItem{}, err
	}
	return cardItem(record), nil
}

func (c *Client) Score(ctx context.Context, id string) (ScoreSummary, error) {
	if err := c.Init(ctx); err != nil {
		return ScoreSummary{}, err
	}
	score, err := c.breeder.Score(ctx, id)
	if err != nil {
		return ScoreSummary{}, err
	}
	out := ScoreSummary{CardID: score.CardID, Total: score.Total, Slots: make([]SlotScore, 0, len(score.Slots))}
	for _, s := range score.Slots {
		slot := SlotScore{
			Slot:     string(s.Slot),
			Sequence: s.Sequence,
			Value:    s.Value,
			Weight:   s.Weight,
		}
		if len(s.Rules) > 0 {
			slot.Rules = make(map[string]float64, len(s.Rules))
			for _, r := range s.Rules {
				slot.Rules[r.Rule] = r.Factor
			}
		}
		out.Slots = append(out.Slots, slot)
	}
	return out, nil
}

func (c *Client) Rank(ctx context.Context, req RankRequest) ([]CardItem, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	records, err := c.breeder.Rank(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	items := make([]CardItem, 0, len(records))
	for _, record := range records {
		items = append(items, cardItem(record))
	}
	return items, nil
}

func (c *Client) Lineage(ctx context.Context, req LineageRequest) ([]LineageItem, error) {
	if req.CardID == "" {
		return nil, errors.New("lineage requires a card id")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	records, err := c.breeder.Lineage(ctx, req.CardID, req.Limit)
	if err != nil {
		return nil, err
	}
	items := make([]LineageItem, 0, len(records))
	for _, record := range records {
		item := LineageItem{
			CardID:     record.CardID,
			ParentIDs:  append([]string(nil), record.ParentIDs...),
			Generation: record.Generation,
			Operation:  record.Operation,
		}
		for _, m := range record.Mutations {
			item.Mutations = append(item.Mutations, fmt.Sprintf("%s[%d][%d]:%s>%s", m.Slot, m.Gene, m.Index, m.Before, m.After))
		}
		items = append(items, item)
	}
	return items, nil
}

// Delete removes a stored card. Its descendants stay stored.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("delete requires a card id")
	}
	if err := c.Init(ctx); err != nil {
		return err
	}
	return c.breeder.Delete(ctx, id)
}

// Evolve breeds Rounds offspring from parents picked by the named selection
// strategy.
func (c *Client) Evolve(ctx context.Context, req EvolveRequest) ([]CardItem, error) {
	selector, err := breeding.SelectorFromName(req.Selection)
	if err != nil {
		return nil, err
	}
	if req.Rounds <= 0 {
		req.Rounds = 1
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	records, err := c.breeder.Evolve(ctx, selector, req.Rounds)
	if err != nil {
		return nil, err
	}
	items := make([]CardItem, 0, len(records))
	for _, record := range records {
		items = append(items, cardItem(record))
	}
	return items, nil
}

// Export writes every stored card, its lineage and the active rule config to
// a new snapshot directory under req.Dir.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.Dir == "" {
		return ExportSummary{}, errors.New("export requires a directory")
	}
	if err := c.Init(ctx); err != nil {
		return ExportSummary{}, err
	}
	cards, lineage, err := c.breeder.History(ctx)
	if err != nil {
		return ExportSummary{}, err
	}
	snap := snapshot.Snapshot{
		ID:           uuid.NewString(),
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
		Rules:        c.rules,
		Cards:        cards,
		Lineage:      lineage,
	}
	dir, err := snapshot.Write(req.Dir, snap)
	if err != nil {
		return ExportSummary{}, fmt.Errorf("write snapshot: %w", err)
	}
	manifest := snapshot.Summarize(snap)
	return ExportSummary{
		SnapshotID: snap.ID,
		Dir:        dir,
		Cards:      manifest.Cards,
		BestCardID: manifest.BestCardID,
	}, nil
}

// ListSnapshots lists the snapshots previously exported to dir, newest first.
func ListSnapshots(dir string) ([]SnapshotItem, error) {
	entries, err := snapshot.ListIndex(dir)
	if err != nil {
		return nil, err
	}
	items := make([]SnapshotItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, SnapshotItem(e))
	}
	return items, nil
}

// Rules lists the registered rule names and the active rule lists.
func (c *Client) Rules() RulesSummary {
	summary := RulesSummary{Available: weight.ListRules()}
	for _, r := range c.engine.GeneRules {
		summary.Gene = append(summary.Gene, r.Name())
	}
	for _, r := range c.engine.SequenceRules {
		summary.Sequence = append(summary.Sequence, r.Name())
	}
	return summary
}

func cardItem(record model.CardRecord) CardItem {
	sequences := make(map[string]string, len(genome.Slots()))
	for _, slot := range genome.Slots() {
		seq, _ := record.Card.Slot(slot)
		sequences[string(slot)] = seq.String()
	}
	return CardItem{
		ID:           record.ID,
		Generation:   record.Generation,
		ParentIDs:    append([]string(nil), record.ParentIDs...),
		Value:        record.Value,
		CreatedAtUTC: record.CreatedAt.UTC().Format(time.RFC3339),
		Sequences:    sequences,
	}
}
