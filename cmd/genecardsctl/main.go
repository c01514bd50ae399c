package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"genecards/internal/config"
	"genecards/internal/storage"
	"genecards/internal/weight"
	cardsapi "genecards/pkg/genecards"
)

const snapshotsDir = "snapshots"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "init":
		return runInit(ctx, cfg, args[1:])
	case "genesis":
		return runGenesis(ctx, cfg, args[1:])
	case "breed":
		return runBreed(ctx, cfg, args[1:])
	case "mutate":
		return runMutate(ctx, cfg, args[1:])
	case "show":
		return runShow(ctx, cfg, args[1:])
	case "delete":
		return runDelete(ctx, cfg, args[1:])
	case "rank":
		return runRank(ctx, cfg, args[1:])
	case "lineage":
		return runLineage(ctx, cfg, args[1:])
	case "evolve":
		return runEvolve(ctx, cfg, args[1:])
	case "export":
		return runExport(ctx, cfg, args[1:])
	case "snapshots":
		return runSnapshots(args[1:])
	case "rules":
		return runRules(cfg, args[1:])
	case "serve":
		return runServe(ctx, cfg, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type clientFlags struct {
	storeKind *string
	dbPath    *string
	seed      *int64
	rules     *string
	workers   *int
}

func registerClientFlags(fs *flag.FlagSet, cfg config.Config) clientFlags {
	return clientFlags{
		storeKind: fs.String("store", cfg.StoreKind, "store backend: memory|sqlite"),
		dbPath:    fs.String("db-path", cfg.DBPath, "sqlite database path"),
		seed:      fs.Int64("seed", cfg.Seed, "random seed (0 seeds from the clock)"),
		rules:     fs.String("rules", cfg.RulesPath, "weight rule config (JSON)"),
		workers:   fs.Int("workers", cfg.Workers, "genesis worker count"),
	}
}

func (f clientFlags) open() (*cardsapi.Client, error) {
	return cardsapi.New(cardsapi.Options{
		StoreKind: *f.storeKind,
		DBPath:    *f.dbPath,
		Seed:      *f.seed,
		RulesPath: *f.rules,
		Workers:   *f.workers,
	})
}

func runInit(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", cfg.StoreKind, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", cfg.DBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runGenesis(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("genesis", flag.ContinueOnError)
	flags := registerClientFlags(fs, cfg)
	count := fs.Int("count", 1, "number of cards to create")
	jsonOut := fs.Bool("json", false, "emit cards as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count <= 0 {
		return errors.New("count must be > 0")
	}

	client, err := flags.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	cards, err := client.Genesis(ctx, cardsapi.GenesisRequest{Count: *count, Workers: *flags.workers})
	if *jsonOut && err == nil {
		return writeJSON(cards)
	}
	// A failed batch still reports the cards it stored.
	for _, card := range cards {
		printCardLine(card)
	}
	return err
}

func runBreed(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("breed", flag.ContinueOnError)
	flags := registerClientFlags(fs, cfg)
	parentA := fs.String("a", "", "first parent card id")
	parentB := fs.String("b", "", "second parent card id")
	jsonOut := fs.Bool("json", false, "emit the offspring as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *parentA == "" || *parentB == "" {
		return errors.New("breed requires --a and --b")
	}

	client, err := flags.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	card, err := client.Breed(ctx, cardsapi.BreedRequest{ParentA: *parentA, ParentB: *parentB})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(card)
	}
	printCard(card)
	return nil
}

func runMutate(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("mutate", flag.ContinueOnError)
	flags := registerClientFlags(fs, cfg)
	cardID := fs.String("id", "", "card id")
	slot := fs.String("slot", "", "slot to mutate: alpha|beta|gamma|delta|epsilon")
	jsonOut := fs.Bool("json", false, "emit the mutated card as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cardID == "" || *slot == "" {
		return errors.New("mutate requires --id and --slot")
	}

	client, err := flags.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	card, err := client.Mutate(ctx, cardsapi.MutateRequest{CardID: *cardID, Slot: *slot})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(card)
	}
	printCard(card)
	return nil
}

func runShow(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	flags := registerClientFlags(fs, cfg)
	cardID := fs.String("id", "", "card id")
	score := fs.Bool("score", false, "include the per-slot score breakdown")
	jsonOut := fs.Bool("json", false, "emit the card as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cardID == "" {
		return errors.New("show requires --id")
	}

	client, err := flags.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	card, err := client.Card(ctx, *cardID)
	if err != nil {
		return err
	}
	if !*score {
		if *jsonOut {
			return writeJSON(card)
		}
		printCard(card)
		return nil
	}

	summary, err := client.Score(ctx, *cardID)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(summary)
	}
	printCard(card)
	for _, slot := range summary.Slots {
		fmt.Printf("  %-8s value=%s weight=%.4f rules=%s\n", slot.Slot, humanize.Commaf(slot.Value), slot.Weight, formatRules(slot.Rules))
	}
	return nil
}

func runDelete(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	flags := registerClientFlags(fs, cfg)
	cardID := fs.String("id", "", "card id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cardID == "" {
		return errors.New("delete requires --id")
	}

	client, err := flags.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Delete(ctx, *cardID); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", *cardID)
	return nil
}

func runRank(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	flags := registerClientFlags(fs, cfg)
	limit := fs.Int("limit", 10, "max cards to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit ranked cards as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := flags.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	cards, err := client.Rank(ctx, cardsapi.RankRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(cards)
	}
	if len(cards) == 0 {
		fmt.Println("no cards")
		return nil
	}
	if isTerminal(os.Stdout) {
		fmt.Printf("%-4s %-36s %-4s %s\n", "RANK", "ID", "GEN", "VALUE")
	}
	for i, card := range cards {
		fmt.Printf("%-4d %-36s %-4d %s\n", i+1, card.ID, card.Generation, humanize.Commaf(card.Value))
	}
	return nil
}

func runLineage(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("lineage", flag.ContinueOnError)
	flags := registerClientFlags(fs, cfg)
	cardID := fs.String("id", "", "card id")
	limit := fs.Int("limit", 50, "max lineage rows to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit lineage rows as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cardID == "" {
		return errors.New("lineage requires --id")
	}

	client, err := flags.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	lineage, err := client.Lineage(ctx, cardsapi.LineageRequest{CardID: *cardID, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(lineage)
	}
	for _, item := range lineage {
		parents := "-"
		if len(item.ParentIDs) > 0 {
			parents = strings.Join(item.ParentIDs, ",")
		}
		fmt.Printf("card=%s gen=%d op=%s parents=%s mutations=%d\n", item.CardID, item.Generation, item.Operation, parents, len(item.Mutations))
	}
	return nil
}

func runEvolve(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("evolve", flag.ContinueOnError)
	flags := registerClientFlags(fs, cfg)
	rounds := fs.Int("rounds", 1, "number of offspring to breed")
	selection := fs.String("selection", "tournament", "parent selection: tournament|elite")
	jsonOut := fs.Bool("json", false, "emit offspring as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rounds <= 0 {
		return errors.New("rounds must be > 0")
	}

	client, err := flags.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	children, err := client.Evolve(ctx, cardsapi.EvolveRequest{Rounds: *rounds, Selection: *selection})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(children)
	}
	for _, child := range children {
		printCardLine(child)
	}
	return nil
}

func runExport(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	flags := registerClientFlags(fs, cfg)
	outDir := fs.String("out", snapshotsDir, "snapshot output directory")
	jsonOut := fs.Bool("json", false, "emit export summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := flags.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, cardsapi.ExportRequest{Dir: *outDir})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(summary)
	}
	fmt.Printf("exported snapshot=%s cards=%d dir=%s\n", summary.SnapshotID, summary.Cards, summary.Dir)
	return nil
}

func runSnapshots(args []string) error {
	fs := flag.NewFlagSet("snapshots", flag.ContinueOnError)
	dir := fs.String("dir", snapshotsDir, "snapshot directory")
	jsonOut := fs.Bool("json", false, "emit snapshots as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := cardsapi.ListSnapshots(*dir)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("no snapshots")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("snapshot=%s created=%s cards=%d max_gen=%d best=%s\n", e.SnapshotID, e.CreatedAtUTC, e.Cards, e.MaxGen, humanize.Commaf(e.BestValue))
	}
	return nil
}

func runRules(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("rules", flag.ContinueOnError)
	rulesPath := fs.String("rules", cfg.RulesPath, "weight rule config (JSON)")
	jsonOut := fs.Bool("json", false, "emit rules as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ruleConfig, err := weight.LoadConfig(*rulesPath)
	if err != nil {
		return err
	}
	if _, err := ruleConfig.Engine(); err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(map[string]any{
			"available": weight.ListRules(),
			"config":    ruleConfig,
		})
	}

	fmt.Printf("available=%s\n", strings.Join(weight.ListRules(), ","))
	for _, spec := range ruleConfig.Gene {
		fmt.Printf("gene %s\n", formatSpec(spec))
	}
	for _, spec := range ruleConfig.Sequence {
		fmt.Printf("sequence %s\n", formatSpec(spec))
	}
	return nil
}

func runServe(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags := registerClientFlags(fs, cfg)
	addr := fs.String("addr", cfg.HTTPAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := flags.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              *addr,
		Handler:           client.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("genecards listening on %s store=%s", *addr, *flags.storeKind)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Printf("genecards stopped")
	return nil
}

func printCardLine(card cardsapi.CardItem) {
	fmt.Printf("card id=%s gen=%d value=%s\n", card.ID, card.Generation, humanize.Commaf(card.Value))
}

func printCard(card cardsapi.CardItem) {
	printCardLine(card)
	if len(card.ParentIDs) > 0 {
		fmt.Printf("  parents=%s\n", strings.Join(card.ParentIDs, ","))
	}
	for _, slot := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		fmt.Printf("  %-8s %s\n", slot, card.Sequences[slot])
	}
}

func formatRules(rules map[string]float64) string {
	if len(rules) == 0 {
		return "-"
	}
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%.2f", name, rules[name]))
	}
	return strings.Join(parts, ",")
}

func formatSpec(spec weight.RuleSpec) string {
	out := spec.Name + " bonus=default"
	if spec.Bonus != nil {
		out = fmt.Sprintf("%s bonus=%.2f", spec.Name, *spec.Bonus)
	}
	if spec.Disabled {
		out += " disabled"
	}
	return out
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: genecardsctl <init|genesis|breed|mutate|show|delete|rank|lineage|evolve|export|snapshots|rules|serve> [flags]", msg)
}
