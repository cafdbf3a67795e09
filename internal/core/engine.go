// Package core implements the recall matching engine: hybrid retrieval over
// the vector index, rerank-based decisioning with category thresholds,
// idempotent alert persistence, and notification fan-out.
package core

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Config holds the tunable matching policy. Thresholds and keyword lists are
// empirically chosen defaults, kept configurable for calibration against
// labeled data.
type Config struct {
	// TopK bounds the dense retrieval candidate set per item.
	TopK int

	// RerankTopN caps how many reranked results are considered per item.
	RerankTopN int

	// FoodThreshold and ProductThreshold are the minimum rerank relevance
	// scores for accepting a match. Products require stronger evidence.
	FoodThreshold    float64
	ProductThreshold float64

	// Concurrency bounds how many items are matched in parallel.
	Concurrency int64

	// EmbedBatchSize bounds texts per embedding request.
	EmbedBatchSize int

	// HazardKeywords escalate product alerts to HIGH when present in the
	// recall's hazard text.
	HazardKeywords []string

	// ConsequenceHighKeywords and ConsequenceMediumKeywords classify vehicle
	// urgency from the recall's consequence text.
	ConsequenceHighKeywords   []string
	ConsequenceMediumKeywords []string
}

// DefaultConfig returns the reference matching policy.
func DefaultConfig() Config {
	return Config{
		TopK:             50,
		RerankTopN:       10,
		FoodThreshold:    0.40,
		ProductThreshold: 0.65,
		Concurrency:      4,
		EmbedBatchSize:   96,
		HazardKeywords:   []string{"death", "serious", "fire"},
		ConsequenceHighKeywords: []string{
			"crash", "fire", "death", "injury", "serious", "airbag",
		},
		ConsequenceMediumKeywords: []string{
			"malfunction", "failure", "stall",
		},
	}
}

// Engine orchestrates matching passes over tracked items.
type Engine struct {
	cfg        Config
	store      Storage
	index      VectorIndexer
	provider   EmbeddingProvider
	generator  TextGenerator
	dispatcher AlertDispatcher
}

// EngineDeps holds dependencies for constructing an Engine.
type EngineDeps struct {
	Config     Config
	Store      Storage
	Index      VectorIndexer
	Provider   EmbeddingProvider
	Generator  TextGenerator
	Dispatcher AlertDispatcher
}

// NewEngine creates a matching engine. Zero-valued config fields fall back to
// the reference defaults.
func NewEngine(deps EngineDeps) *Engine {
	cfg := deps.Config
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.RerankTopN <= 0 {
		cfg.RerankTopN = def.RerankTopN
	}
	if cfg.FoodThreshold <= 0 {
		cfg.FoodThreshold = def.FoodThreshold
	}
	if cfg.ProductThreshold <= 0 {
		cfg.ProductThreshold = def.ProductThreshold
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = def.EmbedBatchSize
	}
	if len(cfg.HazardKeywords) == 0 {
		cfg.HazardKeywords = def.HazardKeywords
	}
	if len(cfg.ConsequenceHighKeywords) == 0 {
		cfg.ConsequenceHighKeywords = def.ConsequenceHighKeywords
	}
	if len(cfg.ConsequenceMediumKeywords) == 0 {
		cfg.ConsequenceMediumKeywords = def.ConsequenceMediumKeywords
	}

	return &Engine{
		cfg:        cfg,
		store:      deps.Store,
		index:      deps.Index,
		provider:   deps.Provider,
		generator:  deps.Generator,
		dispatcher: deps.Dispatcher,
	}
}

// itemCollection and recallCollection name the per-category index partitions.
func itemCollection(cat Category) string   { return string(cat) + "-items" }
func recallCollection(cat Category) string { return string(cat) + "-recalls" }

// RunMatchingPass matches every active tracked item against the recall index.
// Items run in parallel bounded by Config.Concurrency; a failure matching one
// item never aborts the pass. Safe to re-run: existing alerts are skipped.
// An empty category matches all categories.
func (e *Engine) RunMatchingPass(ctx context.Context, category Category) error {
	categories := Categories
	if category != "" {
		categories = []Category{category}
	}

	sem := semaphore.NewWeighted(e.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, cat := range categories {
		items, err := e.store.ListActiveItems(ctx, cat)
		if err != nil {
			wg.Wait()
			return fmt.Errorf("failed to list active %s items: %w", cat, err)
		}

		for i := range items {
			item := items[i]
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				if _, err := e.MatchItem(ctx, &item); err != nil {
					log.Printf("Warning: matching item %s failed: %v", item.ID, err)
				}
			}()
		}
	}

	wg.Wait()

	if err := e.store.SetSetting(ctx, "last_match_run", time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Printf("Warning: failed to record matching pass time: %v", err)
	}
	return nil
}

// MatchItem matches a single tracked item and returns any newly created
// alerts. Vehicles use the exact-lookup mode; food and products use hybrid
// retrieval plus reranking.
func (e *Engine) MatchItem(ctx context.Context, item *TrackedItem) ([]Alert, error) {
	if item.Category == CategoryVehicle {
		return e.matchVehicle(ctx, item)
	}

	candidates := e.retrieve(ctx, item, e.cfg.TopK)
	return e.decide(ctx, item, candidates)
}

// Reindex rebuilds the vector index from the backing collections, batching
// embedding requests. Entries are indexed even when the embedding provider is
// unavailable so the lexical path keeps working.
func (e *Engine) Reindex(ctx context.Context) error {
	for _, cat := range []Category{CategoryFood, CategoryProduct} {
		items, err := e.store.ListActiveItems(ctx, cat)
		if err != nil {
			return fmt.Errorf("failed to list %s items: %w", cat, err)
		}
		texts := make([]string, len(items))
		for i := range items {
			texts[i] = items[i].IndexText()
		}
		vectors := e.embedBatched(ctx, texts)
		for i := range items {
			e.index.Upsert(itemCollection(cat), items[i].ID, texts[i], vectorAt(vectors, i), map[string]string{
				"brand": items[i].Brand,
				"name":  items[i].Name,
			})
		}

		recalls, err := e.store.ListRecalls(ctx, cat)
		if err != nil {
			return fmt.Errorf("failed to list %s recalls: %w", cat, err)
		}
		e.indexRecalls(ctx, recalls)
	}
	return nil
}

// TrackItem persists a new tracked item and indexes it. The item gets an ID
// and is active by default.
func (e *Engine) TrackItem(ctx context.Context, item *TrackedItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.Active = true
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	if err := e.store.SaveItem(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	if item.Category != CategoryVehicle {
		text := item.IndexText()
		vectors := e.embedBatched(ctx, []string{text})
		e.index.Upsert(itemCollection(item.Category), item.ID, text, vectorAt(vectors, 0), map[string]string{
			"brand": item.Brand,
			"name":  item.Name,
		})
	}
	return nil
}

// SetItemActive toggles the soft-deactivation flag and keeps the index in
// step: deactivated items leave their collection, reactivated ones are
// re-embedded and upserted.
func (e *Engine) SetItemActive(ctx context.Context, id string, active bool) error {
	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return err
	}

	if err := e.store.SetItemActive(ctx, id, active); err != nil {
		return err
	}

	if item.Category == CategoryVehicle {
		return nil
	}

	if !active {
		e.index.Remove(itemCollection(item.Category), id)
		return nil
	}

	text := item.IndexText()
	vectors := e.embedBatched(ctx, []string{text})
	e.index.Upsert(itemCollection(item.Category), item.ID, text, vectorAt(vectors, 0), map[string]string{
		"brand": item.Brand,
		"name":  item.Name,
	})
	return nil
}

// RemoveItem deletes a tracked item, its alerts (cascade), and its index entry.
func (e *Engine) RemoveItem(ctx context.Context, id string) error {
	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return err
	}

	if err := e.store.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if item.Category != CategoryVehicle {
		e.index.Remove(itemCollection(item.Category), id)
	}
	return nil
}

// IngestRecalls idempotently stores recalls and indexes the embeddable kinds.
// Returns how many recalls were newly inserted.
func (e *Engine) IngestRecalls(ctx context.Context, recalls []RecallRecord) (int, error) {
	inserted, err := e.store.SaveRecalls(ctx, recalls)
	if err != nil {
		return 0, fmt.Errorf("failed to save recalls: %w", err)
	}
	e.indexRecalls(ctx, recalls)
	return inserted, nil
}

// indexRecalls upserts recall entries into the index in embedding batches.
// Vehicle recalls are matched by exact lookup and never indexed.
func (e *Engine) indexRecalls(ctx context.Context, recalls []RecallRecord) {
	byKind := make(map[Category][]RecallRecord)
	for _, r := range recalls {
		if r.Kind == CategoryVehicle {
			continue
		}
		byKind[r.Kind] = append(byKind[r.Kind], r)
	}

	for kind, batch := range byKind {
		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].IndexText()
		}
		vectors := e.embedBatched(ctx, texts)
		for i := range batch {
			e.index.Upsert(recallCollection(kind), batch[i].ID, texts[i], vectorAt(vectors, i), map[string]string{
				"date": batch[i].RecallDate,
			})
		}
	}
}

// embedBatched embeds texts in provider-sized batches. Any batch failure is
// logged and yields nil vectors for that batch; indexing continues so the
// lexical path still sees the text.
func (e *Engine) embedBatched(ctx context.Context, texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	if e.provider == nil || !e.provider.Available() {
		return vectors
	}

	for start := 0; start < len(texts); start += e.cfg.EmbedBatchSize {
		end := start + e.cfg.EmbedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.provider.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			log.Printf("Warning: embedding batch %d-%d failed: %v", start, end, err)
			continue
		}
		for i := range batch {
			vectors[start+i] = batch[i]
		}
	}
	return vectors
}

func vectorAt(vectors [][]float32, i int) []float32 {
	if i < len(vectors) {
		return vectors[i]
	}
	return nil
}

// Stats returns item, recall, and index entry counts.
func (e *Engine) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)
	for _, cat := range Categories {
		items, err := e.store.ListActiveItems(ctx, cat)
		if err != nil {
			return nil, err
		}
		stats[string(cat)+"_items"] = len(items)

		recalls, err := e.store.ListRecalls(ctx, cat)
		if err != nil {
			return nil, err
		}
		stats[string(cat)+"_recalls"] = len(recalls)

		if cat != CategoryVehicle {
			stats[string(cat)+"_indexed"] = e.index.Count(recallCollection(cat))
		}
	}
	return stats, nil
}
