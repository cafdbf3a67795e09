package core

import (
	"context"

	"github.com/recallguard/recallguard/internal/embedding"
	"github.com/recallguard/recallguard/internal/notify"
	"github.com/recallguard/recallguard/internal/vectorindex"
)

// Storage persists tracked items, recalls, and alerts.
// Implementations: storage.Store (SQLite)
type Storage interface {
	// ListActiveItems returns active tracked items in a category.
	ListActiveItems(ctx context.Context, category Category) ([]TrackedItem, error)

	// GetItem retrieves a tracked item by ID; ErrNotFound if absent.
	GetItem(ctx context.Context, id string) (*TrackedItem, error)

	// SaveItem inserts or replaces a tracked item.
	SaveItem(ctx context.Context, item *TrackedItem) error

	// SetItemActive toggles the soft-deactivation flag.
	SetItemActive(ctx context.Context, id string, active bool) error

	// DeleteItem removes an item and cascade-deletes its alerts.
	DeleteItem(ctx context.Context, id string) error

	// ListRecalls returns every recall of a kind.
	ListRecalls(ctx context.Context, kind Category) ([]RecallRecord, error)

	// GetRecall retrieves a recall by its natural key; ErrNotFound if absent.
	GetRecall(ctx context.Context, id string) (*RecallRecord, error)

	// SaveRecalls idempotently ingests recalls keyed on their natural key,
	// returning how many were newly inserted.
	SaveRecalls(ctx context.Context, recalls []RecallRecord) (int, error)

	// AlertExists reports whether an alert links the item and recall.
	AlertExists(ctx context.Context, itemID, recallID string) (bool, error)

	// CreateAlert persists an alert. Duplicate (item, recall) pairs are
	// ignored by a uniqueness constraint rather than erroring.
	CreateAlert(ctx context.Context, alert *Alert) (*Alert, error)

	// ListAlerts returns alerts joined with item and recall details, newest
	// first. Empty category means all.
	ListAlerts(ctx context.Context, category Category) ([]AlertWithDetails, error)

	// DismissAlert marks an alert dismissed.
	DismissAlert(ctx context.Context, id string) error

	// ResolveAlert sets the category-specific resolution flag.
	ResolveAlert(ctx context.Context, id string, resolved bool) error

	// GetSetting and SetSetting persist engine bookkeeping values.
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}

// EmbeddingProvider converts text to dense vectors and cross-scores
// query/document pairs. An unconfigured provider returns empty results, which
// callers treat as a degrade signal, never a failure.
// Implementations: embedding.Client (Cohere)
type EmbeddingProvider interface {
	Available() bool
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]embedding.RerankResult, error)
}

// TextGenerator produces short completions for alert messages.
// Implementations: embedding.Client (Cohere chat)
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorIndexer is the category-partitioned vector index shared between
// matching and ingestion.
// Implementations: vectorindex.Index
type VectorIndexer interface {
	Upsert(category, id, text string, embedding []float32, metadata map[string]string)
	Remove(category, id string)
	AllOf(category string) []vectorindex.Entry
	Count(category string) int
}

// AlertDispatcher fans a push payload out to all registered subscriptions.
// Implementations: notify.Dispatcher
type AlertDispatcher interface {
	Dispatch(ctx context.Context, payload notify.Payload) notify.DispatchResult
}
