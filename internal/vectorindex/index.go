// Package vectorindex provides an in-memory vector index partitioned by
// category. Entries are derived from stored records and rebuilt on process
// start, so nothing here is persisted.
package vectorindex

import (
	"math"
	"sync"
)

// Entry pairs an entity ID with its index text and embedding.
type Entry struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// Index holds per-category vector collections with atomic per-ID upserts.
// Readers scanning a collection may observe either the old or new entry for
// an ID being upserted concurrently, never a partial one.
type Index struct {
	mu          sync.RWMutex
	collections map[string]map[string]Entry
}

// New creates an empty index.
func New() *Index {
	return &Index{
		collections: make(map[string]map[string]Entry),
	}
}

// Upsert stores an entry under (category, id), replacing any existing entry.
func (idx *Index) Upsert(category, id, text string, embedding []float32, metadata map[string]string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	coll, ok := idx.collections[category]
	if !ok {
		coll = make(map[string]Entry)
		idx.collections[category] = coll
	}
	coll[id] = Entry{ID: id, Text: text, Embedding: embedding, Metadata: metadata}
}

// Remove deletes an entry by ID. No-op if the entry is absent.
func (idx *Index) Remove(category, id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if coll, ok := idx.collections[category]; ok {
		delete(coll, id)
	}
}

// AllOf returns a snapshot of every entry in a category, in no particular order.
func (idx *Index) AllOf(category string) []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	coll := idx.collections[category]
	entries := make([]Entry, 0, len(coll))
	for _, e := range coll {
		entries = append(entries, e)
	}
	return entries
}

// Count returns the number of entries in a category.
func (idx *Index) Count(category string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.collections[category])
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 when the lengths differ or either vector has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	magnitude := math.Sqrt(normA) * math.Sqrt(normB)
	if magnitude == 0 {
		return 0
	}
	return dot / magnitude
}
