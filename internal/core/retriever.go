package core

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/recallguard/recallguard/internal/vectorindex"
)

// Lexical prior scores. A recall whose text contains every query token is a
// strong match; an exact model-number hit is stronger still, since
// model-number collisions are rare.
const (
	lexicalPriorScore     = 0.9
	modelNumberPriorScore = 0.95
)

// retrieve produces the candidate set for an item: dense cosine top-K over
// the category's recall entries, unioned with exact-keyword-overlap matches,
// deduplicated by recall ID (first occurrence wins). When the embedding
// provider is unavailable the dense path is skipped and retrieval degrades to
// lexical-only.
func (e *Engine) retrieve(ctx context.Context, item *TrackedItem, topK int) []Candidate {
	query := item.QueryText()
	if query == "" {
		return nil
	}

	entries := e.index.AllOf(recallCollection(item.Category))
	if len(entries) == 0 {
		return nil
	}

	dense := e.denseCandidates(ctx, query, entries, topK)
	lexical := lexicalCandidates(query, item.ModelNumber, entries)

	seen := make(map[string]bool, len(dense)+len(lexical))
	merged := make([]Candidate, 0, len(dense)+len(lexical))
	for _, c := range append(dense, lexical...) {
		if seen[c.Entry.ID] {
			continue
		}
		seen[c.Entry.ID] = true
		merged = append(merged, c)
	}
	return merged
}

// denseCandidates ranks entries by cosine similarity to the embedded query,
// descending, ties broken by recall ID ascending for determinism.
func (e *Engine) denseCandidates(ctx context.Context, query string, entries []vectorindex.Entry, topK int) []Candidate {
	if e.provider == nil || !e.provider.Available() {
		return nil
	}

	queryVec, err := e.provider.EmbedQuery(ctx, query)
	if err != nil {
		log.Printf("Warning: query embedding failed: %v", err)
		return nil
	}
	if len(queryVec) == 0 {
		return nil
	}

	scored := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		score := vectorindex.CosineSimilarity(queryVec, entry.Embedding)
		scored = append(scored, Candidate{
			Entry: Entry{ID: entry.ID, Text: entry.Text},
			Score: score,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.ID < scored[j].Entry.ID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// lexicalCandidates scans entry texts for exact keyword overlap. An entry
// matches when its lowercased text contains every query token longer than two
// characters; a case-insensitive model-number substring hit raises the prior.
func lexicalCandidates(query, modelNumber string, entries []vectorindex.Entry) []Candidate {
	tokens := queryTokens(query)
	modelLower := strings.ToLower(strings.TrimSpace(modelNumber))

	if len(tokens) == 0 && modelLower == "" {
		return nil
	}

	var matches []Candidate
	for _, entry := range entries {
		text := strings.ToLower(entry.Text)

		score := 0.0
		if len(tokens) > 0 && containsAll(text, tokens) {
			score = lexicalPriorScore
		}
		if modelLower != "" && strings.Contains(text, modelLower) {
			score = modelNumberPriorScore
		}
		if score == 0 {
			continue
		}

		matches = append(matches, Candidate{
			Entry: Entry{ID: entry.ID, Text: entry.Text},
			Score: score,
		})
	}
	return matches
}

// queryTokens lowercases and splits the query, keeping words longer than two
// characters.
func queryTokens(query string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 2 {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

func containsAll(text string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(text, tok) {
			return false
		}
	}
	return true
}
