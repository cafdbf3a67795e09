package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recallguard/recallguard/internal/embedding"
	"github.com/recallguard/recallguard/internal/notify"
)

// decide reranks the candidate set, applies the category threshold, and
// persists an alert for every accepted match that does not already exist.
// Provider failures degrade to raw-score ranking; generation failures fall
// back to the generic message. Nothing here aborts the enclosing pass.
func (e *Engine) decide(ctx context.Context, item *TrackedItem, candidates []Candidate) ([]Alert, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	results := e.rerank(ctx, item.QueryText(), candidates)

	threshold := e.threshold(item.Category)
	var created []Alert

	for _, result := range results {
		if result.RelevanceScore < threshold {
			continue
		}
		if result.Index < 0 || result.Index >= len(candidates) {
			continue
		}
		recallID := candidates[result.Index].Entry.ID

		exists, err := e.store.AlertExists(ctx, item.ID, recallID)
		if err != nil {
			log.Printf("Warning: alert existence check for %s/%s failed: %v", item.ID, recallID, err)
			continue
		}
		if exists {
			continue
		}

		recall, err := e.store.GetRecall(ctx, recallID)
		if err != nil {
			log.Printf("Warning: recall %s not loadable: %v", recallID, err)
			continue
		}

		urgency := e.classifyUrgency(recall)
		message := e.generateMessage(ctx, recall, item)

		alert := &Alert{
			ID:        uuid.New().String(),
			ItemID:    item.ID,
			RecallID:  recallID,
			Category:  item.Category,
			Score:     result.RelevanceScore,
			Urgency:   urgency,
			Message:   message,
			CreatedAt: time.Now(),
		}

		saved, err := e.store.CreateAlert(ctx, alert)
		if err != nil {
			log.Printf("Warning: failed to create alert for %s/%s: %v", item.ID, recallID, err)
			continue
		}
		if saved == nil {
			// Lost the uniqueness race to a concurrent pass; already alerted.
			continue
		}

		created = append(created, *saved)
		e.dispatch(ctx, item, recall, saved)
	}

	return created, nil
}

// rerank cross-scores candidates against the query. When the provider is
// unavailable or errors, each candidate's own retrieval score is used
// directly, sorted descending and capped at RerankTopN.
func (e *Engine) rerank(ctx context.Context, query string, candidates []Candidate) []embedding.RerankResult {
	if e.provider != nil && e.provider.Available() {
		docs := make([]string, len(candidates))
		for i, c := range candidates {
			docs[i] = c.Entry.Text
		}

		results, err := e.provider.Rerank(ctx, query, docs, e.cfg.RerankTopN)
		if err != nil {
			log.Printf("Warning: reranking failed: %v", err)
		} else if len(results) > 0 {
			return results
		}
	}

	// Fallback: rank by retrieval score.
	results := make([]embedding.RerankResult, len(candidates))
	for i, c := range candidates {
		results[i] = embedding.RerankResult{Index: i, RelevanceScore: c.Score}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if len(results) > e.cfg.RerankTopN {
		results = results[:e.cfg.RerankTopN]
	}
	return results
}

// threshold returns the acceptance threshold for a category. Vehicles are
// matched by exact lookup and never pass through here.
func (e *Engine) threshold(category Category) float64 {
	if category == CategoryProduct {
		return e.cfg.ProductThreshold
	}
	return e.cfg.FoodThreshold
}

// generateMessage asks the text generator for a one-sentence alert message,
// substituting the category's generic message on any failure.
func (e *Engine) generateMessage(ctx context.Context, recall *RecallRecord, item *TrackedItem) string {
	if e.generator == nil {
		return fallbackMessage(recall.Kind)
	}

	text, err := e.generator.Generate(ctx, messagePrompt(recall, item))
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			log.Printf("Warning: message generation failed: %v", err)
		}
		return fallbackMessage(recall.Kind)
	}
	return strings.TrimSpace(text)
}

// dispatch fans the alert out to every push subscriber. Best effort; the
// result is logged, never propagated.
func (e *Engine) dispatch(ctx context.Context, item *TrackedItem, recall *RecallRecord, alert *Alert) {
	if e.dispatcher == nil {
		return
	}

	payload := notify.Payload{
		Title:   payloadTitle(item.Category),
		Body:    strings.TrimSpace(itemLabel(item) + ": " + alert.Message),
		Tag:     fmt.Sprintf("%s-alert-%s-%s", item.Category, item.ID, recall.ID),
		URL:     payloadURL(item.Category),
		Urgency: string(alert.Urgency),
	}

	result := e.dispatcher.Dispatch(ctx, payload)
	if result.Failed > 0 || result.Pruned > 0 {
		log.Printf("Warning: dispatch %s: sent=%d failed=%d pruned=%d", payload.Tag, result.Sent, result.Failed, result.Pruned)
	}
}

func itemLabel(item *TrackedItem) string {
	if item.Category == CategoryVehicle {
		return strings.TrimSpace(item.Make + " " + item.Model)
	}
	return strings.TrimSpace(item.Brand + " " + item.Name)
}

func payloadTitle(category Category) string {
	switch category {
	case CategoryVehicle:
		return "Vehicle Recall Alert"
	case CategoryProduct:
		return "Product Recall Alert"
	default:
		return "Food Recall Alert"
	}
}

func payloadURL(category Category) string {
	switch category {
	case CategoryVehicle:
		return "/vehicles"
	case CategoryProduct:
		return "/products"
	default:
		return "/"
	}
}

func fallbackMessage(kind Category) string {
	switch kind {
	case CategoryVehicle:
		return "A safety recall may affect your vehicle. Review the details."
	case CategoryProduct:
		return "Potential product recall match detected. Review the details."
	default:
		return "Potential recall match detected. Review the details."
	}
}

// messagePrompt builds the one-sentence alert prompt for the generator.
func messagePrompt(recall *RecallRecord, item *TrackedItem) string {
	switch recall.Kind {
	case CategoryVehicle:
		return fmt.Sprintf(`Generate a brief one-sentence alert message (under 40 words) for a user about a vehicle safety recall.
The user has: %d %s %s
The recall is: %s - %s
Focus on the key safety consequence. Be clear and direct.`,
			item.Year, item.Make, item.Model,
			orUnknown(recall.Component, "Unknown component"), orUnknown(recall.Summary, "Safety concern"))
	case CategoryProduct:
		return fmt.Sprintf(`Generate a brief one-sentence alert message (under 40 words) for a user about a product recall.
The user has: %s
The recall is: %s - %s
Focus on the key safety hazard. Be clear and direct.`,
			strings.TrimSpace(item.Brand+" "+item.Name+" "+item.ModelNumber),
			orUnknown(firstNonEmpty(recall.ProductName, recall.Description), "Unknown product"),
			orUnknown(recall.Hazard, "Safety concern"))
	default:
		return fmt.Sprintf(`Generate a brief one-sentence alert message (under 40 words) for a user about a food recall.
The user has: %s
The recall is: %s
Focus on the key safety concern. Be clear and direct.`,
			strings.TrimSpace(item.Brand+" "+item.Name),
			orUnknown(firstNonEmpty(recall.ProductDescription, recall.Reason), "Unknown product"))
	}
}

func orUnknown(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
