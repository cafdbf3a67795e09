package core

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// matchVehicle matches a vehicle by direct equality lookup against the
// vehicle recall collection. Vehicle feeds are already indexed by exact
// make/model/year upstream, so no retrieval or reranking is involved; matches
// share the alert, urgency, and dispatch contract with the other categories.
func (e *Engine) matchVehicle(ctx context.Context, item *TrackedItem) ([]Alert, error) {
	recalls, err := e.store.ListRecalls(ctx, CategoryVehicle)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicle recalls: %w", err)
	}

	var created []Alert
	for i := range recalls {
		recall := &recalls[i]
		if !vehicleMatches(item, recall) {
			continue
		}

		exists, err := e.store.AlertExists(ctx, item.ID, recall.ID)
		if err != nil {
			log.Printf("Warning: alert existence check for %s/%s failed: %v", item.ID, recall.ID, err)
			continue
		}
		if exists {
			continue
		}

		alert := &Alert{
			ID:        uuid.New().String(),
			ItemID:    item.ID,
			RecallID:  recall.ID,
			Category:  CategoryVehicle,
			Score:     1.0,
			Urgency:   e.classifyUrgency(recall),
			Message:   e.generateMessage(ctx, recall, item),
			CreatedAt: time.Now(),
		}

		saved, err := e.store.CreateAlert(ctx, alert)
		if err != nil {
			log.Printf("Warning: failed to create vehicle alert for %s/%s: %v", item.ID, recall.ID, err)
			continue
		}
		if saved == nil {
			continue
		}

		created = append(created, *saved)
		e.dispatch(ctx, item, recall, saved)
	}

	return created, nil
}

// vehicleMatches compares normalized make and model plus model year. A recall
// without a model year applies to every year of that make/model.
func vehicleMatches(item *TrackedItem, recall *RecallRecord) bool {
	if !strings.EqualFold(normalizeField(item.Make), normalizeField(recall.Make)) {
		return false
	}
	if !strings.EqualFold(normalizeField(item.Model), normalizeField(recall.Model)) {
		return false
	}
	if recall.Year != 0 && recall.Year != item.Year {
		return false
	}
	return true
}

func normalizeField(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var vinCharset = regexp.MustCompile(`^[A-Z0-9]+$`)

// NormalizeVIN uppercases a VIN and strips non-alphanumeric characters.
func NormalizeVIN(vin string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(vin) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateVIN checks the normalized VIN: exactly 17 alphanumeric characters,
// excluding I, O, and Q.
func ValidateVIN(vin string) error {
	if vin == "" {
		return fmt.Errorf("VIN is required")
	}

	clean := NormalizeVIN(vin)
	if len(clean) != 17 {
		return fmt.Errorf("VIN must be exactly 17 characters")
	}
	if strings.ContainsAny(clean, "IOQ") {
		return fmt.Errorf("VIN cannot contain I, O, or Q")
	}
	if !vinCharset.MatchString(clean) {
		return fmt.Errorf("VIN must be alphanumeric")
	}
	return nil
}
