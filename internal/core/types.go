package core

import (
	"strings"
	"time"
)

// Category partitions tracked items, recalls, and index collections.
type Category string

const (
	CategoryFood    Category = "food"
	CategoryVehicle Category = "vehicle"
	CategoryProduct Category = "product"
)

// Categories lists every category in matching order.
var Categories = []Category{CategoryFood, CategoryVehicle, CategoryProduct}

// Urgency is the categorical severity of an alert.
type Urgency string

const (
	UrgencyHigh   Urgency = "HIGH"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyLow    Urgency = "LOW"
)

// TrackedItem is a consumer-owned item monitored for recalls. Identity fields
// are category-specific; unused fields stay empty. Items are soft-deactivated
// via Active rather than deleted while alerts reference them.
type TrackedItem struct {
	ID       string
	Category Category
	Active   bool

	// Food and consumer products
	Brand       string
	Name        string
	Size        string // food package size
	ModelNumber string // consumer products

	// Vehicles
	Make  string
	Model string
	Year  int
	VIN   string

	CreatedAt time.Time
}

// QueryText builds the retrieval query string from the item's identity fields.
// Food items deliberately exclude the package size here: the query drives the
// lexical token match and the reranker, and a size token like "12oz" rarely
// appears verbatim in recall text.
func (t *TrackedItem) QueryText() string {
	switch t.Category {
	case CategoryProduct:
		return strings.TrimSpace(t.Brand + " " + t.Name + " " + t.ModelNumber)
	case CategoryVehicle:
		return strings.TrimSpace(t.Make + " " + t.Model)
	default:
		return strings.TrimSpace(t.Brand + " " + t.Name)
	}
}

// IndexText builds the text embedded for the item itself. Unlike QueryText,
// food items include the package size so the dense vector carries it.
func (t *TrackedItem) IndexText() string {
	switch t.Category {
	case CategoryProduct:
		return strings.TrimSpace(t.Brand + " " + t.Name + " " + t.ModelNumber)
	case CategoryVehicle:
		return strings.TrimSpace(t.Make + " " + t.Model)
	default:
		return strings.TrimSpace(t.Brand + " " + t.Name + " " + t.Size)
	}
}

// RecallRecord is a normalized recall from exactly one upstream feed. Kind is
// the discriminant set at ingestion time; downstream code never re-infers it
// from field presence. ID is the feed's natural key (recall ID, campaign
// number, or recall number) and doubles as the ingestion idempotency key.
type RecallRecord struct {
	ID   string
	Kind Category

	// Food (FDA)
	ProductDescription string
	Reason             string
	Classification     string
	Company            string

	// Vehicles (NHTSA)
	Make        string
	Model       string
	Year        int
	Component   string
	Summary     string
	Consequence string
	Remedy      string
	Severity    string

	// Consumer products (CPSC)
	ProductName  string
	Description  string
	Hazard       string
	Manufacturer string

	RecallDate string
	FetchedAt  time.Time
}

// IndexText builds the text embedded and lexically scanned for this recall.
func (r *RecallRecord) IndexText() string {
	switch r.Kind {
	case CategoryProduct:
		return strings.TrimSpace(r.Manufacturer + " " + r.ProductName + " " + r.Description)
	case CategoryVehicle:
		return strings.TrimSpace(r.Make + " " + r.Model + " " + r.Component + " " + r.Summary)
	default:
		return strings.TrimSpace(r.ProductDescription + " " + r.Company + " " + r.Reason)
	}
}

// Title is a short human-readable label for the recalled product.
func (r *RecallRecord) Title() string {
	switch r.Kind {
	case CategoryProduct:
		if r.ProductName != "" {
			return r.ProductName
		}
		return r.Description
	case CategoryVehicle:
		return strings.TrimSpace(r.Make + " " + r.Model + " " + r.Component)
	default:
		return r.ProductDescription
	}
}

// Candidate is a transient retrieval result; never persisted.
type Candidate struct {
	Entry Entry
	Score float64
}

// Entry mirrors vectorindex.Entry for candidates flowing through the engine.
type Entry struct {
	ID   string
	Text string
}

// Alert links a TrackedItem to a RecallRecord. At most one non-superseded
// alert exists per (item, recall) pair; Resolved means fixed for vehicles and
// discarded for products.
type Alert struct {
	ID        string
	ItemID    string
	RecallID  string
	Category  Category
	Score     float64
	Urgency   Urgency
	Message   string
	Dismissed bool
	Resolved  bool
	CreatedAt time.Time
}

// AlertWithDetails joins an alert to its item and recall for presentation.
type AlertWithDetails struct {
	Alert
	ItemName    string
	RecallTitle string
}
