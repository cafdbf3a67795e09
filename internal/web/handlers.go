package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/recallguard/recallguard/internal/core"
	"github.com/recallguard/recallguard/internal/notify"
)

// --- push ---

func (s *Server) handleSubscribe(c *gin.Context) {
	var sub notify.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription object"})
		return
	}
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription object"})
		return
	}

	s.dispatcher.Subscribe(sub)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleUnsubscribe(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if req.Endpoint != "" {
		s.dispatcher.Unsubscribe(req.Endpoint)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handlePushStatus(c *gin.Context) {
	configured := s.transport != nil && s.transport.Configured()
	var publicKey string
	if configured {
		publicKey = s.transport.PublicKey()
	}

	c.JSON(http.StatusOK, gin.H{
		"pushEnabled":     true,
		"vapidConfigured": configured,
		"vapidPublicKey":  publicKey,
		"subscriptions":   s.dispatcher.Count(),
	})
}

// --- matching ---

func (s *Server) handleMatch(c *gin.Context) {
	category, ok := optionalCategory(c)
	if !ok {
		return
	}

	if err := s.engine.RunMatchingPass(c.Request.Context(), category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- alerts ---

func (s *Server) handleListAlerts(c *gin.Context) {
	category, ok := optionalCategory(c)
	if !ok {
		return
	}

	alerts, err := s.store.ListAlerts(c.Request.Context(), category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleDismissAlert(c *gin.Context) {
	if err := s.store.DismissAlert(c.Request.Context(), c.Param("id")); err != nil {
		notFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleResolveAlert(c *gin.Context) {
	var req struct {
		Resolved bool `json:"resolved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := s.store.ResolveAlert(c.Request.Context(), c.Param("id"), req.Resolved); err != nil {
		notFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- tracked items ---

type itemRequest struct {
	Category    string `json:"category"`
	Brand       string `json:"brand"`
	Name        string `json:"name"`
	Size        string `json:"size"`
	ModelNumber string `json:"modelNumber"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	VIN         string `json:"vin"`
}

func (s *Server) handleListItems(c *gin.Context) {
	category, ok := optionalCategory(c)
	if !ok {
		return
	}

	categories := core.Categories
	if category != "" {
		categories = []core.Category{category}
	}

	var items []core.TrackedItem
	for _, cat := range categories {
		list, err := s.store.ListActiveItems(c.Request.Context(), cat)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		items = append(items, list...)
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) handleCreateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	category := core.Category(req.Category)
	item := &core.TrackedItem{
		Category:    category,
		Brand:       req.Brand,
		Name:        req.Name,
		Size:        req.Size,
		ModelNumber: req.ModelNumber,
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
	}

	switch category {
	case core.CategoryFood, core.CategoryProduct:
		if item.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
	case core.CategoryVehicle:
		if item.Make == "" || item.Model == "" || item.Year == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "make, model, and year are required"})
			return
		}
		if req.VIN != "" {
			if err := core.ValidateVIN(req.VIN); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			item.VIN = core.NormalizeVIN(req.VIN)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	if err := s.engine.TrackItem(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) handleToggleItem(c *gin.Context) {
	id := c.Param("id")

	item, err := s.store.GetItem(c.Request.Context(), id)
	if err != nil {
		notFoundOrError(c, err)
		return
	}

	if err := s.engine.SetItemActive(c.Request.Context(), id, !item.Active); err != nil {
		notFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "active": !item.Active})
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	if err := s.engine.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		notFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- recall ingestion ---

type recallRequest struct {
	ID                 string `json:"id"`
	Kind               string `json:"kind"`
	ProductDescription string `json:"productDescription"`
	Reason             string `json:"reason"`
	Classification     string `json:"classification"`
	Company            string `json:"company"`
	Make               string `json:"make"`
	Model              string `json:"model"`
	Year               int    `json:"year"`
	Component          string `json:"component"`
	Summary            string `json:"summary"`
	Consequence        string `json:"consequence"`
	Remedy             string `json:"remedy"`
	ProductName        string `json:"productName"`
	Description        string `json:"description"`
	Hazard             string `json:"hazard"`
	Manufacturer       string `json:"manufacturer"`
	RecallDate         string `json:"recallDate"`
}

// handleIngestRecalls accepts normalized recall batches from the upstream
// feed fetchers. Ingestion is idempotent on the recall's natural key.
func (s *Server) handleIngestRecalls(c *gin.Context) {
	var reqs []recallRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	recalls := make([]core.RecallRecord, 0, len(reqs))
	for _, r := range reqs {
		kind := core.Category(r.Kind)
		if r.ID == "" || (kind != core.CategoryFood && kind != core.CategoryVehicle && kind != core.CategoryProduct) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "each recall needs an id and a valid kind"})
			return
		}

		record := core.RecallRecord{
			ID:                 r.ID,
			Kind:               kind,
			ProductDescription: r.ProductDescription,
			Reason:             r.Reason,
			Classification:     r.Classification,
			Company:            r.Company,
			Make:               r.Make,
			Model:              r.Model,
			Year:               r.Year,
			Component:          r.Component,
			Summary:            r.Summary,
			Consequence:        r.Consequence,
			Remedy:             r.Remedy,
			ProductName:        r.ProductName,
			Description:        r.Description,
			Hazard:             r.Hazard,
			Manufacturer:       r.Manufacturer,
			RecallDate:         r.RecallDate,
			FetchedAt:          time.Now(),
		}
		if kind == core.CategoryVehicle {
			record.Severity = core.VehicleSeverity(r.Consequence)
		}
		recalls = append(recalls, record)
	}

	inserted, err := s.engine.IngestRecalls(c.Request.Context(), recalls)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": len(recalls), "inserted": inserted})
}

// --- status ---

func (s *Server) handleStatus(c *gin.Context) {
	stats, err := s.engine.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- helpers ---

// optionalCategory parses the category query parameter; empty means all.
// Writes a 400 and returns ok=false on an unknown value.
func optionalCategory(c *gin.Context) (core.Category, bool) {
	raw := c.Query("category")
	switch core.Category(raw) {
	case "", core.CategoryFood, core.CategoryVehicle, core.CategoryProduct:
		return core.Category(raw), true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return "", false
	}
}

func notFoundOrError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
