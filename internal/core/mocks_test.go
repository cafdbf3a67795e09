package core

import (
	"context"
	"errors"
	"sync"

	"github.com/recallguard/recallguard/internal/embedding"
	"github.com/recallguard/recallguard/internal/notify"
)

// Common test errors
var (
	ErrMockStorage  = errors.New("mock storage error")
	ErrMockProvider = errors.New("mock provider error")
	ErrMockGenerate = errors.New("mock generation error")
)

// MockStorage implements Storage for testing
type MockStorage struct {
	mu       sync.Mutex
	Items    map[string]*TrackedItem
	Recalls  map[string]*RecallRecord
	Alerts   map[string]*Alert
	Settings map[string]string

	CreateAlertCount  int
	FailOnCreateAlert bool
	FailOnListRecalls bool
	FailOnExists      bool
	Closed            bool
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		Items:    make(map[string]*TrackedItem),
		Recalls:  make(map[string]*RecallRecord),
		Alerts:   make(map[string]*Alert),
		Settings: make(map[string]string),
	}
}

func (m *MockStorage) ListActiveItems(ctx context.Context, category Category) ([]TrackedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []TrackedItem
	for _, item := range m.Items {
		if item.Active && item.Category == category {
			items = append(items, *item)
		}
	}
	return items, nil
}

func (m *MockStorage) GetItem(ctx context.Context, id string) (*TrackedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.Items[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *item
	return &copy, nil
}

func (m *MockStorage) SaveItem(ctx context.Context, item *TrackedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copy := *item
	m.Items[item.ID] = &copy
	return nil
}

func (m *MockStorage) SetItemActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.Items[id]
	if !ok {
		return ErrNotFound
	}
	item.Active = active
	return nil
}

func (m *MockStorage) DeleteItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Items[id]; !ok {
		return ErrNotFound
	}
	delete(m.Items, id)
	for alertID, alert := range m.Alerts {
		if alert.ItemID == id {
			delete(m.Alerts, alertID)
		}
	}
	return nil
}

func (m *MockStorage) ListRecalls(ctx context.Context, kind Category) ([]RecallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailOnListRecalls {
		return nil, ErrMockStorage
	}

	var recalls []RecallRecord
	for _, r := range m.Recalls {
		if r.Kind == kind {
			recalls = append(recalls, *r)
		}
	}
	return recalls, nil
}

func (m *MockStorage) GetRecall(ctx context.Context, id string) (*RecallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recall, ok := m.Recalls[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *recall
	return &copy, nil
}

func (m *MockStorage) SaveRecalls(ctx context.Context, recalls []RecallRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	for i := range recalls {
		if _, ok := m.Recalls[recalls[i].ID]; ok {
			continue
		}
		copy := recalls[i]
		m.Recalls[copy.ID] = &copy
		inserted++
	}
	return inserted, nil
}

func (m *MockStorage) AlertExists(ctx context.Context, itemID, recallID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailOnExists {
		return false, ErrMockStorage
	}

	for _, alert := range m.Alerts {
		if alert.ItemID == itemID && alert.RecallID == recallID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockStorage) CreateAlert(ctx context.Context, alert *Alert) (*Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateAlertCount++

	if m.FailOnCreateAlert {
		return nil, ErrMockStorage
	}

	// Mirror the store's uniqueness constraint on (item, recall).
	for _, existing := range m.Alerts {
		if existing.ItemID == alert.ItemID && existing.RecallID == alert.RecallID {
			return nil, nil
		}
	}

	copy := *alert
	m.Alerts[alert.ID] = &copy
	return &copy, nil
}

func (m *MockStorage) ListAlerts(ctx context.Context, category Category) ([]AlertWithDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var alerts []AlertWithDetails
	for _, alert := range m.Alerts {
		if category != "" && alert.Category != category {
			continue
		}
		alerts = append(alerts, AlertWithDetails{Alert: *alert})
	}
	return alerts, nil
}

func (m *MockStorage) DismissAlert(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.Alerts[id]
	if !ok {
		return ErrNotFound
	}
	alert.Dismissed = true
	return nil
}

func (m *MockStorage) ResolveAlert(ctx context.Context, id string, resolved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.Alerts[id]
	if !ok {
		return ErrNotFound
	}
	alert.Resolved = resolved
	return nil
}

func (m *MockStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Settings[key], nil
}

func (m *MockStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Settings[key] = value
	return nil
}

func (m *MockStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// alertsFor returns the stored alerts linking an item and recall.
func (m *MockStorage) alertsFor(itemID, recallID string) []*Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	var alerts []*Alert
	for _, alert := range m.Alerts {
		if alert.ItemID == itemID && alert.RecallID == recallID {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// MockProvider implements EmbeddingProvider for testing
type MockProvider struct {
	mu          sync.Mutex
	Unavailable bool
	EmbedFunc   func(ctx context.Context, texts []string) ([][]float32, error)
	QueryFunc   func(ctx context.Context, query string) ([]float32, error)
	RerankFunc  func(ctx context.Context, query string, documents []string, topN int) ([]embedding.RerankResult, error)

	EmbedCount  int
	QueryCount  int
	RerankCount int
	FixedVector []float32
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		FixedVector: []float32{1, 0, 0},
	}
}

func (m *MockProvider) Available() bool {
	return !m.Unavailable
}

func (m *MockProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EmbedCount++

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = m.FixedVector
	}
	return vectors, nil
}

func (m *MockProvider) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCount++

	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query)
	}
	return m.FixedVector, nil
}

func (m *MockProvider) Rerank(ctx context.Context, query string, documents []string, topN int) ([]embedding.RerankResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RerankCount++

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, documents, topN)
	}
	return nil, nil
}

// MockGenerator implements TextGenerator for testing
type MockGenerator struct {
	mu        sync.Mutex
	Response  string
	Fail      bool
	CallCount int
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++

	if m.Fail {
		return "", ErrMockGenerate
	}
	return m.Response, nil
}

// MockDispatcher implements AlertDispatcher for testing
type MockDispatcher struct {
	mu       sync.Mutex
	Payloads []notify.Payload
	Result   notify.DispatchResult
}

func (m *MockDispatcher) Dispatch(ctx context.Context, payload notify.Payload) notify.DispatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Payloads = append(m.Payloads, payload)
	return m.Result
}

// dispatched returns a snapshot of the payloads sent so far.
func (m *MockDispatcher) dispatched() []notify.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]notify.Payload, len(m.Payloads))
	copy(out, m.Payloads)
	return out
}
