package vectorindex

import (
	"fmt"
	"math"
	"sync"
	"testing"
)

// =============================================================================
// Test: CosineSimilarity
// =============================================================================

func TestCosineSimilarity(t *testing.T) {
	t.Run("Given identical vectors When compared Then similarity is 1", func(t *testing.T) {
		a := []float32{1, 2, 3}
		got := CosineSimilarity(a, a)
		if math.Abs(got-1.0) > 1e-9 {
			t.Errorf("expected 1.0, got %v", got)
		}
	})

	t.Run("Given orthogonal vectors When compared Then similarity is 0", func(t *testing.T) {
		got := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		if got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("Given opposite vectors When compared Then similarity is -1", func(t *testing.T) {
		got := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
		if math.Abs(got+1.0) > 1e-9 {
			t.Errorf("expected -1.0, got %v", got)
		}
	})

	t.Run("Given mismatched lengths When compared Then similarity is 0", func(t *testing.T) {
		got := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
		if got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("Given a zero-magnitude vector When compared Then similarity is 0", func(t *testing.T) {
		got := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
		if got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("Given swapped arguments When compared Then result is symmetric", func(t *testing.T) {
		a := []float32{0.3, 0.7, 0.1}
		b := []float32{0.9, 0.2, 0.5}
		if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
			t.Error("expected symmetric similarity")
		}
	})

	t.Run("Given arbitrary vectors When compared Then result stays within [-1, 1]", func(t *testing.T) {
		a := []float32{12.5, -3.2, 0.01, 7}
		b := []float32{-0.5, 44, 3.3, -9}
		got := CosineSimilarity(a, b)
		if got < -1.000000001 || got > 1.000000001 {
			t.Errorf("expected result in [-1, 1], got %v", got)
		}
	})
}

// =============================================================================
// Test: Index
// =============================================================================

func TestIndex_Upsert(t *testing.T) {
	t.Run("Given a new entry When upserted Then it is retrievable", func(t *testing.T) {
		// Given
		idx := New()

		// When
		idx.Upsert("food-recalls", "r-1", "peanut butter", []float32{1, 0}, map[string]string{"date": "2024-01-01"})

		// Then
		entries := idx.AllOf("food-recalls")
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].ID != "r-1" || entries[0].Text != "peanut butter" {
			t.Errorf("unexpected entry %+v", entries[0])
		}
	})

	t.Run("Given an existing ID When upserted Then the entry is replaced", func(t *testing.T) {
		// Given
		idx := New()
		idx.Upsert("food-recalls", "r-1", "old text", []float32{1, 0}, nil)

		// When
		idx.Upsert("food-recalls", "r-1", "new text", []float32{0, 1}, nil)

		// Then
		entries := idx.AllOf("food-recalls")
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].Text != "new text" {
			t.Errorf("expected replacement, got %q", entries[0].Text)
		}
	})

	t.Run("Given entries in different categories When counted Then partitions are independent", func(t *testing.T) {
		// Given
		idx := New()
		idx.Upsert("food-recalls", "r-1", "a", nil, nil)
		idx.Upsert("product-recalls", "r-1", "b", nil, nil)

		// Then
		if idx.Count("food-recalls") != 1 || idx.Count("product-recalls") != 1 {
			t.Errorf("expected independent partitions, got %d and %d",
				idx.Count("food-recalls"), idx.Count("product-recalls"))
		}
	})
}

func TestIndex_Remove(t *testing.T) {
	t.Run("Given an entry When removed Then it is gone", func(t *testing.T) {
		idx := New()
		idx.Upsert("food-recalls", "r-1", "text", nil, nil)

		idx.Remove("food-recalls", "r-1")

		if idx.Count("food-recalls") != 0 {
			t.Errorf("expected empty collection, got %d", idx.Count("food-recalls"))
		}
	})

	t.Run("Given an absent entry When removed Then no-op", func(t *testing.T) {
		idx := New()
		idx.Remove("food-recalls", "missing")

		if idx.Count("food-recalls") != 0 {
			t.Error("expected empty collection")
		}
	})
}

func TestIndex_ConcurrentAccess(t *testing.T) {
	t.Run("Given concurrent upserts and reads When run together Then no races and all entries land", func(t *testing.T) {
		// Given
		idx := New()
		var wg sync.WaitGroup

		// When
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func(n int) {
				defer wg.Done()
				idx.Upsert("food-recalls", fmt.Sprintf("r-%d", n), "text", []float32{float32(n)}, nil)
			}(i)
			go func() {
				defer wg.Done()
				idx.AllOf("food-recalls")
			}()
		}
		wg.Wait()

		// Then
		if idx.Count("food-recalls") != 50 {
			t.Errorf("expected 50 entries, got %d", idx.Count("food-recalls"))
		}
	})
}
