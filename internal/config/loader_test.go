package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Run("Given defaults When inspected Then matching policy carries the reference values", func(t *testing.T) {
		cfg := DefaultConfig()

		if cfg.Matching.TopK != 50 {
			t.Errorf("expected top_k 50, got %d", cfg.Matching.TopK)
		}
		if cfg.Matching.FoodThreshold != 0.40 {
			t.Errorf("expected food threshold 0.40, got %v", cfg.Matching.FoodThreshold)
		}
		if cfg.Matching.ProductThreshold != 0.65 {
			t.Errorf("expected product threshold 0.65, got %v", cfg.Matching.ProductThreshold)
		}
		if cfg.Server.Addr != ":8080" {
			t.Errorf("expected :8080, got %s", cfg.Server.Addr)
		}
		if cfg.Push.TimeoutSeconds != 10 {
			t.Errorf("expected push timeout 10s, got %d", cfg.Push.TimeoutSeconds)
		}
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("Given a yaml file When loaded Then values override defaults and others survive", func(t *testing.T) {
		// Given
		dir := t.TempDir()
		path := filepath.Join(dir, "recallguard.yaml")
		content := []byte(`
server:
  addr: ":9090"
matching:
  food_threshold: 0.5
`)
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		// When
		cfg := DefaultConfig()
		loadFile(path, cfg)

		// Then
		if cfg.Server.Addr != ":9090" {
			t.Errorf("expected :9090, got %s", cfg.Server.Addr)
		}
		if cfg.Matching.FoodThreshold != 0.5 {
			t.Errorf("expected 0.5, got %v", cfg.Matching.FoodThreshold)
		}
		if cfg.Matching.ProductThreshold != 0.65 {
			t.Errorf("expected untouched product threshold, got %v", cfg.Matching.ProductThreshold)
		}
	})

	t.Run("Given a missing file When loaded Then defaults are untouched", func(t *testing.T) {
		cfg := DefaultConfig()

		loadFile(filepath.Join(t.TempDir(), "absent.yaml"), cfg)

		if cfg.Server.Addr != ":8080" {
			t.Errorf("expected defaults untouched, got %s", cfg.Server.Addr)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("Given credential env vars When applied Then they override the config", func(t *testing.T) {
		// Given
		t.Setenv("COHERE_API_KEY", "env-cohere-key")
		t.Setenv("VAPID_PUBLIC_KEY", "env-pub")
		t.Setenv("VAPID_PRIVATE_KEY", "env-priv")
		t.Setenv("VAPID_EMAIL", "mailto:ops@example.com")

		// When
		cfg := DefaultConfig()
		applyEnv(cfg)

		// Then
		if cfg.Cohere.APIKey != "env-cohere-key" {
			t.Errorf("expected env API key, got %q", cfg.Cohere.APIKey)
		}
		if cfg.Push.VAPIDPublicKey != "env-pub" || cfg.Push.VAPIDPrivateKey != "env-priv" {
			t.Error("expected env VAPID keys applied")
		}
		if cfg.Push.Subscriber != "mailto:ops@example.com" {
			t.Errorf("expected env subscriber, got %q", cfg.Push.Subscriber)
		}
	})

	t.Run("Given empty env When applied Then existing values survive", func(t *testing.T) {
		t.Setenv("COHERE_API_KEY", "")

		cfg := DefaultConfig()
		cfg.Cohere.APIKey = "from-file"
		applyEnv(cfg)

		if cfg.Cohere.APIKey != "from-file" {
			t.Errorf("expected file value kept, got %q", cfg.Cohere.APIKey)
		}
	})
}
