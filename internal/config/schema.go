package config

// Config represents the full RecallGuard configuration.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Database configures the SQLite store.
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Cohere configures the embedding/rerank/generation provider.
	Cohere CohereConfig `yaml:"cohere" mapstructure:"cohere"`

	// Push configures Web Push delivery.
	Push PushConfig `yaml:"push" mapstructure:"push"`

	// Matching configures the matching policy.
	Matching MatchingConfig `yaml:"matching" mapstructure:"matching"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CohereConfig holds provider credentials. An empty key disables the dense
// retrieval and rerank paths; matching degrades to lexical-only.
type CohereConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

// PushConfig holds VAPID details for Web Push. Empty keys disable dispatch.
type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key" mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key" mapstructure:"vapid_private_key"`
	Subscriber      string `yaml:"subscriber" mapstructure:"subscriber"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// MatchingConfig holds the tunable matching policy. Thresholds and keyword
// lists are calibration candidates, not invariants.
type MatchingConfig struct {
	TopK             int      `yaml:"top_k" mapstructure:"top_k"`
	RerankTopN       int      `yaml:"rerank_top_n" mapstructure:"rerank_top_n"`
	FoodThreshold    float64  `yaml:"food_threshold" mapstructure:"food_threshold"`
	ProductThreshold float64  `yaml:"product_threshold" mapstructure:"product_threshold"`
	Concurrency      int      `yaml:"concurrency" mapstructure:"concurrency"`
	IntervalMinutes  int      `yaml:"interval_minutes" mapstructure:"interval_minutes"`
	HazardKeywords   []string `yaml:"hazard_keywords" mapstructure:"hazard_keywords"`

	ConsequenceHighKeywords   []string `yaml:"consequence_high_keywords" mapstructure:"consequence_high_keywords"`
	ConsequenceMediumKeywords []string `yaml:"consequence_medium_keywords" mapstructure:"consequence_medium_keywords"`
}
