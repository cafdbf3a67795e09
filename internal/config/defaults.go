package config

// DefaultConfig returns the reference configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Path: "~/.recallguard/recallguard.db",
		},
		Push: PushConfig{
			Subscriber:     "mailto:admin@recallguard.app",
			TimeoutSeconds: 10,
		},
		Matching: MatchingConfig{
			TopK:             50,
			RerankTopN:       10,
			FoodThreshold:    0.40,
			ProductThreshold: 0.65,
			Concurrency:      4,
			IntervalMinutes:  60,
			HazardKeywords:   []string{"death", "serious", "fire"},
			ConsequenceHighKeywords: []string{
				"crash", "fire", "death", "injury", "serious", "airbag",
			},
			ConsequenceMediumKeywords: []string{
				"malfunction", "failure", "stall",
			},
		},
	}
}
