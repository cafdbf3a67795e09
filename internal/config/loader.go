package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load loads configuration from the global config file, then the project
// file, then environment variables, each layer overriding the last.
// Missing files are fine; defaults always apply.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if home, err := os.UserHomeDir(); err == nil {
		loadFile(filepath.Join(home, ".recallguard", "config.yaml"), cfg)
	}
	if cwd, err := os.Getwd(); err == nil {
		loadFile(filepath.Join(cwd, "recallguard.yaml"), cfg)
	}

	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return
	}
	_ = v.Unmarshal(cfg)
}

// applyEnv overlays the credentials typically injected via environment.
func applyEnv(cfg *Config) {
	if key := os.Getenv("COHERE_API_KEY"); key != "" {
		cfg.Cohere.APIKey = key
	}
	if key := os.Getenv("VAPID_PUBLIC_KEY"); key != "" {
		cfg.Push.VAPIDPublicKey = key
	}
	if key := os.Getenv("VAPID_PRIVATE_KEY"); key != "" {
		cfg.Push.VAPIDPrivateKey = key
	}
	if email := os.Getenv("VAPID_EMAIL"); email != "" {
		cfg.Push.Subscriber = email
	}
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recallguard", "config.yaml")
}
