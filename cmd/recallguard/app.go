package main

import (
	"fmt"
	"time"

	"github.com/recallguard/recallguard/internal/config"
	"github.com/recallguard/recallguard/internal/core"
	"github.com/recallguard/recallguard/internal/embedding"
	"github.com/recallguard/recallguard/internal/notify"
	"github.com/recallguard/recallguard/internal/storage"
	"github.com/recallguard/recallguard/internal/vectorindex"
)

// app wires the engine and its collaborators from configuration.
type app struct {
	cfg        *config.Config
	store      *storage.Store
	engine     *core.Engine
	dispatcher *notify.Dispatcher
	transport  *notify.WebPushTransport
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := storage.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	provider := embedding.NewClient(cfg.Cohere.APIKey)
	transport := notify.NewWebPushTransport(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subscriber)
	dispatcher := notify.NewDispatcher(transport, time.Duration(cfg.Push.TimeoutSeconds)*time.Second)

	engine := core.NewEngine(core.EngineDeps{
		Config: core.Config{
			TopK:                      cfg.Matching.TopK,
			RerankTopN:                cfg.Matching.RerankTopN,
			FoodThreshold:             cfg.Matching.FoodThreshold,
			ProductThreshold:          cfg.Matching.ProductThreshold,
			Concurrency:               int64(cfg.Matching.Concurrency),
			HazardKeywords:            cfg.Matching.HazardKeywords,
			ConsequenceHighKeywords:   cfg.Matching.ConsequenceHighKeywords,
			ConsequenceMediumKeywords: cfg.Matching.ConsequenceMediumKeywords,
		},
		Store:      store,
		Index:      vectorindex.New(),
		Provider:   provider,
		Generator:  provider,
		Dispatcher: dispatcher,
	})

	return &app{
		cfg:        cfg,
		store:      store,
		engine:     engine,
		dispatcher: dispatcher,
		transport:  transport,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
