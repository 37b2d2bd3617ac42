package main

import (
	"fmt"
	"log/slog"

	"github.com/specimenworks/fieldlens/internal/common"
	"github.com/specimenworks/fieldlens/internal/config"
	"github.com/specimenworks/fieldlens/internal/model"
	"github.com/specimenworks/fieldlens/internal/pipeline"
	"github.com/specimenworks/fieldlens/internal/prompt"
	"github.com/specimenworks/fieldlens/internal/provider"
	"github.com/specimenworks/fieldlens/internal/storage"
)

// appContext bundles the collaborators most commands need.
type appContext struct {
	cfg       *config.Config
	store     *storage.SQLiteStorage
	artifacts *storage.FileArtifactStore
	client    provider.Client
}

// newAppContext loads configuration and opens storage. The provider client
// is created lazily so commands that never call out (migrate, results) run
// without credentials. Callers must Close the returned context.
func newAppContext() (*appContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, common.NewUserError("failed to open database "+cfg.DatabasePath, err)
	}

	artifacts, err := storage.NewFileArtifactStore(cfg.ArtifactDir)
	if err != nil {
		_ = store.Close()
		return nil, common.NewUserError("failed to open artifact directory "+cfg.ArtifactDir, err)
	}

	return &appContext{
		cfg:       cfg,
		store:     store,
		artifacts: artifacts,
	}, nil
}

func (a *appContext) Close() {
	_ = a.store.Close()
}

// providerClient creates the provider client on first use, surfacing a
// missing credential as a configuration error with a remediation hint.
func (a *appContext) providerClient() (provider.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	if err := config.RequireAPIKey(a.cfg.Provider); err != nil {
		return nil, err
	}

	client, err := provider.NewClient(a.cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	a.client = client
	return client, nil
}

// orchestratorFor builds a pipeline for the named profile.
func (a *appContext) orchestratorFor(profileName string) (*pipeline.Orchestrator, error) {
	profile, ok := model.ProfileByName(profileName)
	if !ok {
		return nil, fmt.Errorf("unknown profile: %s", profileName)
	}

	client, err := a.providerClient()
	if err != nil {
		return nil, err
	}

	return pipeline.New(
		client,
		prompt.NewBuilder(profile),
		a.store,
		a.artifacts,
		a.cfg.Policy,
		slog.Default(),
	), nil
}
