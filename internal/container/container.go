package container

import (
	"fmt"
	"net/http"

	"go-skintone-analyzer/internal/analyzer"
	"go-skintone-analyzer/internal/config"
	"go-skintone-analyzer/internal/landmark"
	"go-skintone-analyzer/internal/palette"
	"go-skintone-analyzer/internal/render"
	"go-skintone-analyzer/internal/service"
	"go-skintone-analyzer/internal/storage"
	"go-skintone-analyzer/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	store      *storage.SQLiteStore
	detector   landmark.Provider
	classifier *analyzer.ToneClassifier
	renderer   *render.ChartRenderer
	archiver   storage.ImageArchiver
	service    service.SkinToneService
	handler    http.Handler
}

// NewContainer builds the dependency graph from configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	detector := landmark.NewRemoteProvider(cfg.LandmarkServiceURL, cfg.LandmarkTimeout)

	model := palette.Default()
	classifier := analyzer.NewToneClassifier(model, landmark.FaceMeshExclusions())
	renderer := render.NewChartRenderer(model)

	archiver := storage.NewNoopArchiver()
	if cfg.ArchiveEnabled() {
		archiver, err = storage.NewAzureArchiver(cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.AzureArchiveContainer)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to configure image archive: %w", err)
		}
	}

	svc := service.NewSkinToneService(store, detector, classifier, renderer, archiver)
	handler := transport.NewHandler(svc, cfg)

	return &Container{
		config:     cfg,
		store:      store,
		detector:   detector,
		classifier: classifier,
		renderer:   renderer,
		archiver:   archiver,
		service:    svc,
		handler:    handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases held resources.
func (c *Container) Close() error {
	return c.store.Close()
}
