package services

import (
	"github.com/KirkDiggler/vtt-spell-tracker/internal/authority"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/dice"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/events"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/relay"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/repositories/records"
	cleanupService "github.com/KirkDiggler/vtt-spell-tracker/internal/services/cleanup"
	linkerService "github.com/KirkDiggler/vtt-spell-tracker/internal/services/linker"
	registryService "github.com/KirkDiggler/vtt-spell-tracker/internal/services/registry"
	triggerService "github.com/KirkDiggler/vtt-spell-tracker/internal/services/trigger"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/uuid"
)

// Provider holds all service instances
type Provider struct {
	Registry registryService.Service
	Linker   linkerService.Service
	Cleanup  cleanupService.Service
	Trigger  triggerService.Service
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	Repository records.Repository
	Resolver   game.SceneResolver
	Documents  game.DocumentStore
	Templates  game.TemplateStore
	Visibility game.VisibilityChecker
	Relay      relay.Relay // may be nil when no privileged client is connected
	Presence   authority.Presence
	EventBus   *events.Bus
	Roller     dice.Roller

	AutoApply    bool
	SeenCapacity int
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	repo := cfg.Repository
	if repo == nil {
		repo = records.NewInMemoryRepository()
	}

	roller := cfg.Roller
	if roller == nil {
		roller = dice.NewRandomRoller()
	}

	executor := relay.NewExecutor(&relay.ExecutorConfig{
		Store: cfg.Documents,
		Relay: cfg.Relay,
	})

	registrySvc := registryService.NewService(&registryService.ServiceConfig{
		Repository:    repo,
		UUIDGenerator: uuid.NewGoogleUUIDGenerator(),
		EventBus:      cfg.EventBus,
	})

	linkerSvc := linkerService.NewService(&linkerService.ServiceConfig{
		Resolver: cfg.Resolver,
		Executor: executor,
		Roller:   roller,
		Registry: registrySvc,
		EventBus: cfg.EventBus,
	})

	cleanupSvc := cleanupService.NewService(&cleanupService.ServiceConfig{
		Registry:  registrySvc,
		Resolver:  cfg.Resolver,
		Executor:  executor,
		Templates: cfg.Templates,
		EventBus:  cfg.EventBus,
	})

	triggerSvc := triggerService.NewService(&triggerService.ServiceConfig{
		Registry:     registrySvc,
		Linker:       linkerSvc,
		Cleanup:      cleanupSvc,
		Resolver:     cfg.Resolver,
		Templates:    cfg.Templates,
		Visibility:   cfg.Visibility,
		Presence:     cfg.Presence,
		EventBus:     cfg.EventBus,
		AutoApply:    cfg.AutoApply,
		SeenCapacity: cfg.SeenCapacity,
	})

	return &Provider{
		Registry: registrySvc,
		Linker:   linkerSvc,
		Cleanup:  cleanupSvc,
		Trigger:  triggerSvc,
	}
}
