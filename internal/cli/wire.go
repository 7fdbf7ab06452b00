package cli

import (
	"fmt"
	"log"

	"github.com/stagegate/stagegate/internal/artifact"
	"github.com/stagegate/stagegate/internal/config"
	"github.com/stagegate/stagegate/internal/events"
	"github.com/stagegate/stagegate/internal/notify"
	"github.com/stagegate/stagegate/internal/pipeline"
	"github.com/stagegate/stagegate/internal/producer"
	"github.com/stagegate/stagegate/internal/review"
	"github.com/stagegate/stagegate/internal/revision"
	"github.com/stagegate/stagegate/internal/storage"
	"github.com/stagegate/stagegate/internal/tracker"
)

// engine bundles the wired review machinery behind one CLI invocation.
type engine struct {
	cfg       *config.Config
	store     storage.Store
	bus       *events.Bus
	limiter   *revision.Limiter
	memory    *revision.Memory
	cycle     *revision.Cycle
	producers *producer.Registry
	registry  *review.Registry
	notifier  notify.Notifier
	binding   *pipeline.Binding
}

// buildEngine loads configuration and wires every collaborator. The
// composition is explicit: each component receives its dependencies
// through its constructor.
func (a *App) buildEngine() (*engine, error) {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	bus := events.NewBus()

	notifier, err := notify.FromConfig(notify.Config{
		Backends:     cfg.Notify.Backends,
		SlackWebhook: cfg.Notify.SlackWebhook,
		WebhookURL:   cfg.Notify.WebhookURL,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("configure notifications: %w", err)
	}
	bus.Subscribe(notify.Bridge(notifier))

	producers := producer.NewRegistry()
	for id, pc := range cfg.Producers {
		timeout, err := pc.TimeoutDuration()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("producer %s: %w", id, err)
		}
		exec, err := producer.NewExec(producer.ExecConfig{
			Command: pc.Command,
			Args:    pc.Args,
			WorkDir: pc.WorkDir,
			Timeout: timeout,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("producer %s: %w", id, err)
		}
		producers.Register(id, exec)
	}

	limiter := revision.NewLimiter(cfg.Revision.MaxCycles, cfg.Revision.AutoApproveAfterMax)
	memory := revision.NewMemory(store)
	cycle := revision.NewCycle(memory, limiter, bus)
	registry := review.NewRegistry(store, cycle, limiter, producers, bus)

	filer, err := artifact.NewDirFiler(cfg.Artifacts.Dir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("artifact storage: %w", err)
	}

	var tr tracker.Tracker = tracker.Nop{}
	if cfg.Tracker.URL != "" {
		tr = tracker.NewWebhook(cfg.Tracker.URL, cfg.Tracker.Token)
	} else {
		log.Printf("no tracker configured; ticket creation disabled")
	}

	binding := pipeline.NewBinding(registry, producers, memory, filer, tr, bus)

	return &engine{
		cfg:       cfg,
		store:     store,
		bus:       bus,
		limiter:   limiter,
		memory:    memory,
		cycle:     cycle,
		producers: producers,
		registry:  registry,
		notifier:  notifier,
		binding:   binding,
	}, nil
}

// pipelineStages converts configured stages to pipeline stages.
func pipelineStages(cfg *config.Config) []pipeline.Stage {
	stages := make([]pipeline.Stage, 0, len(cfg.Stages))
	for _, st := range cfg.Stages {
		stages = append(stages, pipeline.Stage{
			Name:          st.Name,
			Producer:      st.Producer,
			ArtifactType:  st.ArtifactType,
			TaskTemplate:  st.Task,
			CreateTickets: st.Tickets,
		})
	}
	return stages
}

func (e *engine) Close() error {
	return e.store.Close()
}
