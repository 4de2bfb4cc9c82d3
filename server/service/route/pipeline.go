package route

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/kiralabs/kira/internal/profile"
	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/plugin/ai/agent"
	"github.com/kiralabs/kira/plugin/ai/background"
	"github.com/kiralabs/kira/plugin/ai/cache"
	aicontext "github.com/kiralabs/kira/plugin/ai/context"
	"github.com/kiralabs/kira/plugin/ai/metrics"
	"github.com/kiralabs/kira/plugin/ai/router"
	"github.com/kiralabs/kira/plugin/ai/timeout"
	"github.com/kiralabs/kira/plugin/bridge"
	"github.com/kiralabs/kira/store"
)

// Pipeline owns the route service and the long-lived parts behind it.
type Pipeline struct {
	Service    *Service
	Dispatcher *background.Dispatcher
	Metrics    *metrics.Service

	responder *agent.Responder
	userIDs   *cache.Service[string]
}

// NewPipeline wires the router from the profile. Configuration errors are returned
// before anything is started.
func NewPipeline(p *profile.Profile, s *store.Store, outcomes io.Writer) (*Pipeline, error) {
	cfg := ai.NewConfigFromProfile(p)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AI configuration")
	}

	providers := agent.Providers{}
	for _, role := range []ai.ProviderRole{ai.ProviderPrimary, ai.ProviderSecondary} {
		pc := cfg.Provider(role)
		llm, err := ai.NewLLMService(&pc)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create %s provider", role)
		}
		providers[role] = llm
	}

	embedder, err := ai.NewEmbeddingService(&cfg.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}

	classifier := router.NewService(router.Config{
		Primary:   router.ClassifierProvider{Client: providers[ai.ProviderPrimary], Model: cfg.Primary.FastModel},
		Secondary: router.ClassifierProvider{Client: providers[ai.ProviderSecondary], Model: cfg.Secondary.FastModel},
		Timeout:   timeout.ClassificationTimeout,
	})

	userIDs := cache.NewService[string](cache.ServiceConfig{DefaultTTL: aicontext.UserIDCacheTTL})
	loader := aicontext.NewService(s, embedder).WithCache(userIDs)

	responder := agent.NewResponder(
		providers,
		agent.NewRouteTable(cfg),
		agent.NewCommandExecutor(p.ScriptsDir, p.CommandTimeout),
	)

	runner := background.NewRunner(
		s,
		embedder,
		bridge.NewAvatar(p.AvatarBridgeURL, timeout.BridgeTimeout),
		bridge.NewDashboard(p.DashboardURL, timeout.BridgeTimeout),
	)

	metricsService := metrics.NewService(metrics.DefaultRetentionConfig())
	dispatcher := background.NewDispatcher(runner, NewOutcomeWriter(outcomes, metricsService), background.DefaultDispatcherConfig())

	service := NewService(classifier, loader, responder, dispatcher).WithMetrics(metricsService)

	return &Pipeline{
		Service:    service,
		Dispatcher: dispatcher,
		Metrics:    metricsService,
		responder:  responder,
		userIDs:    userIDs,
	}, nil
}

// Close drains queued background batches, then stops the caches and metrics loops.
func (p *Pipeline) Close(ctx context.Context) error {
	err := p.Dispatcher.Close(ctx)
	p.responder.Metrics().LogSummary()
	p.userIDs.Close()
	p.Metrics.Close()
	return err
}
