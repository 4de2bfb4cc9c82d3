package context

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/plugin/ai/router"
	"github.com/kiralabs/kira/store"
)

// UserIDCache caches resolved user ids keyed by platform and sender.
// *cache.Service[string] satisfies it.
type UserIDCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
}

// Service implements Loader.
type Service struct {
	source   Source
	embedder ai.EmbeddingService
	cache    UserIDCache
	ranker   *PriorityRanker
	budget   Budget
	now      func() time.Time

	stats *serviceStats
}

type serviceStats struct {
	totalLoads   int64
	cacheHits    int64
	totalLoaded  int64
	totalBuildMs int64
}

// NewService creates a new context loader reading from source.
// A nil embedder disables the semantic tier-2 lookups.
func NewService(source Source, embedder ai.EmbeddingService) *Service {
	return &Service{
		source:   source,
		embedder: embedder,
		ranker:   NewPriorityRanker(),
		budget:   DefaultBudget(),
		now:      time.Now,
		stats:    &serviceStats{},
	}
}

// WithCache sets the user id cache.
func (s *Service) WithCache(c UserIDCache) *Service {
	s.cache = c
	return s
}

// WithBudget sets the section budget.
func (s *Service) WithBudget(b Budget) *Service {
	s.budget = b.withDefaults()
	return s
}

// WithClock overrides the clock used for the channel activity window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Load resolves the sender, then runs every tier-1 and tier-2 lookup concurrently.
func (s *Service) Load(ctx context.Context, req *Request) *Bundle {
	start := time.Now()
	atomic.AddInt64(&s.stats.totalLoads, 1)

	bundle := &Bundle{
		Engagement: &store.Engagement{Tier: store.DefaultEngagementTier},
	}

	if userID := s.resolveUserID(ctx, req.Platform, req.SenderID); userID != "" {
		bundle.UserID = &userID
	}

	var (
		engagement   *store.Engagement
		history      []*store.Interaction
		links        []*store.PlatformLink
		relationship *store.Relationship
		memories     []*RecalledMemory
		channel      *ChannelSummary
		knowledge    []*store.KnowledgeMatch
	)

	embed := sync.OnceValues(func() ([]float32, error) {
		if s.embedder == nil {
			return nil, nil
		}
		return s.embedder.Embed(ctx, req.Message)
	})

	// Branches never return errors: a failed lookup keeps its zero value.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		engagement = s.loadEngagement(gctx, bundle.UserID)
		return nil
	})
	g.Go(func() error {
		history = s.loadHistory(gctx, req, bundle.UserID)
		return nil
	})
	g.Go(func() error {
		links = s.loadLinks(gctx, bundle.UserID)
		return nil
	})
	g.Go(func() error {
		relationship = s.loadRelationship(gctx, bundle.UserID)
		return nil
	})

	switch req.Intent {
	case router.IntentQuestion, router.IntentTechnical:
		g.Go(func() error {
			memories = s.recallMemories(gctx, embed)
			return nil
		})
		g.Go(func() error {
			knowledge = s.searchKnowledge(gctx, embed)
			return nil
		})
	case router.IntentChat:
		g.Go(func() error {
			channel = s.loadChannelActivity(gctx, req.Platform)
			return nil
		})
	}

	_ = g.Wait()

	if engagement != nil {
		bundle.Engagement = engagement
	}
	bundle.History = history
	bundle.Links = links
	bundle.Relationship = relationship
	bundle.Memories = memories
	bundle.ChannelActivity = channel
	bundle.Knowledge = knowledge

	bundle.ContextText, bundle.Loaded = s.render(bundle, engagement != nil)
	bundle.BuildTime = time.Since(start)

	atomic.AddInt64(&s.stats.totalLoaded, int64(bundle.Loaded))
	atomic.AddInt64(&s.stats.totalBuildMs, bundle.BuildTime.Milliseconds())

	slog.Debug("context loaded",
		"platform", req.Platform,
		"intent", string(req.Intent),
		"user_resolved", bundle.UserID != nil,
		"sections", bundle.Loaded,
		"duration_ms", bundle.BuildTime.Milliseconds(),
	)

	return bundle
}

func userCacheKey(platform, senderID string) string {
	return "uid:" + platform + ":" + senderID
}

// resolveUserID returns "" when the sender is unknown or the lookup fails.
// Only positive results are cached.
func (s *Service) resolveUserID(ctx context.Context, platform, senderID string) string {
	if senderID == "" {
		return ""
	}

	key := userCacheKey(platform, senderID)
	if s.cache != nil {
		if userID, ok := s.cache.Get(ctx, key); ok {
			atomic.AddInt64(&s.stats.cacheHits, 1)
			return userID
		}
	}

	userID, err := s.source.ResolveUserID(ctx, platform, senderID)
	if err != nil {
		slog.Warn("failed to resolve user id", "platform", platform, "sender_id", senderID, "error", err)
		return ""
	}
	if userID != "" && s.cache != nil {
		s.cache.Set(ctx, key, userID, UserIDCacheTTL)
	}
	return userID
}

func (s *Service) loadEngagement(ctx context.Context, userID *string) *store.Engagement {
	if userID == nil {
		return nil
	}
	engagement, err := s.source.GetEngagement(ctx, *userID)
	if err != nil {
		slog.Warn("failed to load engagement", "user_id", *userID, "error", err)
		return nil
	}
	return engagement
}

// loadHistory returns the user's last interactions. An unknown sender has none.
func (s *Service) loadHistory(ctx context.Context, req *Request, userID *string) []*store.Interaction {
	if userID == nil {
		return nil
	}

	history, err := s.source.ListInteractions(ctx, &store.FindInteraction{UserID: userID, Limit: HistoryLimit})
	if err != nil {
		slog.Warn("failed to load interaction history", "platform", req.Platform, "error", err)
		return nil
	}
	return history
}

func (s *Service) loadLinks(ctx context.Context, userID *string) []*store.PlatformLink {
	if userID == nil {
		return nil
	}
	links, err := s.source.ListPlatformLinks(ctx, &store.FindPlatformLink{UserID: userID})
	if err != nil {
		slog.Warn("failed to load platform links", "user_id", *userID, "error", err)
		return nil
	}
	return links
}

func (s *Service) loadRelationship(ctx context.Context, userID *string) *store.Relationship {
	if userID == nil {
		return nil
	}
	relationship, err := s.source.GetRelationship(ctx, *userID)
	if err != nil {
		slog.Warn("failed to load relationship", "user_id", *userID, "error", err)
		return nil
	}
	return relationship
}

func (s *Service) recallMemories(ctx context.Context, embed func() ([]float32, error)) []*RecalledMemory {
	vector, err := embed()
	if err != nil {
		slog.Warn("failed to embed message for memory recall", "error", err)
		return nil
	}
	if len(vector) == 0 {
		return nil
	}

	matches, err := s.source.MatchMemories(ctx, &store.MatchMemories{
		Embedding: vector,
		Threshold: MemoryThreshold,
		Limit:     MemoryLimit,
	})
	if err != nil {
		slog.Warn("failed to match memories", "error", err)
		return nil
	}
	return toRecalled(matches)
}

func (s *Service) searchKnowledge(ctx context.Context, embed func() ([]float32, error)) []*store.KnowledgeMatch {
	vector, err := embed()
	if err != nil || len(vector) == 0 {
		// The embedding failure is logged once by recallMemories.
		return nil
	}

	matches, err := s.source.SearchKnowledge(ctx, vector, KnowledgeLimit)
	if err != nil {
		slog.Warn("failed to search knowledge base", "error", err)
		return nil
	}
	return matches
}

func (s *Service) loadChannelActivity(ctx context.Context, platform string) *ChannelSummary {
	since := s.now().Add(-ChannelActivityWindow).Unix()
	entries, err := s.source.ListInteractions(ctx, &store.FindInteraction{
		Platform:       &platform,
		CreatedTsAfter: &since,
		Limit:          ChannelActivityLimit,
	})
	if err != nil {
		slog.Warn("failed to load channel activity", "platform", platform, "error", err)
		return nil
	}
	return SummarizeChannel(platform, ChannelActivityWindow, entries, s.budget.MaxChannel)
}

// render flattens the bundle in priority order within the token budget.
// Loaded counts sections with data, before truncation.
func (s *Service) render(b *Bundle, hasEngagement bool) (string, int) {
	var segments []*ContextSegment
	add := func(source string, priority ContextPriority, content string) {
		if content == "" {
			return
		}
		segments = append(segments, &ContextSegment{
			Content:   content,
			Priority:  priority,
			TokenCost: EstimateTokens(content),
			Source:    source,
		})
	}

	if hasEngagement {
		add("engagement", PriorityEngagement, FormatEngagement(b.Engagement))
	}
	add("relationship", PriorityRelationship, FormatRelationship(b.Relationship))
	add("knowledge", PriorityKnowledge, FormatKnowledge(b.Knowledge, s.budget.MaxKnowledge))
	add("memories", PriorityMemories, FormatMemories(b.Memories, s.budget.MaxMemoryChars))
	add("history", PriorityHistory, FormatHistory(b.History))
	add("channel", PriorityChannel, FormatChannel(b.ChannelActivity))
	add("links", PriorityLinks, FormatLinks(b.Links, s.budget.MaxLinks))

	ranked := s.ranker.RankAndTruncate(segments, s.budget.Total)
	parts := make([]string, 0, len(ranked))
	for _, seg := range ranked {
		parts = append(parts, strings.TrimRight(seg.Content, "\n"))
	}
	return strings.Join(parts, "\n\n"), len(segments)
}

// GetStats returns context loading statistics.
func (s *Service) GetStats() *LoaderStats {
	loads := atomic.LoadInt64(&s.stats.totalLoads)
	stats := &LoaderStats{
		TotalLoads:    loads,
		UserCacheHits: atomic.LoadInt64(&s.stats.cacheHits),
	}
	if loads > 0 {
		stats.AverageLoaded = float64(atomic.LoadInt64(&s.stats.totalLoaded)) / float64(loads)
		stats.AverageBuildTime = time.Duration(atomic.LoadInt64(&s.stats.totalBuildMs)/loads) * time.Millisecond
	}
	return stats
}
