// Package context loads the tiered context bundle for a routed message.
// Tier 1 lookups run for every message; tier 2 lookups are gated by intent.
package context

import (
	"context"
	"time"

	"github.com/kiralabs/kira/plugin/ai/router"
	"github.com/kiralabs/kira/store"
)

// Loader loads the context bundle for a message. Load never fails.
type Loader interface {
	Load(ctx context.Context, req *Request) *Bundle
}

// Source is the subset of the store the loader reads from.
// *store.Store satisfies it.
type Source interface {
	ResolveUserID(ctx context.Context, platform, platformUserID string) (string, error)
	GetEngagement(ctx context.Context, userID string) (*store.Engagement, error)
	ListInteractions(ctx context.Context, find *store.FindInteraction) ([]*store.Interaction, error)
	ListPlatformLinks(ctx context.Context, find *store.FindPlatformLink) ([]*store.PlatformLink, error)
	GetRelationship(ctx context.Context, userID string) (*store.Relationship, error)
	MatchMemories(ctx context.Context, match *store.MatchMemories) ([]*store.MemoryMatch, error)
	SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*store.KnowledgeMatch, error)
}

// Request contains parameters for context loading.
type Request struct {
	Platform string
	SenderID string
	Message  string
	Intent   router.Intent
}

// Bundle is everything known about the sender and the conversation.
// Absent data is left at its zero value; Engagement is never nil.
type Bundle struct {
	UserID          *string
	Engagement      *store.Engagement
	History         []*store.Interaction // newest first
	Links           []*store.PlatformLink
	Relationship    *store.Relationship
	Memories        []*RecalledMemory
	ChannelActivity *ChannelSummary
	Knowledge       []*store.KnowledgeMatch

	// ContextText is the flattened, prompt-ready rendering of the bundle.
	ContextText string
	// Loaded counts the non-empty sections.
	Loaded int
	// BuildTime is the wall time spent loading.
	BuildTime time.Duration
}

// Tier returns the sender's engagement tier.
func (b *Bundle) Tier() string {
	if b == nil || b.Engagement == nil || b.Engagement.Tier == "" {
		return store.DefaultEngagementTier
	}
	return b.Engagement.Tier
}

// RecalledMemory is a semantically similar past exchange.
type RecalledMemory struct {
	Content    string
	Platform   string
	Similarity float32
	CreatedTs  int64
}

// ChannelSummary summarizes recent activity on the sender's platform.
type ChannelSummary struct {
	Platform     string
	Window       time.Duration
	MessageCount int
	Participants []string // distinct sender names, most recent first
	Latest       []*store.Interaction
}

// LoaderStats tracks context loading metrics.
type LoaderStats struct {
	TotalLoads       int64
	UserCacheHits    int64
	AverageLoaded    float64
	AverageBuildTime time.Duration
}
