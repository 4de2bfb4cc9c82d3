package store

import (
	"context"

	"github.com/kiralabs/kira/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// ResolveUserID returns the unified user id linked to a platform sender.
// Returns an empty string without error when the sender is not linked.
func (s *Store) ResolveUserID(ctx context.Context, platform, platformUserID string) (string, error) {
	links, err := s.driver.ListPlatformLinks(ctx, &FindPlatformLink{
		Platform:       &platform,
		PlatformUserID: &platformUserID,
		Limit:          1,
	})
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return "", nil
	}
	return links[0].UserID, nil
}

func (s *Store) ListPlatformLinks(ctx context.Context, find *FindPlatformLink) ([]*PlatformLink, error) {
	return s.driver.ListPlatformLinks(ctx, find)
}

func (s *Store) CreatePlatformLink(ctx context.Context, create *PlatformLink) (*PlatformLink, error) {
	return s.driver.CreatePlatformLink(ctx, create)
}

func (s *Store) GetEngagement(ctx context.Context, userID string) (*Engagement, error) {
	return s.driver.GetEngagement(ctx, userID)
}

func (s *Store) CreateEngagementEvent(ctx context.Context, create *EngagementEvent) (*EngagementEvent, error) {
	return s.driver.CreateEngagementEvent(ctx, create)
}

func (s *Store) GetRelationship(ctx context.Context, userID string) (*Relationship, error) {
	return s.driver.GetRelationship(ctx, userID)
}

func (s *Store) UpsertRelationship(ctx context.Context, upsert *UpsertRelationship) (*Relationship, error) {
	return s.driver.UpsertRelationship(ctx, upsert)
}

func (s *Store) CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error) {
	return s.driver.CreateInteraction(ctx, create)
}

func (s *Store) ListInteractions(ctx context.Context, find *FindInteraction) ([]*Interaction, error) {
	return s.driver.ListInteractions(ctx, find)
}

func (s *Store) CreateConversationTurn(ctx context.Context, create *ConversationTurn) (*ConversationTurn, error) {
	return s.driver.CreateConversationTurn(ctx, create)
}

func (s *Store) CreateMemory(ctx context.Context, create *MemoryEntry) (*MemoryEntry, error) {
	return s.driver.CreateMemory(ctx, create)
}

func (s *Store) MatchMemories(ctx context.Context, match *MatchMemories) ([]*MemoryMatch, error) {
	return s.driver.MatchMemories(ctx, match)
}

func (s *Store) CreateKnowledgeEntry(ctx context.Context, create *KnowledgeEntry) (*KnowledgeEntry, error) {
	return s.driver.CreateKnowledgeEntry(ctx, create)
}

func (s *Store) SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*KnowledgeMatch, error) {
	return s.driver.SearchKnowledge(ctx, embedding, limit)
}
