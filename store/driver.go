package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// SystemSetting model related methods.
	GetSystemSetting(ctx context.Context, name string) (string, error)
	UpsertSystemSetting(ctx context.Context, name, value string) error

	// PlatformLink model related methods.
	ListPlatformLinks(ctx context.Context, find *FindPlatformLink) ([]*PlatformLink, error)
	CreatePlatformLink(ctx context.Context, create *PlatformLink) (*PlatformLink, error)

	// Engagement model related methods.
	// GetEngagement returns nil without error when the user has no record.
	GetEngagement(ctx context.Context, userID string) (*Engagement, error)
	CreateEngagementEvent(ctx context.Context, create *EngagementEvent) (*EngagementEvent, error)

	// Relationship model related methods.
	// GetRelationship returns nil without error when the user has no record.
	GetRelationship(ctx context.Context, userID string) (*Relationship, error)
	UpsertRelationship(ctx context.Context, upsert *UpsertRelationship) (*Relationship, error)

	// Interaction model related methods.
	CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error)
	ListInteractions(ctx context.Context, find *FindInteraction) ([]*Interaction, error)

	// CreateConversationTurn appends to the platform's conversation table.
	CreateConversationTurn(ctx context.Context, create *ConversationTurn) (*ConversationTurn, error)

	// Memory model related methods.
	CreateMemory(ctx context.Context, create *MemoryEntry) (*MemoryEntry, error)
	// MatchMemories performs semantic search using vector similarity.
	MatchMemories(ctx context.Context, match *MatchMemories) ([]*MemoryMatch, error)

	// Knowledge model related methods.
	CreateKnowledgeEntry(ctx context.Context, create *KnowledgeEntry) (*KnowledgeEntry, error)
	SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*KnowledgeMatch, error)
}
