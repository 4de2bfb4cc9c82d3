package store

// DefaultEngagementTier is the tier assumed when a user has no engagement record.
const DefaultEngagementTier = "observer"

// Engagement is the externally maintained activity score of a user.
// The router only reads it.
type Engagement struct {
	UserID    string
	Score     float64
	Tier      string // observer, participant, contributor, champion, ...
	Affinity  float64
	UpdatedTs int64
}

// EngagementEvent is one scored activity appended by the router.
type EngagementEvent struct {
	ID        int64
	UserID    string
	Platform  string
	EventType string // reply, command, feedback
	Points    int
	CreatedTs int64
}
