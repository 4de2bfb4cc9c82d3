package store

// Relationship is the router's running record about a user.
// Notes are curated by hand; LastInteractionSummary is rewritten after every exchange.
type Relationship struct {
	UserID                 string
	Notes                  string
	InteractionCount       int
	LastInteraction        int64
	LastInteractionSummary string
	Favorite               bool
	UpdatedTs              int64
}

// UpsertRelationship increments the interaction count and overwrites the
// last-interaction summary, creating the record when absent. Notes are never touched.
type UpsertRelationship struct {
	UserID  string
	Summary string
	Ts      int64
}
