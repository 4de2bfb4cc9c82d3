package store

// Interaction directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Interaction is one entry of the cross-platform interaction log.
type Interaction struct {
	ID         int64
	UserID     *string
	Platform   string
	SenderID   string
	SenderName string
	Direction  string
	Content    string
	Intent     string
	Sentiment  float64 // -1..1
	CreatedTs  int64
}

// FindInteraction specifies the conditions for finding interactions.
type FindInteraction struct {
	UserID         *string
	Platform       *string
	SenderID       *string
	CreatedTsAfter *int64
	Limit          int
}
