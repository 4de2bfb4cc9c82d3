package context

import "time"

// Lookup sizes per tier.
const (
	HistoryLimit          = 3
	MemoryLimit           = 5
	MemoryThreshold       = 0.4
	KnowledgeLimit        = 3
	ChannelActivityWindow = 2 * time.Hour
	ChannelActivityLimit  = 10
	UserIDCacheTTL        = 5 * time.Minute
)

// Default token budget values
const (
	DefaultMaxTokens = 1200
	MinSegmentTokens = 40
)

// Budget caps what each section may contribute to the context text.
type Budget struct {
	Total          int
	MaxLinks       int
	MaxMemoryChars int // per recalled memory
	MaxKnowledge   int // per knowledge entry, in characters
	MaxChannel     int // channel entries rendered verbatim
}

// DefaultBudget returns the default section budget.
func DefaultBudget() Budget {
	return Budget{
		Total:          DefaultMaxTokens,
		MaxLinks:       5,
		MaxMemoryChars: 280,
		MaxKnowledge:   500,
		MaxChannel:     3,
	}
}

func (b Budget) withDefaults() Budget {
	d := DefaultBudget()
	if b.Total <= 0 {
		b.Total = d.Total
	}
	if b.MaxLinks <= 0 {
		b.MaxLinks = d.MaxLinks
	}
	if b.MaxMemoryChars <= 0 {
		b.MaxMemoryChars = d.MaxMemoryChars
	}
	if b.MaxKnowledge <= 0 {
		b.MaxKnowledge = d.MaxKnowledge
	}
	if b.MaxChannel <= 0 {
		b.MaxChannel = d.MaxChannel
	}
	return b
}
