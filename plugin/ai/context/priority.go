package context

import (
	"sort"
)

// ContextPriority represents the priority level of a context section.
type ContextPriority int

const (
	PriorityEngagement   ContextPriority = 100 // who the sender is
	PriorityRelationship ContextPriority = 90
	PriorityKnowledge    ContextPriority = 80
	PriorityMemories     ContextPriority = 70
	PriorityHistory      ContextPriority = 60
	PriorityChannel      ContextPriority = 50
	PriorityLinks        ContextPriority = 40
)

// ContextSegment represents a rendered section with priority.
type ContextSegment struct {
	Content   string
	Priority  ContextPriority
	TokenCost int
	Source    string // "engagement", "relationship", "knowledge", ...
}

// PriorityRanker ranks and truncates context segments by priority.
type PriorityRanker struct{}

// NewPriorityRanker creates a new priority ranker.
func NewPriorityRanker() *PriorityRanker {
	return &PriorityRanker{}
}

// RankAndTruncate sorts segments by priority and truncates to fit budget.
// Ties keep their input order.
func (r *PriorityRanker) RankAndTruncate(segments []*ContextSegment, budget int) []*ContextSegment {
	if len(segments) == 0 {
		return nil
	}

	sorted := make([]*ContextSegment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	var result []*ContextSegment
	usedTokens := 0

	for _, seg := range sorted {
		if seg.TokenCost <= 0 {
			continue
		}

		if usedTokens+seg.TokenCost <= budget {
			result = append(result, seg)
			usedTokens += seg.TokenCost
			continue
		}

		// Partial fit for the first segment that overflows, then stop.
		remaining := budget - usedTokens
		if remaining >= MinSegmentTokens {
			truncated := truncateToTokens(seg.Content, remaining)
			if len(truncated) > 0 {
				result = append(result, &ContextSegment{
					Content:   truncated,
					Priority:  seg.Priority,
					TokenCost: remaining,
					Source:    seg.Source,
				})
			}
		}
		break
	}

	return result
}

// PrioritizeAndTruncate is a convenience function.
func PrioritizeAndTruncate(segments []*ContextSegment, budget int) []*ContextSegment {
	return NewPriorityRanker().RankAndTruncate(segments, budget)
}

// truncateToTokens cuts content to roughly maxTokens, assuming ~4 characters per token.
func truncateToTokens(content string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}

	runes := []rune(content)
	limit := maxTokens * 4
	if limit >= len(runes) {
		return content
	}
	if limit > 3 {
		return string(runes[:limit-3]) + "..."
	}
	return string(runes[:limit])
}

// EstimateTokens estimates the token count for a string.
// ASCII counts ~4 characters per token, other runes ~1 token each.
func EstimateTokens(content string) int {
	if len(content) == 0 {
		return 0
	}

	wide, ascii := 0, 0
	for _, r := range content {
		if r < 128 {
			ascii++
		} else {
			wide++
		}
	}

	tokens := wide + ascii/4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
