package context

import (
	"fmt"
	"strings"
	"time"

	"github.com/kiralabs/kira/store"
)

// FormatEngagement renders the sender's engagement record.
func FormatEngagement(e *store.Engagement) string {
	if e == nil {
		return ""
	}
	tier := e.Tier
	if tier == "" {
		tier = store.DefaultEngagementTier
	}
	return fmt.Sprintf("### Sender\nEngagement tier: %s (score %.0f, affinity %.2f)\n", tier, e.Score, e.Affinity)
}

// FormatRelationship renders the relationship notes and the last-interaction summary.
func FormatRelationship(r *store.Relationship) string {
	if r == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("### Relationship\n")
	fmt.Fprintf(&sb, "Interactions so far: %d", r.InteractionCount)
	if r.Favorite {
		sb.WriteString(" (favorite)")
	}
	sb.WriteString("\n")
	if notes := strings.TrimSpace(r.Notes); notes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", notes)
	}
	if summary := strings.TrimSpace(r.LastInteractionSummary); summary != "" {
		fmt.Fprintf(&sb, "Last time: %s\n", summary)
	}
	return sb.String()
}

// FormatHistory renders recent interactions oldest first.
// The input is newest first, as the store returns it.
func FormatHistory(history []*store.Interaction) string {
	if len(history) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("### Recent interactions\n")
	for i := len(history) - 1; i >= 0; i-- {
		it := history[i]
		switch it.Direction {
		case store.DirectionOutbound:
			fmt.Fprintf(&sb, "Kira (%s): %s\n", it.Platform, it.Content)
		default:
			name := it.SenderName
			if name == "" {
				name = "User"
			}
			fmt.Fprintf(&sb, "%s (%s): %s\n", name, it.Platform, it.Content)
		}
	}
	return sb.String()
}

// FormatLinks renders the sender's known platform identities.
func FormatLinks(links []*store.PlatformLink, max int) string {
	if len(links) == 0 {
		return ""
	}
	if max > 0 && len(links) > max {
		links = links[:max]
	}

	parts := make([]string, 0, len(links))
	for _, l := range links {
		if l.Username != "" {
			parts = append(parts, fmt.Sprintf("%s @%s", l.Platform, l.Username))
		} else {
			parts = append(parts, l.Platform)
		}
	}
	return "### Known on\n" + strings.Join(parts, ", ") + "\n"
}

// SummarizeChannel condenses channel interactions (newest first) into a summary.
func SummarizeChannel(platform string, window time.Duration, entries []*store.Interaction, keep int) *ChannelSummary {
	if len(entries) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	summary := &ChannelSummary{
		Platform:     platform,
		Window:       window,
		MessageCount: len(entries),
	}
	for _, e := range entries {
		name := e.SenderName
		if name == "" || e.Direction == store.DirectionOutbound || seen[name] {
			continue
		}
		seen[name] = true
		summary.Participants = append(summary.Participants, name)
	}
	if keep > 0 && len(entries) > keep {
		entries = entries[:keep]
	}
	summary.Latest = entries
	return summary
}

// FormatChannel renders a channel summary.
func FormatChannel(c *ChannelSummary) string {
	if c == nil || c.MessageCount == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "### Channel activity (%s, last %s)\n", c.Platform, formatWindow(c.Window))
	fmt.Fprintf(&sb, "%d messages", c.MessageCount)
	if len(c.Participants) > 0 {
		fmt.Fprintf(&sb, " from %s", strings.Join(c.Participants, ", "))
	}
	sb.WriteString("\n")
	for i := len(c.Latest) - 1; i >= 0; i-- {
		e := c.Latest[i]
		fmt.Fprintf(&sb, "- %s: %s\n", speaker(e), e.Content)
	}
	return sb.String()
}

func speaker(it *store.Interaction) string {
	if it.Direction == store.DirectionOutbound {
		return "Kira"
	}
	if it.SenderName != "" {
		return it.SenderName
	}
	return "someone"
}

func formatWindow(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d/time.Hour))
	}
	return d.String()
}
