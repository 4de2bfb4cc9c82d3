package context

import (
	"fmt"
	"strings"

	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/store"
)

// toRecalled converts memory matches, dropping empty entries.
func toRecalled(matches []*store.MemoryMatch) []*RecalledMemory {
	var out []*RecalledMemory
	for _, m := range matches {
		if m == nil || m.Entry == nil {
			continue
		}
		content := m.Entry.Content
		if content == "" {
			content = strings.TrimSpace(m.Entry.Inbound + "\n" + m.Entry.Outbound)
		}
		if content == "" {
			continue
		}
		out = append(out, &RecalledMemory{
			Content:    content,
			Platform:   m.Entry.Platform,
			Similarity: m.Similarity,
			CreatedTs:  m.Entry.CreatedTs,
		})
	}
	return out
}

// FormatMemories renders recalled memories, each capped at maxChars.
func FormatMemories(memories []*RecalledMemory, maxChars int) string {
	if len(memories) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("### Things you remember\n")
	for _, m := range memories {
		text := strings.ReplaceAll(ai.TruncateRunes(m.Content, maxChars), "\n", " / ")
		fmt.Fprintf(&sb, "- %s\n", text)
	}
	return sb.String()
}

// FormatKnowledge renders matched knowledge entries, each capped at maxChars.
func FormatKnowledge(matches []*store.KnowledgeMatch, maxChars int) string {
	if len(matches) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("### Knowledge base\n")
	for _, k := range matches {
		if k == nil || k.Entry == nil {
			continue
		}
		title := k.Entry.Title
		if title == "" {
			title = k.Entry.Category
		}
		fmt.Fprintf(&sb, "[%s] %s\n", title, ai.TruncateRunes(k.Entry.Content, maxChars))
	}
	return sb.String()
}
