package knowledge

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// ChunkSize is the maximum character count per chunk.
	ChunkSize = 800
	// ChunkOverlap is the character count overlap between chunks.
	ChunkOverlap = 80
)

// ChunkDocument splits a long document into chunks for embedding,
// preserving paragraph boundaries when possible. Sizes count runes.
func ChunkDocument(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if utf8.RuneCountInString(content) <= ChunkSize {
		return []string{content}
	}

	var chunks []string
	var current []rune

	for _, para := range splitParagraphs(content) {
		runes := []rune(para)
		if len(current)+len(runes) > ChunkSize && len(current) > 0 {
			chunks = append(chunks, string(current))
			current = overlapText(current, ChunkOverlap)
		}

		if len(current) > 0 {
			current = append(current, '\n', '\n')
		}
		current = append(current, runes...)

		// Force-split very long paragraphs.
		for len(current) > ChunkSize {
			breakPoint := findBreakPoint(current[:ChunkSize])
			chunks = append(chunks, strings.TrimSpace(string(current[:breakPoint])))
			current = []rune(strings.TrimSpace(string(current[breakPoint:])))
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}
	return chunks
}

// splitParagraphs splits on blank lines and joins wrapped lines with a space.
func splitParagraphs(content string) []string {
	var result []string
	var current strings.Builder

	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// overlapText returns the tail of the previous chunk, starting at a word boundary.
// The result is a fresh slice.
func overlapText(lastChunk []rune, overlapSize int) []rune {
	tail := lastChunk
	if len(lastChunk) > overlapSize {
		tail = lastChunk[len(lastChunk)-overlapSize:]
		for i, r := range tail {
			if r == ' ' || r == '\t' {
				tail = tail[i+1:]
				break
			}
		}
	}
	return append([]rune(nil), tail...)
}

// findBreakPoint finds a sentence or word boundary to split text at.
// It returns a rune offset.
func findBreakPoint(text []rune) int {
	for i := len(text) - 1; i >= 0; i-- {
		if isSentenceEnd(text[i]) {
			if i == len(text)-1 || unicode.IsSpace(text[i+1]) || isFullWidth(text[i]) {
				return i + 1
			}
		}
	}

	for i := len(text) - 1; i >= len(text)/2; i-- {
		if unicode.IsSpace(text[i]) {
			return i
		}
	}

	return len(text)
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// isFullWidth reports whether r is CJK sentence punctuation, which is not
// followed by a space.
func isFullWidth(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}
