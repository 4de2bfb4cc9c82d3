package store

// MemoryEntry is one remembered exchange with its embedding.
type MemoryEntry struct {
	ID         string // uuid, generated client-side when empty
	UserID     *string
	Platform   string
	Inbound    string
	Outbound   string
	Content    string // text that was embedded
	Embedding  []float32
	Importance float32 // 0-1
	CreatedTs  int64
}

// MatchMemories specifies a semantic memory lookup.
type MatchMemories struct {
	Embedding []float32
	Threshold float32 // minimum cosine similarity
	Limit     int
}

// MemoryMatch is a memory entry with its similarity to the query.
type MemoryMatch struct {
	Entry      *MemoryEntry
	Similarity float32
}

// KnowledgeEntry is a curated knowledge-base document.
type KnowledgeEntry struct {
	ID        int64
	Title     string
	Content   string
	Category  string
	Embedding []float32
	CreatedTs int64
}

// KnowledgeMatch is a knowledge entry with its similarity to the query.
type KnowledgeMatch struct {
	Entry      *KnowledgeEntry
	Similarity float32
}
