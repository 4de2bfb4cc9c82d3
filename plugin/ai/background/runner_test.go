package background

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/plugin/ai/router"
	"github.com/kiralabs/kira/plugin/bridge"
	"github.com/kiralabs/kira/store"
)

type fakeStore struct {
	mu            sync.Mutex
	memories      []*store.MemoryEntry
	events        []*store.EngagementEvent
	turns         []*store.ConversationTurn
	interactions  []*store.Interaction
	relationships []*store.UpsertRelationship

	failMemory       error
	failInteractions error
	panicEngagement  bool
}

func (f *fakeStore) CreateMemory(_ context.Context, create *store.MemoryEntry) (*store.MemoryEntry, error) {
	if f.failMemory != nil {
		return nil, f.failMemory
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memories = append(f.memories, create)
	return create, nil
}

func (f *fakeStore) CreateEngagementEvent(_ context.Context, create *store.EngagementEvent) (*store.EngagementEvent, error) {
	if f.panicEngagement {
		panic("engagement exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, create)
	return create, nil
}

func (f *fakeStore) CreateConversationTurn(_ context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, create)
	return create, nil
}

func (f *fakeStore) CreateInteraction(_ context.Context, create *store.Interaction) (*store.Interaction, error) {
	if f.failInteractions != nil {
		return nil, f.failInteractions
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interactions = append(f.interactions, create)
	return create, nil
}

func (f *fakeStore) UpsertRelationship(_ context.Context, upsert *store.UpsertRelationship) (*store.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relationships = append(f.relationships, upsert)
	return &store.Relationship{UserID: upsert.UserID, LastInteractionSummary: upsert.Summary, InteractionCount: len(f.relationships)}, nil
}

func (f *fakeStore) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.memories) + len(f.events) + len(f.turns) + len(f.interactions) + len(f.relationships)
}

type fakeSpeaker struct {
	configured bool
	err        error

	mu    sync.Mutex
	texts []string
	moods []string
}

func (s *fakeSpeaker) Configured() bool { return s.configured }

func (s *fakeSpeaker) Speak(_ context.Context, text, emotion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	s.moods = append(s.moods, emotion)
	return s.err
}

type fakeNotifier struct {
	err error

	mu    sync.Mutex
	texts []string
}

func (n *fakeNotifier) Thought(_ context.Context, text, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return n.err
}

func knownExchange() *Exchange {
	userID := "user-1"
	return &Exchange{
		RequestID:  "req-1",
		Platform:   "telegram",
		ChatID:     "chat-9",
		SenderID:   "42",
		SenderName: "alice",
		UserID:     &userID,
		Message:    "thanks, that was really helpful!",
		Response:   "**Glad** it helped, alice!",
		Intent:     router.IntentFeedback,
		ModelUsed:  "llama-70b",
	}
}

func TestRun_AllTasksSucceed(t *testing.T) {
	st := &fakeStore{}
	speaker := &fakeSpeaker{configured: true}
	notifier := &fakeNotifier{}
	r := NewRunner(st, &ai.MockEmbeddingService{Vector: []float32{0.1, 0.2}}, speaker, notifier)

	tags := r.Run(context.Background(), knownExchange())

	assert.Equal(t, []string{TaskMemory, TaskEngagement, TaskConversation, TaskSpeak, TaskThought, TaskRelationship}, tags)

	require.Len(t, st.memories, 1)
	assert.Equal(t, "thanks, that was really helpful!", st.memories[0].Inbound)
	assert.Equal(t, []float32{0.1, 0.2}, st.memories[0].Embedding)
	assert.InDelta(t, 0.6, st.memories[0].Importance, 1e-6)

	require.Len(t, st.events, 1)
	assert.Equal(t, 3, st.events[0].Points)
	assert.Equal(t, "reply", st.events[0].EventType)

	require.Len(t, st.turns, 2)
	assert.Equal(t, store.RoleUser, st.turns[0].Role)
	assert.Equal(t, "chat-9", st.turns[0].ChatID)
	require.Len(t, st.interactions, 2)
	assert.Greater(t, st.interactions[0].Sentiment, 0.0)
	assert.Equal(t, "42", st.interactions[0].SenderID)
	assert.Equal(t, store.DirectionOutbound, st.interactions[1].Direction)
	assert.Equal(t, "kira", st.interactions[1].SenderID)
	assert.Equal(t, "Kira", st.interactions[1].SenderName)
	assert.Equal(t, st.interactions[0].UserID, st.interactions[1].UserID)

	require.Len(t, speaker.texts, 1)
	assert.Equal(t, "Glad it helped, alice!", speaker.texts[0])

	require.Len(t, notifier.texts, 1)
	assert.Contains(t, notifier.texts[0], "Replied to alice on telegram")

	require.Len(t, st.relationships, 1)
	assert.Contains(t, st.relationships[0].Summary, "[telegram/feedback]")
}

func TestRun_SkipRules(t *testing.T) {
	st := &fakeStore{}
	speaker := &fakeSpeaker{configured: true}
	r := NewRunner(st, &ai.MockEmbeddingService{Vector: []float32{1}}, speaker, &fakeNotifier{})

	spam := knownExchange()
	spam.Intent = router.IntentSpam
	assert.Equal(t, []string{TagSkippedSpam}, r.Run(context.Background(), spam))

	empty := knownExchange()
	empty.Response = "   "
	assert.Equal(t, []string{TagSkippedEmpty}, r.Run(context.Background(), empty))

	assert.Equal(t, 0, st.writes())
	assert.Empty(t, speaker.texts)
}

func TestRun_UnknownSenderSkipsUserTasks(t *testing.T) {
	st := &fakeStore{}
	r := NewRunner(st, &ai.MockEmbeddingService{Vector: []float32{1}}, &fakeSpeaker{}, &fakeNotifier{})

	ex := knownExchange()
	ex.UserID = nil
	ex.Platform = "web"

	tags := r.Run(context.Background(), ex)

	// speak is unconfigured, engagement and relationship need a user id.
	assert.Equal(t, []string{TaskMemory, TaskConversation, TaskThought}, tags)
	assert.Empty(t, st.events)
	assert.Empty(t, st.relationships)
	assert.Empty(t, st.turns, "web has no conversation table")
	assert.Len(t, st.interactions, 2)
}

func TestRun_FailuresAreIsolated(t *testing.T) {
	st := &fakeStore{
		failMemory:       errors.New("insert failed"),
		failInteractions: errors.New("interactions down"),
		panicEngagement:  true,
	}
	notifier := &fakeNotifier{err: errors.New("dashboard unreachable")}
	speaker := &fakeSpeaker{configured: true, err: errors.New("bridge 500")}
	r := NewRunner(st, &ai.MockEmbeddingService{Vector: []float32{1}}, speaker, notifier)

	tags := r.Run(context.Background(), knownExchange())

	assert.Equal(t, []string{
		FailedTag(TaskMemory),
		FailedTag(TaskEngagement),
		FailedTag(TaskConversation),
		FailedTag(TaskSpeak),
		TaskThought,
		TaskRelationship,
	}, tags)
	assert.Len(t, st.relationships, 1)
}

func TestRun_SpeakThrottledIsSkip(t *testing.T) {
	speaker := &fakeSpeaker{configured: true, err: bridge.ErrThrottled}
	r := NewRunner(&fakeStore{}, nil, speaker, nil)

	tags := r.Run(context.Background(), knownExchange())
	assert.NotContains(t, tags, TaskSpeak)
	assert.NotContains(t, tags, FailedTag(TaskSpeak))
	// No embedder means no memory; no notifier means no thought.
	assert.NotContains(t, tags, TaskMemory)
	assert.NotContains(t, tags, TaskThought)
	assert.NotContains(t, tags, FailedTag(TaskThought))
}

func TestRun_TaskTimeout(t *testing.T) {
	embedder := &slowEmbedder{delay: time.Second}
	r := NewRunner(&fakeStore{}, embedder, nil, nil).WithTaskTimeout(50 * time.Millisecond)

	start := time.Now()
	tags := r.Run(context.Background(), knownExchange())
	assert.Contains(t, tags, FailedTag(TaskMemory))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

type slowEmbedder struct {
	delay time.Duration
}

func (s *slowEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	select {
	case <-time.After(s.delay):
		return []float32{1}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *slowEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	v, err := s.Embed(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = v
	}
	return out, nil
}

func (s *slowEmbedder) Dimensions() int { return 1 }

func TestImportance(t *testing.T) {
	assert.InDelta(t, 0.2, Importance(router.IntentGreeting, "gm"), 1e-6)
	assert.InDelta(t, 0.7, Importance(router.IntentTechnical, "short"), 1e-6)
	long := make([]rune, 600)
	for i := range long {
		long[i] = 'a'
	}
	assert.InDelta(t, 0.9, Importance(router.IntentTechnical, string(long)), 1e-6)
}

func TestSentiment(t *testing.T) {
	assert.Equal(t, 0.0, Sentiment("the sky is blue"))
	assert.Equal(t, 1.0, Sentiment("this is great, thanks!"))
	assert.Equal(t, -1.0, Sentiment("total scam, awful"))
	assert.Equal(t, -1.0, Sentiment("not good"))
	assert.Equal(t, 0.0, Sentiment("good but broken"))
}

func TestEmotion(t *testing.T) {
	assert.Equal(t, "happy", Emotion(router.IntentGreeting, 0))
	assert.Equal(t, "thinking", Emotion(router.IntentTechnical, 1))
	assert.Equal(t, "concerned", Emotion(router.IntentChat, -0.5))
	assert.Equal(t, "neutral", Emotion(router.IntentQuestion, 0))
}
