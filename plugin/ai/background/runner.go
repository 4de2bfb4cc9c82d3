// Package background runs the best-effort side effects of a delivered reply:
// memory, engagement, conversation log, speech, dashboard notice and relationship.
package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/plugin/ai/router"
	"github.com/kiralabs/kira/plugin/ai/timeout"
	"github.com/kiralabs/kira/store"
)

// Task names double as success tags.
const (
	TaskMemory       = "memory"
	TaskEngagement   = "engagement"
	TaskConversation = "conversation"
	TaskSpeak        = "speak"
	TaskThought      = "thought"
	TaskRelationship = "relationship"
)

// Sentinel tags.
const (
	TagSkippedSpam  = "skipped_spam"
	TagSkippedEmpty = "skipped_empty"
	TagDropped      = "dropped"

	failedSuffix = "_failed"
)

// ErrSkipped marks a task that had nothing to do. Skipped tasks emit no tag.
var ErrSkipped = errors.New("task skipped")

// FailedTag returns the failure tag of a task.
func FailedTag(task string) string {
	return task + failedSuffix
}

// IsFailedTag reports whether tag marks a failed task.
func IsFailedTag(tag string) bool {
	return strings.HasSuffix(tag, failedSuffix)
}

// Exchange is one delivered reply and everything the side effects need.
type Exchange struct {
	RequestID  string
	Platform   string
	ChatID     string
	SenderID   string
	SenderName string
	UserID     *string
	Message    string
	Response   string
	Intent     router.Intent
	ModelUsed  string
}

// Store is the subset of the store the runner writes to.
// *store.Store satisfies it.
type Store interface {
	CreateMemory(ctx context.Context, create *store.MemoryEntry) (*store.MemoryEntry, error)
	CreateEngagementEvent(ctx context.Context, create *store.EngagementEvent) (*store.EngagementEvent, error)
	CreateConversationTurn(ctx context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error)
	CreateInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error)
	UpsertRelationship(ctx context.Context, upsert *store.UpsertRelationship) (*store.Relationship, error)
}

// Speaker speaks a reply through the avatar. *bridge.Avatar satisfies it.
type Speaker interface {
	Configured() bool
	Speak(ctx context.Context, text, emotion string) error
}

// Notifier pushes a dashboard notice. *bridge.Dashboard satisfies it.
type Notifier interface {
	Thought(ctx context.Context, text, kind string) error
}

// BatchRunner runs all side effects of an exchange and returns their tags.
type BatchRunner interface {
	Run(ctx context.Context, ex *Exchange) []string
}

type task struct {
	name string
	run  func(ctx context.Context, ex *Exchange) error
}

// Runner runs the side-effect tasks of an exchange concurrently.
type Runner struct {
	store       Store
	embedder    ai.EmbeddingService
	speaker     Speaker
	notifier    Notifier
	taskTimeout time.Duration
	now         func() time.Time
}

// NewRunner creates a runner. A nil speaker or notifier skips that task.
func NewRunner(s Store, embedder ai.EmbeddingService, speaker Speaker, notifier Notifier) *Runner {
	return &Runner{
		store:       s,
		embedder:    embedder,
		speaker:     speaker,
		notifier:    notifier,
		taskTimeout: timeout.BackgroundTaskTimeout,
		now:         time.Now,
	}
}

// WithTaskTimeout overrides the per-task timeout.
func (r *Runner) WithTaskTimeout(d time.Duration) *Runner {
	if d > 0 {
		r.taskTimeout = d
	}
	return r
}

func (r *Runner) tasks() []task {
	return []task{
		{TaskMemory, r.storeMemory},
		{TaskEngagement, r.logEngagement},
		{TaskConversation, r.logConversation},
		{TaskSpeak, r.speak},
		{TaskThought, r.pushThought},
		{TaskRelationship, r.upsertRelationship},
	}
}

// Run launches every task and waits for all of them. A failing task never
// affects the others. Tags follow task listing order.
func (r *Runner) Run(ctx context.Context, ex *Exchange) []string {
	if ex.Intent == router.IntentSpam {
		return []string{TagSkippedSpam}
	}
	if strings.TrimSpace(ex.Response) == "" {
		return []string{TagSkippedEmpty}
	}

	tasks := r.tasks()
	results := make([]string, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.runTask(ctx, t, ex)
		}()
	}
	wg.Wait()

	tags := make([]string, 0, len(results))
	for _, tag := range results {
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (r *Runner) runTask(ctx context.Context, t task, ex *Exchange) (tag string) {
	ctx, cancel := context.WithTimeout(ctx, r.taskTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			slog.Error("background task panicked",
				"task", t.name,
				"request_id", ex.RequestID,
				"panic", fmt.Sprint(p))
			tag = FailedTag(t.name)
		}
	}()

	err := t.run(ctx, ex)
	switch {
	case err == nil:
		return t.name
	case errors.Is(err, ErrSkipped):
		return ""
	default:
		slog.Warn("background task failed",
			"task", t.name,
			"request_id", ex.RequestID,
			"platform", ex.Platform,
			"error", err)
		return FailedTag(t.name)
	}
}
