package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/plugin/ai/router"
	"github.com/kiralabs/kira/plugin/bridge"
	"github.com/kiralabs/kira/store"
)

const (
	relationshipSnippetChars = 120
	thoughtSnippetChars      = 80
	thoughtType              = "reply"
	engagementEventReply     = "reply"

	// Kira's own identity on outbound rows.
	kiraSenderID   = "kira"
	kiraSenderName = "Kira"
)

func (r *Runner) storeMemory(ctx context.Context, ex *Exchange) error {
	if r.embedder == nil {
		return ErrSkipped
	}

	content := fmt.Sprintf("%s: %s\nKira: %s", senderLabel(ex), ex.Message, ex.Response)
	vector, err := r.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed exchange: %w", err)
	}

	_, err = r.store.CreateMemory(ctx, &store.MemoryEntry{
		UserID:     ex.UserID,
		Platform:   ex.Platform,
		Inbound:    ex.Message,
		Outbound:   ex.Response,
		Content:    content,
		Embedding:  vector,
		Importance: Importance(ex.Intent, ex.Message),
		CreatedTs:  r.now().Unix(),
	})
	return err
}

func (r *Runner) logEngagement(ctx context.Context, ex *Exchange) error {
	if ex.UserID == nil {
		return ErrSkipped
	}
	_, err := r.store.CreateEngagementEvent(ctx, &store.EngagementEvent{
		UserID:    *ex.UserID,
		Platform:  ex.Platform,
		EventType: engagementEventReply,
		Points:    EngagementPoints(ex.Intent),
		CreatedTs: r.now().Unix(),
	})
	return err
}

// logConversation writes the turn pair to the platform table, when there is
// one, and the inbound/outbound rows to the interaction log.
func (r *Runner) logConversation(ctx context.Context, ex *Exchange) error {
	ts := r.now().Unix()
	var errs []error

	if _, ok := store.ConversationTable(ex.Platform); ok {
		turns := []*store.ConversationTurn{
			{Platform: ex.Platform, ChatID: ex.ChatID, SenderID: ex.SenderID, SenderName: ex.SenderName, Role: store.RoleUser, Content: ex.Message, CreatedTs: ts},
			{Platform: ex.Platform, ChatID: ex.ChatID, SenderID: kiraSenderID, SenderName: kiraSenderName, Role: store.RoleAssistant, Content: ex.Response, CreatedTs: ts},
		}
		for _, turn := range turns {
			if _, err := r.store.CreateConversationTurn(ctx, turn); err != nil {
				errs = append(errs, fmt.Errorf("conversation turn: %w", err))
			}
		}
	}

	rows := []*store.Interaction{
		{UserID: ex.UserID, Platform: ex.Platform, SenderID: ex.SenderID, SenderName: ex.SenderName, Direction: store.DirectionInbound, Content: ex.Message, Intent: string(ex.Intent), Sentiment: Sentiment(ex.Message), CreatedTs: ts},
		{UserID: ex.UserID, Platform: ex.Platform, SenderID: kiraSenderID, SenderName: kiraSenderName, Direction: store.DirectionOutbound, Content: ex.Response, Intent: string(ex.Intent), Sentiment: Sentiment(ex.Response), CreatedTs: ts},
	}
	for _, row := range rows {
		if _, err := r.store.CreateInteraction(ctx, row); err != nil {
			errs = append(errs, fmt.Errorf("interaction %s: %w", row.Direction, err))
		}
	}

	return errors.Join(errs...)
}

func (r *Runner) speak(ctx context.Context, ex *Exchange) error {
	if r.speaker == nil || !r.speaker.Configured() {
		return ErrSkipped
	}

	text := bridge.SpeechText(ex.Response, bridge.MaxSpeechChars)
	if text == "" {
		return ErrSkipped
	}

	err := r.speaker.Speak(ctx, text, Emotion(ex.Intent, Sentiment(ex.Response)))
	if errors.Is(err, bridge.ErrThrottled) || errors.Is(err, bridge.ErrNotConfigured) {
		slog.Debug("speech skipped", "request_id", ex.RequestID, "reason", err)
		return ErrSkipped
	}
	return err
}

// pushThought never fails once a notifier is set: the dashboard is optional.
func (r *Runner) pushThought(ctx context.Context, ex *Exchange) error {
	if r.notifier == nil {
		return ErrSkipped
	}
	text := fmt.Sprintf("Replied to %s on %s: %s",
		senderLabel(ex), ex.Platform, ai.TruncateRunes(ex.Response, thoughtSnippetChars))
	if err := r.notifier.Thought(ctx, text, thoughtType); err != nil {
		slog.Debug("dashboard thought not delivered", "request_id", ex.RequestID, "error", err)
	}
	return nil
}

func (r *Runner) upsertRelationship(ctx context.Context, ex *Exchange) error {
	if ex.UserID == nil {
		return ErrSkipped
	}
	_, err := r.store.UpsertRelationship(ctx, &store.UpsertRelationship{
		UserID:  *ex.UserID,
		Summary: RelationshipSummary(ex),
		Ts:      r.now().Unix(),
	})
	return err
}

// RelationshipSummary is the last-interaction summary kept on the relationship record.
func RelationshipSummary(ex *Exchange) string {
	in := strings.Join(strings.Fields(ai.TruncateRunes(ex.Message, relationshipSnippetChars)), " ")
	out := strings.Join(strings.Fields(ai.TruncateRunes(ex.Response, relationshipSnippetChars)), " ")
	return fmt.Sprintf("[%s/%s] %s -> %s", ex.Platform, ex.Intent, in, out)
}

// Importance scores how worth remembering an exchange is, in 0..1.
func Importance(intent router.Intent, message string) float32 {
	var score float32
	switch intent {
	case router.IntentTechnical:
		score = 0.7
	case router.IntentQuestion, router.IntentFeedback:
		score = 0.6
	case router.IntentChat:
		score = 0.4
	case router.IntentCommand:
		score = 0.3
	case router.IntentGreeting:
		score = 0.2
	case router.IntentSpam:
		score = 0
	}

	n := len([]rune(message))
	if n > 200 {
		score += 0.1
	}
	if n > 500 {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

// EngagementPoints returns the points an exchange is worth.
func EngagementPoints(intent router.Intent) int {
	switch intent {
	case router.IntentTechnical, router.IntentFeedback:
		return 3
	case router.IntentQuestion:
		return 2
	case router.IntentChat, router.IntentGreeting, router.IntentCommand:
		return 1
	case router.IntentSpam:
		return 0
	}
	return 1
}

// Emotion picks the avatar emotion for a reply.
func Emotion(intent router.Intent, sentiment float64) string {
	switch {
	case intent == router.IntentGreeting:
		return "happy"
	case intent == router.IntentTechnical:
		return "thinking"
	case sentiment >= 0.3:
		return "happy"
	case sentiment <= -0.3:
		return "concerned"
	}
	return "neutral"
}

func senderLabel(ex *Exchange) string {
	if ex.SenderName != "" {
		return ex.SenderName
	}
	if ex.SenderID != "" {
		return ex.SenderID
	}
	return "someone"
}
