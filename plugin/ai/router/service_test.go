package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiralabs/kira/plugin/ai"
)

func TestRuleMatcher_Commands(t *testing.T) {
	matcher := NewRuleMatcher()

	tests := []struct {
		name     string
		input    string
		expected Command
	}{
		{name: "token price", input: "what's the token price today?", expected: CommandTokenPrice},
		{name: "kira price", input: "how much is $KIRA", expected: CommandTokenPrice},
		{name: "leaderboard", input: "show me the leaderboard", expected: CommandLeaderboard},
		{name: "treasury", input: "Treasury update pls", expected: CommandTreasury},
		{name: "holders", input: "how many holders do we have", expected: CommandHolders},
		{name: "building", input: "what are you building these days", expected: CommandBuilding},
		{name: "repos", input: "list your repos", expected: CommandRepos},
		{name: "status slash", input: "/status", expected: CommandStatus},
		{name: "status phrase", input: "are you online?", expected: CommandStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := matcher.MatchCommand(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.expected, cmd)
		})
	}
}

func TestRuleMatcher_FirstMatchWins(t *testing.T) {
	matcher := NewRuleMatcher()

	// Mentions both price and leaderboard; price is earlier in the rule list.
	cmd, ok := matcher.MatchCommand("token price and leaderboard")
	require.True(t, ok)
	assert.Equal(t, CommandTokenPrice, cmd)
}

func TestRuleMatcher_NoCommand(t *testing.T) {
	matcher := NewRuleMatcher()

	for _, input := range []string{"tell me a joke", "what is a merkle tree", "pricey stuff", ""} {
		_, ok := matcher.MatchCommand(input)
		assert.False(t, ok, input)
	}
}

func TestRuleMatcher_Greetings(t *testing.T) {
	matcher := NewRuleMatcher()

	for _, g := range []string{"hi", "hey", "hello", "gm", "gn", "yo", "sup", "hiya", "howdy", "hola", "gday", "ello", "heya", "morn"} {
		assert.True(t, matcher.IsGreeting(g), g)
	}

	assert.True(t, matcher.IsGreeting("  GM  "))
	assert.False(t, matcher.IsGreeting("hi there"))
	assert.False(t, matcher.IsGreeting("hello!"))
	assert.False(t, matcher.IsGreeting("good morning"))
	assert.False(t, matcher.IsGreeting(""))
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		output   string
		expected Intent
		ok       bool
	}{
		{"technical", IntentTechnical, true},
		{"  Question\n", IntentQuestion, true},
		{"Intent: FEEDBACK.", IntentFeedback, true},
		{"this looks like spam", IntentSpam, true},
		{"chat", IntentChat, true},
		{"unsure", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			intent, ok := ParseIntent(tt.output)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, intent)
		})
	}
}

func newTestService(primary, secondary *ai.MockLLMService) *Service {
	return NewService(Config{
		Primary:   ClassifierProvider{Client: primary, Model: "fast-primary"},
		Secondary: ClassifierProvider{Client: secondary, Model: "fast-secondary"},
	})
}

func TestService_CommandSkipsModel(t *testing.T) {
	primary := ai.NewMockLLMService("groq", "m1", "chat")
	secondary := ai.NewMockLLMService("openrouter", "m2", "chat")
	svc := newTestService(primary, secondary)

	result := svc.Classify(context.Background(), "what is the token price")
	assert.Equal(t, Classification{Intent: IntentCommand, Command: CommandTokenPrice, Method: MethodRule}, result)
	assert.Zero(t, primary.CallCount())
	assert.Zero(t, secondary.CallCount())
}

func TestService_GreetingSkipsModel(t *testing.T) {
	primary := ai.NewMockLLMService("groq", "m1", "chat")
	secondary := ai.NewMockLLMService("openrouter", "m2", "chat")
	svc := newTestService(primary, secondary)

	result := svc.Classify(context.Background(), "gm")
	assert.Equal(t, IntentGreeting, result.Intent)
	assert.Equal(t, CommandNone, result.Command)
	assert.Zero(t, primary.CallCount())
}

func TestService_PrimaryLLM(t *testing.T) {
	primary := ai.NewMockLLMService("groq", "m1", "technical")
	secondary := ai.NewMockLLMService("openrouter", "m2", "chat")
	svc := newTestService(primary, secondary)

	result := svc.Classify(context.Background(), "how do I deploy an anchor program")
	assert.Equal(t, IntentTechnical, result.Intent)
	assert.Equal(t, MethodLLM, result.Method)
	assert.Zero(t, secondary.CallCount())

	reqs := primary.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "fast-primary", reqs[0].Model)
	assert.Equal(t, ClassificationPrompt, reqs[0].Messages[0].Content)
}

func TestService_FallbackOnError(t *testing.T) {
	primary := ai.NewMockLLMService("groq", "m1", "")
	primary.Err = errors.New("rate limited")
	secondary := ai.NewMockLLMService("openrouter", "m2", "question")
	svc := newTestService(primary, secondary)

	result := svc.Classify(context.Background(), "when was solana launched")
	assert.Equal(t, IntentQuestion, result.Intent)
	assert.Equal(t, MethodLLMFallback, result.Method)
	assert.Equal(t, 1, secondary.CallCount())
	assert.Equal(t, "fast-secondary", secondary.Requests()[0].Model)
}

func TestService_FallbackOnUnrecognizedLabel(t *testing.T) {
	primary := ai.NewMockLLMService("groq", "m1", "I am not sure")
	secondary := ai.NewMockLLMService("openrouter", "m2", "feedback")
	svc := newTestService(primary, secondary)

	result := svc.Classify(context.Background(), "you were great yesterday")
	assert.Equal(t, IntentFeedback, result.Intent)
	assert.Equal(t, MethodLLMFallback, result.Method)
}

func TestService_BothFailDefaultsToChat(t *testing.T) {
	primary := ai.NewMockLLMService("groq", "m1", "")
	primary.Err = errors.New("down")
	secondary := ai.NewMockLLMService("openrouter", "m2", "")
	secondary.Err = errors.New("down too")
	svc := newTestService(primary, secondary)

	result := svc.Classify(context.Background(), "anything at all")
	assert.Equal(t, IntentChat, result.Intent)
	assert.Equal(t, MethodDefault, result.Method)
	assert.True(t, result.Intent.Valid())
}

func TestService_NoProviders(t *testing.T) {
	svc := NewService(Config{})

	result := svc.Classify(context.Background(), "random musing")
	assert.Equal(t, IntentChat, result.Intent)
	assert.Equal(t, MethodDefault, result.Method)
}

func TestMockClassifier(t *testing.T) {
	mock := NewMockClassifier()
	mock.Overrides["buy now!!!"] = Classification{Intent: IntentSpam, Method: MethodLLM}

	ctx := context.Background()
	assert.Equal(t, IntentSpam, mock.Classify(ctx, "buy now!!!").Intent)
	assert.Equal(t, IntentGreeting, mock.Classify(ctx, "hi").Intent)
	assert.Equal(t, IntentChat, mock.Classify(ctx, "nice weather").Intent)
	assert.Len(t, mock.Calls(), 3)
}

func TestIntentValid(t *testing.T) {
	for _, i := range AllIntents {
		assert.True(t, i.Valid())
	}
	assert.False(t, Intent("unknown").Valid())
}
