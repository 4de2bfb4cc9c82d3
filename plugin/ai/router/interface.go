// Package router classifies inbound messages into a closed set of intents.
package router

import "context"

// Classifier defines the intent classification interface.
type Classifier interface {
	// Classify maps a raw message to an intent and, for commands, the matched command.
	// Implementation: command rules (0ms) -> greeting set (0ms) -> LLM -> fallback LLM -> chat.
	// It never fails: every error path resolves to a valid intent.
	Classify(ctx context.Context, message string) Classification
}

// Intent represents the type of an inbound message.
type Intent string

const (
	IntentGreeting  Intent = "greeting"
	IntentChat      Intent = "chat"
	IntentQuestion  Intent = "question"
	IntentTechnical Intent = "technical"
	IntentCommand   Intent = "command"
	IntentFeedback  Intent = "feedback"
	IntentSpam      Intent = "spam"
)

// AllIntents lists every intent in label-matching order.
// Longer labels come first so the substring parse never prefers a shorter label.
var AllIntents = []Intent{
	IntentTechnical,
	IntentQuestion,
	IntentGreeting,
	IntentFeedback,
	IntentCommand,
	IntentSpam,
	IntentChat,
}

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	for _, known := range AllIntents {
		if i == known {
			return true
		}
	}
	return false
}

// Command names a local command the router can run without a model.
type Command string

const (
	CommandNone        Command = ""
	CommandTokenPrice  Command = "token_price"
	CommandLeaderboard Command = "leaderboard"
	CommandTreasury    Command = "treasury"
	CommandHolders     Command = "holders"
	CommandBuilding    Command = "building"
	CommandRepos       Command = "repos"
	CommandStatus      Command = "status"
)

// Method records which classification layer produced the result.
type Method string

const (
	MethodRule        Method = "rule"
	MethodGreeting    Method = "greeting"
	MethodLLM         Method = "llm"
	MethodLLMFallback Method = "llm_fallback"
	MethodDefault     Method = "default"
)

// Classification is the result of classifying one message.
type Classification struct {
	Intent  Intent  `json:"intent"`
	Command Command `json:"matched_command,omitempty"`
	Method  Method  `json:"method"`
}
