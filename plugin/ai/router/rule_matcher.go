package router

import (
	"regexp"
	"strings"
)

// maxGreetingLength is the longest trimmed message still eligible for the greeting set.
const maxGreetingLength = 5

type commandRule struct {
	command Command
	pattern *regexp.Regexp
}

// RuleMatcher implements the zero-latency layers: command patterns and greetings.
type RuleMatcher struct {
	commandRules []commandRule
	greetings    map[string]struct{}
}

// NewRuleMatcher creates a new rule matcher with the predefined command patterns.
// Rule order matters: the first matching pattern wins.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{
		commandRules: []commandRule{
			{CommandTokenPrice, regexp.MustCompile(`(?i)\b(token\s+price|price\s+of\s+\$?kira|\$kira\s+price|how\s+much\s+is\s+\$?kira)\b`)},
			{CommandLeaderboard, regexp.MustCompile(`(?i)\b(leaderboard|rankings?|top\s+(users|contributors|supporters))\b`)},
			{CommandTreasury, regexp.MustCompile(`(?i)\b(treasury|wallet\s+balance)\b`)},
			{CommandHolders, regexp.MustCompile(`(?i)\b(holder\s+count|how\s+many\s+holders|number\s+of\s+holders|holders\s+count)\b`)},
			{CommandBuilding, regexp.MustCompile(`(?i)\bwhat\s+(are\s+you|r\s+u|you|are\s+u)\s+(building|working\s+on|shipping)\b`)},
			{CommandRepos, regexp.MustCompile(`(?i)\b(list\s+(your\s+)?repos|your\s+repos(itories)?|show\s+(me\s+)?(your\s+)?repos(itories)?)\b`)},
			{CommandStatus, regexp.MustCompile(`(?i)(^\s*/status\b|\bsystem\s+status\b|\bare\s+you\s+(online|alive|up)\b)`)},
		},
		greetings: map[string]struct{}{
			"hi": {}, "hey": {}, "hello": {}, "gm": {}, "gn": {}, "yo": {}, "sup": {},
			"hiya": {}, "howdy": {}, "hola": {}, "gday": {}, "ello": {}, "heya": {}, "morn": {},
		},
	}
}

// MatchCommand returns the first command whose pattern matches message.
func (m *RuleMatcher) MatchCommand(message string) (Command, bool) {
	for _, rule := range m.commandRules {
		if rule.pattern.MatchString(message) {
			return rule.command, true
		}
	}
	return CommandNone, false
}

// IsGreeting reports whether message is a bare greeting token.
func (m *RuleMatcher) IsGreeting(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" || len(normalized) > maxGreetingLength {
		return false
	}
	_, ok := m.greetings[normalized]
	return ok
}

// Match runs both rule layers.
// Returns: classification, matched (true if a rule layer decided).
func (m *RuleMatcher) Match(message string) (Classification, bool) {
	if cmd, ok := m.MatchCommand(message); ok {
		return Classification{Intent: IntentCommand, Command: cmd, Method: MethodRule}, true
	}
	if m.IsGreeting(message) {
		return Classification{Intent: IntentGreeting, Method: MethodGreeting}, true
	}
	return Classification{}, false
}
