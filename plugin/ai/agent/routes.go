package agent

import (
	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/plugin/ai/router"
)

// Route is the generation setup for one intent.
type Route struct {
	Provider    ai.ProviderRole
	Model       string // empty means the provider's default model
	MaxTokens   int
	Temperature float32
	Persona     Persona
}

// RouteTable maps intents to routes. It is fixed at construction.
type RouteTable struct {
	primaryModel     string
	primaryFastModel string
	secondaryModel   string
}

// NewRouteTable builds the route table from the provider configuration.
func NewRouteTable(cfg *ai.Config) *RouteTable {
	t := &RouteTable{}
	if cfg == nil {
		return t
	}
	t.primaryModel = cfg.Primary.Model
	t.primaryFastModel = cfg.Primary.FastModel
	if t.primaryFastModel == "" {
		t.primaryFastModel = cfg.Primary.Model
	}
	t.secondaryModel = cfg.Secondary.Model
	return t
}

// RouteFor returns the route for an intent. Spam has no route;
// a command intent without a recognized command is routed like chat.
func (t *RouteTable) RouteFor(intent router.Intent) Route {
	switch intent {
	case router.IntentGreeting:
		return Route{Provider: ai.ProviderPrimary, Model: t.primaryFastModel, MaxTokens: 100, Temperature: 0.9, Persona: PersonaShort}
	case router.IntentFeedback:
		return Route{Provider: ai.ProviderPrimary, Model: t.primaryModel, MaxTokens: 200, Temperature: 0.7, Persona: PersonaShort}
	case router.IntentChat, router.IntentCommand:
		return Route{Provider: ai.ProviderPrimary, Model: t.primaryModel, MaxTokens: 300, Temperature: 0.8, Persona: PersonaMedium}
	case router.IntentQuestion:
		return Route{Provider: ai.ProviderSecondary, Model: t.secondaryModel, MaxTokens: 500, Temperature: 0.6, Persona: PersonaFull}
	case router.IntentTechnical:
		return Route{Provider: ai.ProviderSecondary, Model: t.secondaryModel, MaxTokens: 800, Temperature: 0.3, Persona: PersonaTechnical}
	case router.IntentSpam:
		return Route{}
	}
	return t.RouteFor(router.IntentChat)
}
