// Package agent generates the reply for a classified message: local commands
// for recognized command intents, persona-routed model calls for the rest.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/plugin/ai/router"
)

// Providers holds the configured chat providers by role.
type Providers map[ai.ProviderRole]ai.LLMService

// RespondRequest is the input of one Respond call.
type RespondRequest struct {
	Message     string
	Intent      router.Intent
	Command     router.Command
	ContextText string
	SenderName  string
	Platform    string
}

// Response is the reply and the label of what produced it.
type Response struct {
	Text      string
	ModelUsed string
	// Fallback is set when the reply came from the fallback provider.
	Fallback bool
	// Err holds the provider or command errors that were recovered from.
	Err error
}

// Responder produces replies. Respond never fails: every error path ends in an
// apology text.
type Responder struct {
	providers Providers
	routes    *RouteTable
	commands  CommandRunner
	metrics   *ResponderMetrics
}

// NewResponder creates a responder.
func NewResponder(providers Providers, routes *RouteTable, commands CommandRunner) *Responder {
	return &Responder{
		providers: providers,
		routes:    routes,
		commands:  commands,
		metrics:   NewResponderMetrics(),
	}
}

// WithMetrics sets the metrics collector.
func (r *Responder) WithMetrics(m *ResponderMetrics) *Responder {
	r.metrics = m
	return r
}

// Metrics returns the metrics collector.
func (r *Responder) Metrics() *ResponderMetrics {
	return r.metrics
}

// Respond generates the reply for a classified message.
func (r *Responder) Respond(ctx context.Context, req *RespondRequest) Response {
	start := time.Now()

	var resp Response
	switch {
	case req.Intent == router.IntentSpam:
		resp = Response{ModelUsed: ModelNone}
	case req.Intent == router.IntentCommand && req.Command != router.CommandNone:
		resp = r.runCommand(ctx, req)
	default:
		resp = r.generate(ctx, req)
	}

	r.metrics.RecordResponse(resp.ModelUsed, resp.Fallback, time.Since(start))
	return resp
}

func (r *Responder) runCommand(ctx context.Context, req *RespondRequest) Response {
	if r.commands == nil {
		r.metrics.RecordCommand(string(req.Command), false)
		return Response{Text: CommandApology, ModelUsed: ModelLocal, Err: ErrUnknownCommand}
	}

	out, err := r.commands.Run(ctx, req.Command)
	r.metrics.RecordCommand(string(req.Command), err == nil)
	if err != nil {
		slog.Warn("command failed, sending apology", "command", string(req.Command), "error", err)
		return Response{Text: CommandApology, ModelUsed: ModelLocal, Err: err}
	}
	return Response{Text: out, ModelUsed: ModelLocal}
}

func (r *Responder) generate(ctx context.Context, req *RespondRequest) Response {
	route := r.routes.RouteFor(req.Intent)
	messages := ai.FormatMessages(
		BuildSystemPrompt(route.Persona, req.ContextText, req.Platform, req.SenderName),
		req.Message,
		nil,
	)

	text, model, err := r.call(ctx, route.Provider, route.Model, route, messages)
	if err == nil {
		return Response{Text: text, ModelUsed: model}
	}
	r.logFailure("primary provider failed, trying fallback", route.Provider, model, req.Intent, err)

	// One hop to the other provider's default model.
	fallbackRole := route.Provider.Other()
	text, fallbackModel, fallbackErr := r.call(ctx, fallbackRole, "", route, messages)
	if fallbackErr == nil {
		return Response{Text: text, ModelUsed: fallbackModel + fallbackSuffix, Fallback: true, Err: err}
	}
	r.logFailure("fallback provider failed, sending apology", fallbackRole, fallbackModel, req.Intent, fallbackErr)

	return Response{Text: SnagApology, ModelUsed: ModelError, Err: errors.Join(err, fallbackErr)}
}

// call runs one chat completion and returns the text and the model it used.
func (r *Responder) call(ctx context.Context, role ai.ProviderRole, model string, route Route, messages []ai.Message) (string, string, error) {
	provider := r.providers[role]
	if provider == nil {
		return "", model, fmt.Errorf("%s: %w", role, ErrProviderMissing)
	}
	if model == "" {
		model = provider.DefaultModel()
	}

	text, err := provider.Chat(ctx, ai.ChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   route.MaxTokens,
		Temperature: route.Temperature,
	})
	if err == nil && text == "" {
		err = fmt.Errorf("%s: %w", provider.Name(), ai.ErrEmptyResponse)
	}
	r.metrics.RecordModelCall(model, err == nil)
	if err != nil {
		return "", model, err
	}
	return text, model, nil
}

func (r *Responder) logFailure(msg string, role ai.ProviderRole, model string, intent router.Intent, err error) {
	classified := ClassifyError(err)
	r.metrics.RecordError(classified)
	slog.Warn(msg,
		"provider", string(role),
		"model", model,
		"intent", string(intent),
		"error_class", classified.Class.String(),
		"error", truncateString(err.Error(), 200),
	)
}
