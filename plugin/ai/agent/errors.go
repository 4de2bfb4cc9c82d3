package agent

import "errors"

var (
	// ErrUnknownCommand indicates a command with no script behind it.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrCommandTimeout indicates the command script ran past its deadline.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrNoOutput indicates the command script printed nothing.
	ErrNoOutput = errors.New("command produced no output")

	// ErrProviderMissing indicates a route names a provider that is not configured.
	ErrProviderMissing = errors.New("provider not configured")
)

// User-facing failure texts.
const (
	SnagApology    = "Sorry, I hit a snag putting that answer together. Give me a moment and try again."
	CommandApology = "Couldn't pull that up right now. Try again in a bit."
)

// Model labels for replies that were not produced by a provider model.
const (
	ModelNone  = "none"
	ModelLocal = "local"
	ModelError = "error"

	fallbackSuffix = " (fallback)"
)
