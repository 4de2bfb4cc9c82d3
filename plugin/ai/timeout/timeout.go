// Package timeout defines centralized timeout constants for router operations.
package timeout

import "time"

const (
	// ProviderTimeout bounds a single chat-completion call.
	ProviderTimeout = 30 * time.Second

	// ClassificationTimeout bounds a single intent classification call.
	ClassificationTimeout = 10 * time.Second

	// EmbeddingTimeout is the timeout for embedding generation.
	EmbeddingTimeout = 15 * time.Second

	// CommandTimeout bounds a local skill script.
	CommandTimeout = 12 * time.Second

	// BackgroundTaskTimeout bounds each background side effect.
	BackgroundTaskTimeout = 20 * time.Second

	// BridgeTimeout is the HTTP timeout for avatar and dashboard calls.
	BridgeTimeout = 5 * time.Second

	// ShutdownTimeout bounds draining queued background work on exit.
	ShutdownTimeout = 45 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
