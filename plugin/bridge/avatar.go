package bridge

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrNotConfigured is returned when the avatar bridge URL is unset.
	ErrNotConfigured = errors.New("avatar bridge not configured")

	// ErrThrottled is returned when a speak call exceeds the rate limit.
	ErrThrottled = errors.New("avatar bridge throttled")
)

// Default speak throttle: one utterance every 3 seconds, bursts of 2.
const (
	DefaultSpeakInterval = 3 * time.Second
	DefaultSpeakBurst    = 2
)

// SpeakRequest is the body of POST /speak.
type SpeakRequest struct {
	Text    string `json:"text"`
	Emotion string `json:"emotion"`
}

// Avatar speaks replies through the avatar bridge.
type Avatar struct {
	poster
	limiter *rate.Limiter
}

// NewAvatar creates an avatar bridge client. An empty baseURL disables it.
func NewAvatar(baseURL string, callTimeout time.Duration) *Avatar {
	return &Avatar{
		poster:  newPoster("avatar", baseURL, callTimeout),
		limiter: rate.NewLimiter(rate.Every(DefaultSpeakInterval), DefaultSpeakBurst),
	}
}

// WithLimiter replaces the speak throttle.
func (a *Avatar) WithLimiter(l *rate.Limiter) *Avatar {
	a.limiter = l
	return a
}

// Configured reports whether a bridge URL is set.
func (a *Avatar) Configured() bool {
	return a != nil && a.baseURL != ""
}

// Speak sends text for the avatar to say. It returns ErrNotConfigured or
// ErrThrottled without making a request.
func (a *Avatar) Speak(ctx context.Context, text, emotion string) error {
	if !a.Configured() {
		return ErrNotConfigured
	}
	if a.limiter != nil && !a.limiter.Allow() {
		return ErrThrottled
	}
	return a.post(ctx, "/speak", SpeakRequest{Text: text, Emotion: emotion})
}
