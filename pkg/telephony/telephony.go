// Package telephony is the boundary to the call provider. The orchestrator
// only needs one operation: place an outbound call and learn its SID. Audio,
// speech-to-text, and text-to-speech stay entirely on the provider side; the
// provider streams the conversation back over the relay websocket.
package telephony

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Provider places outbound calls.
type Provider interface {
	// PlaceCall dials the destination and returns the provider call SID.
	PlaceCall(ctx context.Context, toNumber string) (callSID string, err error)
}

// NormalizeNumber trims whitespace and ensures the leading + the provider
// expects. Empty input stays empty so callers can reject it.
func NormalizeNumber(raw string) string {
	n := strings.TrimSpace(raw)
	if n == "" {
		return ""
	}
	if !strings.HasPrefix(n, "+") {
		n = "+" + n
	}
	return n
}

// Loopback is the development provider: it mints a SID without dialing
// anything, so the relay can be driven by a local websocket client.
type Loopback struct{}

func (Loopback) PlaceCall(ctx context.Context, toNumber string) (string, error) {
	return "CA" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}
