// Package analytics captures turn-level product events to PostHog. The
// frontend generates a distinct id per user and forwards it with each chat
// request, so frontend and backend events correlate to one person.
package analytics

import (
	"log"

	"github.com/posthog/posthog-go"
)

// DistinctIDHeader carries the client's PostHog distinct id.
const DistinctIDHeader = "X-PostHog-Distinct-ID"

// anonymousID is used when a request carries no distinct id.
const anonymousID = "anonymous_backend"

// Client captures events. A nil-backed client (no API key configured)
// silently drops everything.
type Client struct {
	ph posthog.Client
}

// New creates a client. An empty apiKey disables analytics.
func New(apiKey, host string) (*Client, error) {
	if apiKey == "" {
		log.Printf("[analytics] no API key configured, analytics disabled")
		return &Client{}, nil
	}

	ph, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: host})
	if err != nil {
		return nil, err
	}
	log.Printf("[analytics] posthog capture enabled (host %s)", host)
	return &Client{ph: ph}, nil
}

// Close flushes pending events.
func (c *Client) Close() {
	if c.ph != nil {
		_ = c.ph.Close()
	}
}

func (c *Client) capture(distinctID, event string, props posthog.Properties) {
	if c.ph == nil {
		return
	}
	if distinctID == "" {
		distinctID = anonymousID
	}
	err := c.ph.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: props,
	})
	if err != nil {
		log.Printf("[analytics] capture failed: %v", err)
	}
}

// TurnCompleted records a turn that reached its finish marker.
func (c *Client) TurnCompleted(distinctID string, totalMS float64, toolFailures, messageLength int) {
	c.capture(distinctID, "chat_turn_completed", posthog.NewProperties().
		Set("total_ms", totalMS).
		Set("tool_failures", toolFailures).
		Set("message_length", messageLength))
}

// TurnAborted records a turn that ended in the aborted state.
func (c *Client) TurnAborted(distinctID, reason string, totalMS float64) {
	c.capture(distinctID, "chat_turn_aborted", posthog.NewProperties().
		Set("reason", reason).
		Set("total_ms", totalMS))
}
