package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventChallengeSent   EventType = "challenge_sent"
	EventChallengeFailed EventType = "challenge_failed"
	EventSignupCompleted EventType = "signup_completed"
	EventSigninCompleted EventType = "signin_completed"
	EventSignedOut       EventType = "signed_out"
)

// Flow names which workflow produced the event.
type Flow string

const (
	FlowSignup Flow = "signup"
	FlowSignin Flow = "signin"
)

// Event represents an auth workflow event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Flow      Flow        `json:"flow,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ChallengePayload accompanies challenge_sent and challenge_failed events.
type ChallengePayload struct {
	Phone  string `json:"phone"`
	Status string `json:"status,omitempty"`
}

// AuthenticatedPayload accompanies signup_completed and signin_completed events.
type AuthenticatedPayload struct {
	ProfileID string `json:"profile_id"`
	Phone     string `json:"phone"`
}

// SignedOutPayload accompanies signed_out events.
type SignedOutPayload struct {
	ProfileID string `json:"profile_id"`
}
