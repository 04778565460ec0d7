package domain

import "time"

// AuthEventType names what happened in an authentication flow.
type AuthEventType string

const (
	EventSignedUp       AuthEventType = "signed_up"
	EventSignUpRejected AuthEventType = "sign_up_rejected"
	EventSignedIn       AuthEventType = "signed_in"
	EventSignInFailed   AuthEventType = "sign_in_failed"
	EventSignedOut      AuthEventType = "signed_out"
)

// AuthEvent is one entry of the authentication audit trail.
// UserID is zero when the actor could not be identified.
type AuthEvent struct {
	ID         int64
	Type       AuthEventType
	UserID     int64
	Email      string
	IP         string
	UserAgent  string
	OccurredAt time.Time
}
