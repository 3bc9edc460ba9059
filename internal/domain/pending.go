package domain

import "time"

// PendingRegistration holds a verified third-party identity that still lacks
// a mobile number. It lives in the pending store for a short TTL and is
// consumed exactly once; it is never persisted as an account.
type PendingRegistration struct {
	Token      string    `json:"token"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Consumed   bool      `json:"consumed"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ExternalIdentity is the verified claim set extracted from a third-party
// assertion.
type ExternalIdentity struct {
	ExternalID string
	Email      string
	Name       string
}

type OutcomeKind int

const (
	OutcomeLoggedIn OutcomeKind = iota + 1
	OutcomeRequireMobile
)

// LoginOutcome is the result of an identity-linking entry point. Exactly one
// branch is populated; handlers switch on Kind and there is no fallback.
type LoginOutcome struct {
	kind         OutcomeKind
	user         *User
	pendingToken string
}

func LoggedIn(user *User) LoginOutcome {
	return LoginOutcome{kind: OutcomeLoggedIn, user: user}
}

func RequireMobile(pendingToken string) LoginOutcome {
	return LoginOutcome{kind: OutcomeRequireMobile, pendingToken: pendingToken}
}

func (o LoginOutcome) Kind() OutcomeKind { return o.kind }

// User returns the resolved user for OutcomeLoggedIn, nil otherwise.
func (o LoginOutcome) User() *User { return o.user }

// PendingToken returns the challenge token for OutcomeRequireMobile.
func (o LoginOutcome) PendingToken() string { return o.pendingToken }
