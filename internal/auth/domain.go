package auth

import (
	"context"
	"errors"
	"time"
)

// Errors surfaced to the person signing in or up; see Message.
var (
	ErrInvalidCredentials = errors.New("auth: invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("auth: email not confirmed")
	ErrEmailTaken         = errors.New("auth: user already registered")
	ErrInvalidToken       = errors.New("auth: verification token invalid or expired")
	ErrUserNotFound       = errors.New("auth: user not found")
)

// Message renders an auth error for display. Unknown errors get a generic text.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserNotFound):
		return "Invalid login credentials"
	case errors.Is(err, ErrEmailNotConfirmed):
		return "Email not confirmed"
	case errors.Is(err, ErrEmailTaken):
		return "User already registered"
	case errors.Is(err, ErrInvalidToken):
		return "Verification link is invalid or has expired"
	default:
		return "Something went wrong. Please try again."
	}
}

// Event names delivered to auth-state listeners.
type Event string

const (
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// User represents a stored account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Confirmed reports whether the email address was verified.
func (u *User) Confirmed() bool {
	return u != nil && u.ConfirmedAt != nil
}

// Identity is the public view of the signed-in user.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the credential bundle backing an Identity.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        Identity  `json:"user"`
}

// Clone returns a deep copy, nil-safe.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Listener receives every auth-state change for a client key.
type Listener func(event Event, session *Session)

// Subscription detaches a Listener. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Provider is the authentication collaborator consumed by the session store
// and the auth pages. Keys identify one browser client.
type Provider interface {
	GetSession(ctx context.Context, key string) (*Session, error)
	SignInWithPassword(ctx context.Context, key, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, redirectTo string) error
	SignOut(ctx context.Context, key string) error
	OnAuthStateChange(key string, fn Listener) Subscription
}
