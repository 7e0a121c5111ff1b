package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the session token could not be verified.
var ErrInvalidToken = errors.New("invalid session token")

// Account is the authenticated principal as reported by the external
// identity provider. Only the identifier matters to the ownership
// subsystem; the provider owns everything else about the account.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// EventType classifies session notifications from the identity provider.
type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventTokenRefreshed EventType = "token_refreshed"
	EventSignedOut      EventType = "signed_out"
)

// Event is a session notification consumed by the lifecycle coordinator.
type Event struct {
	Type    EventType
	Account *Account
}

// Verifier validates provider-issued session tokens and extracts the
// account they carry. Token issuance and key rotation stay with the
// provider; this only checks the HMAC signature and reads claims.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier with the shared HMAC secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a session token, returning its account.
func (v *Verifier) Verify(token string) (*Account, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	acct := &Account{ID: sub}
	if email, ok := claims["email"].(string); ok {
		acct.Email = email
	}
	return acct, nil
}
