package auth

import (
	"context"
	"errors"
)

// AuthDecision represents the three possible outcomes of authentication.
type AuthDecision int

const (
	// Yes means credentials are valid. The chain stops and the identity is used.
	Yes AuthDecision = iota

	// No means credentials are present but invalid. The chain stops and the
	// provider is unusable with them.
	No

	// Abstain means this authenticator cannot judge the credentials.
	// The chain continues to the next authenticator.
	Abstain
)

func (d AuthDecision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	case Abstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// Credentials are what a host passes when it validates a provider before
// use. Providers that authenticate out of band may ignore them.
type Credentials struct {
	// APIKey is the provider key, if the host has one.
	APIKey string

	// BaseURL overrides the provider endpoint, if supported.
	BaseURL string
}

// AuthResult carries the outcome of an authentication attempt.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity // populated only when Decision == Yes
	Err      error     // populated only when Decision == No
}

// Identity represents an authenticated caller.
type Identity struct {
	// Subject is the unique identifier (required, non-empty).
	Subject string

	// Metadata carries authenticator-specific data.
	Metadata map[string]string
}

// Authenticator examines credentials and returns a three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) AuthResult
}

// ErrUnauthenticated is returned when the chain rejects the credentials
// without a more specific reason.
var ErrUnauthenticated = errors.New("authentication required")

// AuthChain evaluates authenticators in order using three-outcome voting.
type AuthChain struct {
	// Authenticators are evaluated left to right.
	Authenticators []Authenticator

	// DefaultDecision is used when all authenticators abstain.
	DefaultDecision AuthDecision
}

// Authenticate runs the chain. Stops on the first Yes or No.
// If all abstain, returns the default decision.
func (c *AuthChain) Authenticate(ctx context.Context, creds Credentials) AuthResult {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, creds)
		if result.Decision != Abstain {
			return result
		}
	}

	// All abstained: use default.
	if c.DefaultDecision == Yes {
		return AuthResult{
			Decision: Yes,
			Identity: &Identity{Subject: "anonymous"},
		}
	}

	return AuthResult{
		Decision: No,
		Err:      ErrUnauthenticated,
	}
}

// Validate runs a and converts a No decision into an error.
func Validate(ctx context.Context, a Authenticator, creds Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result := a.Authenticate(ctx, creds)
	if result.Decision != No {
		return nil
	}
	if result.Err != nil {
		return result.Err
	}
	return ErrUnauthenticated
}
