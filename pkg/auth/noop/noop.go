// Package noop provides a no-op authenticator that accepts any credentials.
// Used for providers that authenticate out of band and as a default voter
// in the auth chain.
package noop

import (
	"context"

	"github.com/rhuss/codexcli/pkg/auth"
)

// Authenticator always returns Yes with an anonymous identity.
type Authenticator struct{}

func (a *Authenticator) Authenticate(_ context.Context, _ auth.Credentials) auth.AuthResult {
	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: "anonymous"},
	}
}
