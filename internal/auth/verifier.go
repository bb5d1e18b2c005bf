// Package auth defines the narrow authentication contract C6/C7 depend on.
// Token issuance, session lifecycle, and roster onboarding are explicit
// non-goals of this module; only the verification boundary lives here, so a
// real identity provider can be fronted without touching the scoring engine.
package auth

import (
	"context"
	"errors"

	"livecricket.dev/scoring/internal/ids"
)

// ErrInvalidToken is returned by Verify for an unknown or expired token.
var ErrInvalidToken = errors.New("auth: invalid token")

// Verifier resolves a bearer token to the player acting on its behalf.
type Verifier interface {
	Verify(ctx context.Context, token string) (ids.PlayerID, error)
}

// StaticVerifier is a fixed token-to-player map. Useful for tests and for
// deployments that front the process with an external auth proxy issuing
// tokens out of band.
type StaticVerifier map[string]ids.PlayerID

// Verify implements Verifier.
func (v StaticVerifier) Verify(_ context.Context, token string) (ids.PlayerID, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", ErrInvalidToken
}
