package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
)

// ErrFederatedTokenInvalid is returned when an ID token fails verification.
var ErrFederatedTokenInvalid = errors.New("federated id token invalid")

// FederatedClaims is the identity asserted by a verified ID token.
type FederatedClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// TokenVerifier verifies ID tokens issued by a federated identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (FederatedClaims, error)
}

// GoogleVerifier verifies Google ID tokens issued for ClientID.
type GoogleVerifier struct {
	ClientID string
}

// Verify checks the token signature, expiry and audience and returns its claims.
func (v GoogleVerifier) Verify(_ context.Context, idToken string) (FederatedClaims, error) {
	if v.ClientID == "" {
		return FederatedClaims{}, fmt.Errorf("%w: client id not configured", ErrFederatedTokenInvalid)
	}

	verifier := googleAuthIDTokenVerifier.Verifier{}
	if err := verifier.VerifyIDToken(idToken, []string{v.ClientID}); err != nil {
		return FederatedClaims{}, fmt.Errorf("%w: %v", ErrFederatedTokenInvalid, err)
	}

	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return FederatedClaims{}, fmt.Errorf("%w: %v", ErrFederatedTokenInvalid, err)
	}
	if claimSet.Sub == "" || strings.TrimSpace(claimSet.Email) == "" {
		return FederatedClaims{}, fmt.Errorf("%w: missing subject or email", ErrFederatedTokenInvalid)
	}

	return FederatedClaims{
		Subject:       claimSet.Sub,
		Email:         claimSet.Email,
		EmailVerified: claimSet.EmailVerified,
		Name:          claimSet.Name,
	}, nil
}
