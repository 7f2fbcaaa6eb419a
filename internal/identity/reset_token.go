package identity

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	resetTokenIssuer   = "monthly-attendance"
	resetTokenAudience = "password-reset"
)

var errResetTokenInvalid = errors.New("reset token invalid")

// resetClaims identify the user by subject. Fingerprint is derived from the
// password hash at issue time, so the token stops verifying once the password
// changes.
type resetClaims struct {
	Fingerprint string `json:"pwf"`
	jwt.RegisteredClaims
}

type resetTokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (c resetTokenCodec) issue(userID, passwordHash string) (string, time.Time, error) {
	issuedAt := c.now()
	expiresAt := issuedAt.Add(c.ttl)
	claims := resetClaims{
		Fingerprint: passwordFingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    resetTokenIssuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{resetTokenAudience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign reset token: %w", err)
	}
	return signed, expiresAt, nil
}

func (c resetTokenCodec) parse(token string) (resetClaims, error) {
	var claims resetClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(resetTokenIssuer),
		jwt.WithAudience(resetTokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return resetClaims{}, fmt.Errorf("%w: %v", errResetTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return resetClaims{}, errResetTokenInvalid
	}
	return claims, nil
}

func passwordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return base64.RawURLEncoding.EncodeToString(sum[:12])
}
