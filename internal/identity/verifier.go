// Package identity verifies the host tokens issued by the hosting platform
// and extracts the player id (fid) they carry.
package identity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// FIDClaim is the claim holding the player id.
const FIDClaim = "fid"

var (
	ErrNoSecret     = errors.New("host token secret not configured")
	ErrMissingToken = errors.New("missing host token")
	ErrInvalidToken = errors.New("invalid host token")
	ErrMissingFID   = errors.New("host token has no fid")
)

// Verifier checks HS256 host tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for secret. An empty secret yields a
// Verifier that rejects every token with ErrNoSecret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Verify validates token and returns its fid. A "Bearer " prefix is accepted.
func (v *Verifier) Verify(token string) (string, error) {
	if !v.Enabled() {
		return "", ErrNoSecret
	}
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return "", ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}
	return fidFrom(claims)
}

// Sign issues a token for fid that expires after ttl. A zero ttl issues a
// token without expiry.
func (v *Verifier) Sign(fid string, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", ErrNoSecret
	}
	claims := jwt.MapClaims{FIDClaim: fid, "iat": time.Now().Unix()}
	if ttl > 0 {
		claims["exp"] = time.Now().Add(ttl).Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign host token: %w", err)
	}
	return signed, nil
}

func fidFrom(claims jwt.MapClaims) (string, error) {
	switch fid := claims[FIDClaim].(type) {
	case string:
		if fid != "" {
			return fid, nil
		}
	case float64:
		if fid > 0 {
			return strconv.FormatFloat(fid, 'f', -1, 64), nil
		}
	}
	return "", ErrMissingFID
}
