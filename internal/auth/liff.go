// Package auth verifies LIFF ID tokens presented by the storefront.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tacck/line-api-use-case-smart-retail/internal/domain"
)

const lineIssuer = "https://access.line.me"

// Profile is the identity extracted from a verified ID token.
type Profile struct {
	UserID string
}

// LIFFVerifier validates HS256 ID tokens issued to the LIFF channel and
// extracts the LINE user ID.
type LIFFVerifier struct {
	channelID     string
	channelSecret string
}

func NewLIFFVerifier(channelID, channelSecret string) *LIFFVerifier {
	return &LIFFVerifier{
		channelID:     channelID,
		channelSecret: channelSecret,
	}
}

// Verify checks the token signature, issuer, audience, and expiry. An expired
// token maps to domain.ErrTokenExpired; any other defect maps to
// domain.ErrTokenInvalid.
func (v *LIFFVerifier) Verify(idToken string) (Profile, error) {
	if idToken == "" {
		return Profile{}, domain.ErrTokenInvalid
	}

	token, err := jwt.Parse(idToken,
		func(t *jwt.Token) (any, error) {
			return []byte(v.channelSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(lineIssuer),
		jwt.WithAudience(v.channelID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Profile{}, domain.ErrTokenExpired
		}
		return Profile{}, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return Profile{}, domain.ErrTokenInvalid
	}
	return Profile{UserID: sub}, nil
}
