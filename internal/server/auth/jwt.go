// Package auth implements the signed identity token used by the file
// exchange: a short-lived HS256 JWT carrying the subject's username and
// email. Tokens are issued on login and verified by the HTTP auth gate.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkruglov/fileshare/internal/common"
)

// Claims is the token payload: registered claims plus the identity fields
// recovered by the auth gate.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
}

// IssueToken signs a token for the given identity with the server secret.
// Expiry is the only invalidation mechanism; there is no server-side
// revocation list.
func IssueToken(username, email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", common.ErrConfiguration
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Username: username,
		Email:    email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry and returns the claims.
// All failure modes (malformed input, bad signature, expiry) collapse into
// common.ErrInvalidToken so the response does not leak which check failed.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
