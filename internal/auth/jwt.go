package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by admin and user tokens.
type Claims struct {
	jwt.RegisteredClaims
	Staff bool     `json:"is_staff"`
	Roles []string `json:"roles,omitempty"`
}

// JWTVerifier verifies HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (j *JWTVerifier) Verify(token string) (Principal, error) {
	var claims Claims
	t, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if !t.Valid || claims.Subject == "" {
		return Principal{}, ErrInvalidCredentials
	}

	return Principal{
		Subject: claims.Subject,
		Staff:   claims.Staff,
		Roles:   claims.Roles,
	}, nil
}

// Sign issues a token for subject. Used by tooling and tests.
func (j *JWTVerifier) Sign(subject string, staff bool, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "movievault",
		},
		Staff: staff,
		Roles: roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}
