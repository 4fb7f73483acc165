// Package auth verifies bearer tokens issued by the upstream auth provider
// and maps their subject to a Caller. It never issues tokens.
package auth

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims this service reads. Subject is the auth
// provider id of the user.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

type VerifierConfig struct {
	PublicKey *rsa.PublicKey
	Issuer    string
	Audience  string
	Leeway    time.Duration
	// Now overrides the verification time. Nil means time.Now.
	Now func() time.Time
}

// RSAVerifier accepts RS256 tokens signed by the provider's key.
type RSAVerifier struct {
	key    *rsa.PublicKey
	parser *jwt.Parser
}

func NewRSAVerifier(cfg VerifierConfig) *RSAVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Now))
	}
	return &RSAVerifier{key: cfg.PublicKey, parser: jwt.NewParser(opts...)}
}

func (v *RSAVerifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, internal.ErrMissingToken
	}
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken.WithCause(err)
	}
	if claims.Subject == "" {
		return nil, internal.ErrInvalidToken.WithCause(errors.New("token has no subject"))
	}
	return claims, nil
}
