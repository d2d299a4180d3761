package auth

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ISSUER = "jungle"
)

// CustomClaims carries the public identity of the authenticated user.
type CustomClaims struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access tokens with a single key.
// HS256 is used with a shared secret, ES256 with an ECDSA private key.
type TokenIssuer struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	ttl       time.Duration
}

// NewHMACIssuer returns an issuer signing with HS256 and the given secret.
// A ttl of zero issues tokens without an expiry.
func NewHMACIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret cannot be empty")
	}
	key := []byte(secret)
	return &TokenIssuer{
		method:    jwt.SigningMethodHS256,
		signKey:   key,
		verifyKey: key,
		ttl:       ttl,
	}, nil
}

// NewECDSAIssuer returns an issuer signing with ES256 and the given private key.
func NewECDSAIssuer(privateKey *ecdsa.PrivateKey, ttl time.Duration) (*TokenIssuer, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	return &TokenIssuer{
		method:    jwt.SigningMethodES256,
		signKey:   privateKey,
		verifyKey: &privateKey.PublicKey,
		ttl:       ttl,
	}, nil
}

// Algorithm returns the JWT alg header value used by the issuer.
func (i *TokenIssuer) Algorithm() string {
	return i.method.Alg()
}

func (i *TokenIssuer) CreateToken(name, username string) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		Name:     name,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   ISSUER,
			ID:       uuid.NewString(),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	token := jwt.NewWithClaims(i.method, claims)

	signToken, err := token.SignedString(i.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signToken, nil
}

func (i *TokenIssuer) VerifyToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return i.verifyKey, nil
	}, jwt.WithValidMethods([]string{i.method.Alg()}), jwt.WithIssuer(ISSUER))
	if err != nil {
		return nil, fmt.Errorf("token parsing error: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token or claims")
}
