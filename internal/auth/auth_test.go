package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJwtPrivateKey is initialized in TestMain.
var testJwtPrivateKey *ecdsa.PrivateKey

const (
	validKeyFile   = "test_valid_private.pem"
	invalidKeyFile = "test_invalid_private.pem"
)

func TestMain(m *testing.M) {
	validKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatalf("Failed to generate ECDSA private key for tests: %v", err)
	}
	testJwtPrivateKey = validKey

	validKeyOut, err := os.Create(validKeyFile)
	if err != nil {
		log.Fatalf("Failed to create valid private key file: %v", err)
	}
	if err := encodeECDSAPrivateKeyToPEM(validKeyOut, validKey); err != nil {
		log.Fatalf("Failed to write valid private key to PEM: %v", err)
	}
	if err := validKeyOut.Close(); err != nil {
		log.Fatalf("Failed to close valid private key file: %v", err)
	}

	if err := os.WriteFile(invalidKeyFile, []byte("-----BEGIN INVALID KEY-----\nnot-a-real-key\n-----END INVALID KEY-----\n"), 0600); err != nil {
		log.Fatalf("Failed to write invalid key to PEM: %v", err)
	}

	code := m.Run()

	if err := os.Remove(validKeyFile); err != nil {
		log.Printf("Warning: failed to remove %s: %v", validKeyFile, err)
	}
	if err := os.Remove(invalidKeyFile); err != nil {
		log.Printf("Warning: failed to remove %s: %v", invalidKeyFile, err)
	}

	os.Exit(code)
}

// encodeECDSAPrivateKeyToPEM writes an ECDSA private key to the given file in PEM format.
func encodeECDSAPrivateKeyToPEM(out *os.File, key *ecdsa.PrivateKey) error {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal ECDSA private key: %w", err)
	}
	block := &pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: der,
	}
	if err := pem.Encode(out, block); err != nil {
		return fmt.Errorf("failed to encode PEM: %w", err)
	}
	return nil
}

func newIssuers(t *testing.T, ttl time.Duration) map[string]*TokenIssuer {
	t.Helper()
	hmacIssuer, err := NewHMACIssuer("ilovescotchyscotch", ttl)
	require.NoError(t, err)
	ecdsaIssuer, err := NewECDSAIssuer(testJwtPrivateKey, ttl)
	require.NoError(t, err)
	return map[string]*TokenIssuer{"HS256": hmacIssuer, "ES256": ecdsaIssuer}
}

func TestNewIssuer_Errors(t *testing.T) {
	_, err := NewHMACIssuer("", 0)
	assert.Error(t, err)
	_, err = NewECDSAIssuer(nil, 0)
	assert.Error(t, err)
}

func TestCreateToken(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		username string
		ttl      time.Duration
	}{
		{name: "no expiry by default", userName: "Ana", username: "ana1"},
		{name: "expiry when ttl set", userName: "Ana", username: "ana1", ttl: 15 * time.Minute},
		{name: "empty display name", userName: "", username: "bob"},
	}

	for _, tt := range tests {
		for alg, issuer := range newIssuers(t, tt.ttl) {
			t.Run(tt.name+"/"+alg, func(t *testing.T) {
				assert.Equal(t, alg, issuer.Algorithm())

				gotTokenString, err := issuer.CreateToken(tt.userName, tt.username)
				require.NoError(t, err)
				require.NotEmpty(t, gotTokenString)

				parsedToken, err := jwt.ParseWithClaims(gotTokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
					return issuer.verifyKey, nil
				}, jwt.WithValidMethods([]string{alg}))
				require.NoError(t, err)
				require.True(t, parsedToken.Valid)

				claims, ok := parsedToken.Claims.(*CustomClaims)
				require.True(t, ok)
				assert.Equal(t, tt.userName, claims.Name)
				assert.Equal(t, tt.username, claims.Username)
				assert.Equal(t, ISSUER, claims.Issuer)

				now := time.Now()
				require.NotNil(t, claims.IssuedAt)
				assert.WithinDuration(t, now, claims.IssuedAt.Time, 5*time.Second)

				if tt.ttl == 0 {
					assert.Nil(t, claims.ExpiresAt)
				} else {
					require.NotNil(t, claims.ExpiresAt)
					assert.WithinDuration(t, now.Add(tt.ttl), claims.ExpiresAt.Time, 5*time.Second)
				}

				_, err = uuid.Parse(claims.ID)
				assert.NoError(t, err, "ID (JTI) claim is not a valid UUID")
			})
		}
	}
}

func TestVerifyToken(t *testing.T) {
	issuers := newIssuers(t, 0)
	hmacIssuer := issuers["HS256"]
	ecdsaIssuer := issuers["ES256"]

	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	otherIssuer, err := NewECDSAIssuer(otherKey, 0)
	require.NoError(t, err)
	otherSecret, err := NewHMACIssuer("another-secret", 0)
	require.NoError(t, err)

	valid, err := ecdsaIssuer.CreateToken("Ana", "ana1")
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{
		Username: "ana1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ISSUER,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("ilovescotchyscotch"))
	require.NoError(t, err)

	signedByOtherKey, err := otherIssuer.CreateToken("Ana", "ana1")
	require.NoError(t, err)
	signedByOtherSecret, err := otherSecret.CreateToken("Ana", "ana1")
	require.NoError(t, err)
	hmacToken, err := hmacIssuer.CreateToken("Ana", "ana1")
	require.NoError(t, err)

	tests := []struct {
		name        string
		issuer      *TokenIssuer
		tokenString string
		wantErr     bool
	}{
		{name: "valid ES256 token", issuer: ecdsaIssuer, tokenString: valid},
		{name: "valid HS256 token", issuer: hmacIssuer, tokenString: hmacToken},
		{name: "invalid token format", issuer: ecdsaIssuer, tokenString: "invalid-token-format", wantErr: true},
		{name: "tampered token", issuer: ecdsaIssuer, tokenString: valid + "x", wantErr: true},
		{name: "expired token", issuer: hmacIssuer, tokenString: expired, wantErr: true},
		{name: "token signed by different key", issuer: ecdsaIssuer, tokenString: signedByOtherKey, wantErr: true},
		{name: "token signed with different secret", issuer: hmacIssuer, tokenString: signedByOtherSecret, wantErr: true},
		{name: "algorithm mismatch", issuer: ecdsaIssuer, tokenString: hmacToken, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClaims, err := tt.issuer.VerifyToken(tt.tokenString)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ana1", gotClaims.Username)
			assert.Equal(t, "Ana", gotClaims.Name)
		})
	}
}
