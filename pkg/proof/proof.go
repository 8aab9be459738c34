// Package proof signs and checks ES256 domain-ownership proofs with the
// enrolled key pair. A proof that verifies against the published public
// key demonstrates the serving domain holds the matching private key.
package proof

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fleetkey/go-fleetkey/pkg/keypair"
)

const defaultTTL = 10 * time.Minute

// Signer generates signed ownership proofs using the private key.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	domain     string
	ttl        time.Duration
}

// NewSigner creates a new Signer for the given domain.
func NewSigner(privateKey *ecdsa.PrivateKey, domain string) *Signer {
	return &Signer{
		privateKey: privateKey,
		domain:     domain,
		ttl:        defaultTTL,
	}
}

// Sign produces an ES256 JWT asserting ownership of the domain.
func (s *Signer) Sign() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": s.domain,
		"sub": s.domain,
		"exp": jwt.NewNumericDate(now.Add(s.ttl)),
		"iat": jwt.NewNumericDate(now),
		"nbf": jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign proof: %w", err)
	}

	return signedToken, nil
}

// Verify checks a proof token against a PEM-encoded public key and the
// expected domain.
func Verify(tokenString string, publicKeyPEM []byte, domain string) error {
	pub, err := keypair.ParsePublicKey(publicKeyPEM)
	if err != nil {
		return fmt.Errorf("failed to parse public key: %w", err)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return pub, nil
	}, jwt.WithIssuer(domain), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("proof verification failed: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("proof token is invalid")
	}

	return nil
}
