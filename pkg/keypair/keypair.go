package keypair

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

const (
	privatePEMType = "EC PRIVATE KEY"
	publicPEMType  = "PUBLIC KEY"
)

// KeyPair holds a generated EC P-256 private key together with its
// PEM encodings: SEC1 for the private key, PKIX (SubjectPublicKeyInfo)
// for the public key.
type KeyPair struct {
	PrivateKey *ecdsa.PrivateKey
	PrivatePEM []byte
	PublicPEM  []byte
}

// Generate creates a fresh EC P-256 key pair.
func Generate() (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate P-256 key: %w", err)
	}
	return FromPrivateKey(priv)
}

// FromPrivateKey builds a KeyPair around an existing private key,
// recomputing both PEM encodings.
func FromPrivateKey(priv *ecdsa.PrivateKey) (*KeyPair, error) {
	if priv.Curve != elliptic.P256() {
		return nil, fmt.Errorf("unsupported curve %s, want P-256", priv.Curve.Params().Name)
	}

	privDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: priv,
		PrivatePEM: pem.EncodeToMemory(&pem.Block{Type: privatePEMType, Bytes: privDER}),
		PublicPEM:  pem.EncodeToMemory(&pem.Block{Type: publicPEMType, Bytes: pubDER}),
	}, nil
}

// ParsePrivateKey parses an EC private key from PEM-encoded bytes.
// It supports both SEC1 and PKCS8 formats.
func ParsePrivateKey(keyBytes []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(keyBytes)
	if block == nil {
		return nil, fmt.Errorf("decode pem failed")
	}

	// Try SEC1
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	// Try PKCS8
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if ecKey, ok := key.(*ecdsa.PrivateKey); ok {
			return ecKey, nil
		}
		return nil, fmt.Errorf("not an EC key (parsed as PKCS8)")
	}

	return nil, fmt.Errorf("failed to parse private key (tried SEC1 and PKCS8)")
}

// ParsePublicKey parses an EC public key from PEM-encoded PKIX bytes.
func ParsePublicKey(keyBytes []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(keyBytes)
	if block == nil {
		return nil, fmt.Errorf("decode pem failed")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key is not an EC public key")
	}
	if ecKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("unsupported curve %s, want P-256", ecKey.Curve.Params().Name)
	}
	return ecKey, nil
}

// Fingerprint calculates the SHA-256 fingerprint of the public key
// over its SubjectPublicKeyInfo DER encoding.
func Fingerprint(pub *ecdsa.PublicKey) (string, error) {
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	hash := sha256.Sum256(pubDER)
	return hex.EncodeToString(hash[:]), nil
}

// Fingerprint returns the SHA-256 fingerprint of the pair's public key.
func (kp *KeyPair) Fingerprint() (string, error) {
	return Fingerprint(&kp.PrivateKey.PublicKey)
}
