package keystore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fleetkey/go-fleetkey/pkg/keypair"
)

const (
	// PrivateKeyFile is the private key file name inside the keys directory.
	PrivateKeyFile = "private-key.pem"

	// PublicKeyFile is the public key file name inside the keys directory.
	PublicKeyFile = "public-key.pem"
)

// ErrNotFound is returned when a key file does not exist.
var ErrNotFound = errors.New("key not found")

// Store defines the interface for persisting a key pair.
type Store interface {
	Save(kp *keypair.KeyPair) error
	LoadPrivateKey() (*keypair.KeyPair, error)
	PublicKeyPEM() ([]byte, error)
	PrivateKeyPath() string
	PublicKeyPath() string
}

// FileStore persists the key pair as PEM files in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a new FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// PrivateKeyPath returns the path of the private key file.
func (s *FileStore) PrivateKeyPath() string {
	return filepath.Join(s.dir, PrivateKeyFile)
}

// PublicKeyPath returns the path of the public key file.
func (s *FileStore) PublicKeyPath() string {
	return filepath.Join(s.dir, PublicKeyFile)
}

// Save writes both PEM files, creating the directory if needed. The
// private key is only readable by the owner. Existing files are
// overwritten.
func (s *FileStore) Save(kp *keypair.KeyPair) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create keys directory: %w", err)
	}

	if err := os.WriteFile(s.PrivateKeyPath(), kp.PrivatePEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(s.PublicKeyPath(), kp.PublicPEM, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	return nil
}

// LoadPrivateKey reads the private key file and rebuilds the pair from
// it, re-deriving the public key PEM.
func (s *FileStore) LoadPrivateKey() (*keypair.KeyPair, error) {
	keyBytes, err := os.ReadFile(s.PrivateKeyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.PrivateKeyPath())
		}
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	priv, err := keypair.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return keypair.FromPrivateKey(priv)
}

// PublicKeyPEM reads the stored public key bytes.
func (s *FileStore) PublicKeyPEM() ([]byte, error) {
	pemBytes, err := os.ReadFile(s.PublicKeyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.PublicKeyPath())
		}
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	return pemBytes, nil
}
