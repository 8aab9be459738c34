package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fleetkey/go-fleetkey/pkg/wellknown"
)

// ErrMismatch is returned when a published copy does not match the
// source bytes.
var ErrMismatch = errors.New("published key differs from source")

// Publisher defines the interface for placing the public key at the
// well-known location of a deployment target.
type Publisher interface {
	Publish(ctx context.Context, publicKeyPEM []byte) error
}

// FSPublisher publishes into a local site directory.
type FSPublisher struct {
	siteDir string
}

// NewFSPublisher creates a new FSPublisher rooted at siteDir.
func NewFSPublisher(siteDir string) *FSPublisher {
	return &FSPublisher{siteDir: siteDir}
}

// Path returns the filesystem path the public key is published to.
func (p *FSPublisher) Path() string {
	return wellknown.SitePath(p.siteDir)
}

// Publish writes the public key under the site's well-known directory,
// creating it if needed, then re-reads the copy and compares it with
// the source bytes.
func (p *FSPublisher) Publish(ctx context.Context, publicKeyPEM []byte) error {
	dir := wellknown.SiteDirPath(p.siteDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create well-known directory: %w", err)
	}

	if err := os.WriteFile(p.Path(), publicKeyPEM, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	written, err := os.ReadFile(p.Path())
	if err != nil {
		return fmt.Errorf("failed to read back published key: %w", err)
	}
	if !bytes.Equal(written, publicKeyPEM) {
		return fmt.Errorf("%w: %s", ErrMismatch, p.Path())
	}

	return nil
}

// MultiPublisher publishes to several targets in order, stopping at the
// first failure.
type MultiPublisher struct {
	publishers []Publisher
}

// NewMultiPublisher creates a MultiPublisher over the given targets.
func NewMultiPublisher(publishers ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

// Publish fans the key out to every target.
func (p *MultiPublisher) Publish(ctx context.Context, publicKeyPEM []byte) error {
	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, publicKeyPEM); err != nil {
			return err
		}
	}
	return nil
}
