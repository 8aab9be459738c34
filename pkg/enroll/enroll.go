package enroll

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fleetkey/go-fleetkey/pkg/config"
	"github.com/fleetkey/go-fleetkey/pkg/keypair"
	"github.com/fleetkey/go-fleetkey/pkg/keystore"
	"github.com/fleetkey/go-fleetkey/pkg/proof"
	"github.com/fleetkey/go-fleetkey/pkg/publish"
	"github.com/fleetkey/go-fleetkey/pkg/wellknown"
)

// Result holds the outcome of a successful enrollment run.
type Result struct {
	PrivateKeyPath  string
	PublicKeyPath   string
	PublishedPath   string
	Fingerprint     string
	VerificationURL string
}

// Enroller runs the one-shot key generation and publication procedure.
type Enroller struct {
	cfg       *config.Config
	store     keystore.Store
	fs        *publish.FSPublisher
	publisher publish.Publisher
}

// New creates an Enroller from the configuration. When an S3 bucket is
// configured the key is published both to the site directory and to the
// bucket.
func New(ctx context.Context, cfg *config.Config) (*Enroller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	fs := publish.NewFSPublisher(cfg.SiteDir)

	var publisher publish.Publisher = fs
	if cfg.PublishToS3() {
		s3pub, err := publish.NewS3Publisher(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to set up S3 publication: %w", err)
		}
		publisher = publish.NewMultiPublisher(fs, s3pub)
	}

	return &Enroller{
		cfg:       cfg,
		store:     keystore.NewFileStore(cfg.KeysDir),
		fs:        fs,
		publisher: publisher,
	}, nil
}

// Run generates a fresh P-256 key pair, persists it under the keys
// directory and publishes the public key at the well-known path. Any
// failing step aborts the run; previously written files are left as is.
func (e *Enroller) Run(ctx context.Context) (*Result, error) {
	log.Printf("Generating EC P-256 key pair")
	kp, err := keypair.Generate()
	if err != nil {
		return nil, err
	}

	log.Printf("Writing key pair to %s", e.cfg.KeysDir)
	if err := e.store.Save(kp); err != nil {
		return nil, err
	}

	log.Printf("Publishing public key to %s", e.fs.Path())
	if err := e.publisher.Publish(ctx, kp.PublicPEM); err != nil {
		return nil, err
	}

	// Both public key copies must hold identical bytes.
	if err := e.checkPublished(); err != nil {
		return nil, err
	}

	fingerprint, err := kp.Fingerprint()
	if err != nil {
		return nil, err
	}

	result := &Result{
		PrivateKeyPath: e.store.PrivateKeyPath(),
		PublicKeyPath:  e.store.PublicKeyPath(),
		PublishedPath:  e.fs.Path(),
		Fingerprint:    fingerprint,
	}
	if e.cfg.Domain != "" {
		result.VerificationURL = wellknown.URL(e.cfg.Domain)
	}
	return result, nil
}

// Verify checks an existing enrollment: the stored private key must
// re-derive the stored public key, the published copy must match it,
// and a signed ownership proof must verify against the published copy.
func (e *Enroller) Verify(ctx context.Context) error {
	kp, err := e.store.LoadPrivateKey()
	if err != nil {
		return fmt.Errorf("load private key: %w", err)
	}

	storedPub, err := e.store.PublicKeyPEM()
	if err != nil {
		return fmt.Errorf("load public key: %w", err)
	}
	if !bytes.Equal(storedPub, kp.PublicPEM) {
		return fmt.Errorf("%w: %s does not match the private key", publish.ErrMismatch, e.store.PublicKeyPath())
	}

	if err := e.checkPublished(); err != nil {
		return err
	}

	domain := e.cfg.Domain
	if domain == "" {
		domain = "localhost"
	}
	token, err := proof.NewSigner(kp.PrivateKey, domain).Sign()
	if err != nil {
		return fmt.Errorf("sign ownership proof: %w", err)
	}
	published, err := os.ReadFile(e.fs.Path())
	if err != nil {
		return fmt.Errorf("read published key: %w", err)
	}
	if err := proof.Verify(token, published, domain); err != nil {
		return fmt.Errorf("verify ownership proof: %w", err)
	}

	return nil
}

func (e *Enroller) checkPublished() error {
	stored, err := e.store.PublicKeyPEM()
	if err != nil {
		return err
	}
	published, err := os.ReadFile(e.fs.Path())
	if err != nil {
		return fmt.Errorf("failed to read published key: %w", err)
	}
	if !bytes.Equal(stored, published) {
		return fmt.Errorf("%w: %s", publish.ErrMismatch, e.fs.Path())
	}
	return nil
}

// Instructions returns the operator follow-up steps for a result.
func (r *Result) Instructions() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Key pair generated.\n\n")
	fmt.Fprintf(&b, "  Private key:   %s\n", r.PrivateKeyPath)
	fmt.Fprintf(&b, "  Public key:    %s\n", r.PublicKeyPath)
	fmt.Fprintf(&b, "  Published at:  %s\n", r.PublishedPath)
	fmt.Fprintf(&b, "  Fingerprint:   sha256:%s\n\n", r.Fingerprint)
	fmt.Fprintf(&b, "Next steps:\n")
	fmt.Fprintf(&b, "  1. Deploy the published directory to your HTTPS site root.\n")
	if r.VerificationURL != "" {
		fmt.Fprintf(&b, "  2. Confirm the key is reachable at:\n     %s\n", r.VerificationURL)
	} else {
		fmt.Fprintf(&b, "  2. Confirm the key is reachable at:\n     https://<your-domain>/%s/%s\n", wellknown.Dir, wellknown.FileName)
	}
	fmt.Fprintf(&b, "  3. Register the domain with the Fleet API partner_accounts endpoint.\n")
	fmt.Fprintf(&b, "  4. Keep the private key safe; it is required for vehicle commands.\n")
	return b.String()
}
