package enroll

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fleetkey/go-fleetkey/pkg/config"
	"github.com/fleetkey/go-fleetkey/pkg/keypair"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		KeysDir: filepath.Join(dir, "keys"),
		SiteDir: filepath.Join(dir, "public_site"),
		Domain:  "example.com",
	}
}

func TestRun_ProducesThreeFiles(t *testing.T) {
	cfg := testConfig(t)
	e, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wantPaths := []string{
		filepath.Join(cfg.KeysDir, "private-key.pem"),
		filepath.Join(cfg.KeysDir, "public-key.pem"),
		filepath.Join(cfg.SiteDir, ".well-known", "appspecific", "com.tesla.3p.public-key.pem"),
	}
	gotPaths := []string{result.PrivateKeyPath, result.PublicKeyPath, result.PublishedPath}
	for i, want := range wantPaths {
		if gotPaths[i] != want {
			t.Errorf("Result path = %s, want %s", gotPaths[i], want)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("Expected file at %s: %v", want, err)
		}
	}

	if result.VerificationURL != "https://example.com/.well-known/appspecific/com.tesla.3p.public-key.pem" {
		t.Errorf("VerificationURL = %s", result.VerificationURL)
	}
	if len(result.Fingerprint) != 64 {
		t.Errorf("Fingerprint = %s, want 64 hex chars", result.Fingerprint)
	}
}

func TestRun_PublishedCopyIdentical(t *testing.T) {
	cfg := testConfig(t)
	e, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stored, err := os.ReadFile(result.PublicKeyPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	published, err := os.ReadFile(result.PublishedPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(stored, published) {
		t.Error("Published public key differs from keys directory copy")
	}
}

func TestRun_KeyIsValidP256(t *testing.T) {
	cfg := testConfig(t)
	e, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	published, err := os.ReadFile(result.PublishedPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	pub, err := keypair.ParsePublicKey(published)
	if err != nil {
		t.Fatalf("Published key does not parse as P-256: %v", err)
	}

	privPEM, err := os.ReadFile(result.PrivateKeyPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	priv, err := keypair.ParsePrivateKey(privPEM)
	if err != nil {
		t.Fatalf("Private key does not parse: %v", err)
	}
	if !priv.PublicKey.Equal(pub) {
		t.Error("Published public key does not belong to the private key")
	}
}

func TestRun_OverwritesOnRerun(t *testing.T) {
	cfg := testConfig(t)
	e, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	firstPub, err := os.ReadFile(first.PublishedPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	second, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	secondPub, err := os.ReadFile(second.PublishedPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if bytes.Equal(firstPub, secondPub) {
		t.Error("Re-run did not produce a fresh key pair")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.KeysDir = ""

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("Expected error for invalid configuration")
	}

	// Nothing may be written before validation passes.
	if _, err := os.Stat(cfg.SiteDir); !os.IsNotExist(err) {
		t.Error("Site directory was created despite invalid configuration")
	}
}

func TestVerify(t *testing.T) {
	cfg := testConfig(t)
	e, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Verify before any run must fail.
	if err := e.Verify(context.Background()); err == nil {
		t.Error("Expected Verify to fail before enrollment")
	}

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := e.Verify(context.Background()); err != nil {
		t.Errorf("Verify failed after enrollment: %v", err)
	}
}

func TestVerify_DetectsTamperedPublishedCopy(t *testing.T) {
	cfg := testConfig(t)
	e, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	other, err := keypair.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := os.WriteFile(result.PublishedPath, other.PublicPEM, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := e.Verify(context.Background()); err == nil {
		t.Error("Expected Verify to detect the tampered published copy")
	}
}

func TestInstructions(t *testing.T) {
	result := &Result{
		PrivateKeyPath:  "keys/private-key.pem",
		PublicKeyPath:   "keys/public-key.pem",
		PublishedPath:   "public_site/.well-known/appspecific/com.tesla.3p.public-key.pem",
		Fingerprint:     "abc123",
		VerificationURL: "https://example.com/.well-known/appspecific/com.tesla.3p.public-key.pem",
	}

	text := result.Instructions()
	for _, want := range []string{
		"keys/private-key.pem",
		"sha256:abc123",
		"https://example.com/.well-known/appspecific/com.tesla.3p.public-key.pem",
		"partner_accounts",
	} {
		if !bytes.Contains([]byte(text), []byte(want)) {
			t.Errorf("Instructions missing %q:\n%s", want, text)
		}
	}
}
