// Package wellknown defines the fixed path at which Tesla's Fleet API
// expects a third party's public key to be served.
package wellknown

import (
	"net/url"
	"path"
	"path/filepath"
)

const (
	// Dir is the well-known directory, relative to the site root.
	Dir = ".well-known/appspecific"

	// FileName is the public key file name Tesla probes for.
	FileName = "com.tesla.3p.public-key.pem"
)

// SitePath returns the filesystem path of the public key inside siteDir.
func SitePath(siteDir string) string {
	return filepath.Join(siteDir, filepath.FromSlash(Dir), FileName)
}

// SiteDirPath returns the filesystem path of the well-known directory
// inside siteDir.
func SiteDirPath(siteDir string) string {
	return filepath.Join(siteDir, filepath.FromSlash(Dir))
}

// ObjectKey returns the S3 object key for the public key under prefix.
func ObjectKey(prefix string) string {
	return path.Join(prefix, Dir, FileName)
}

// URL returns the HTTPS URL a verifier fetches for the given domain.
func URL(domain string) string {
	u := url.URL{
		Scheme: "https",
		Host:   domain,
		Path:   path.Join(Dir, FileName),
	}
	return u.String()
}
