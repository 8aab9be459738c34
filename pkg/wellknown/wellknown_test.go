package wellknown

import (
	"path/filepath"
	"testing"
)

func TestSitePath(t *testing.T) {
	got := SitePath("public_site")
	want := filepath.Join("public_site", ".well-known", "appspecific", "com.tesla.3p.public-key.pem")
	if got != want {
		t.Errorf("SitePath() = %s, want %s", got, want)
	}
}

func TestObjectKey(t *testing.T) {
	if got := ObjectKey(""); got != ".well-known/appspecific/com.tesla.3p.public-key.pem" {
		t.Errorf("ObjectKey(\"\") = %s", got)
	}
	if got := ObjectKey("site"); got != "site/.well-known/appspecific/com.tesla.3p.public-key.pem" {
		t.Errorf("ObjectKey(\"site\") = %s", got)
	}
}

func TestURL(t *testing.T) {
	got := URL("example.com")
	want := "https://example.com/.well-known/appspecific/com.tesla.3p.public-key.pem"
	if got != want {
		t.Errorf("URL() = %s, want %s", got, want)
	}
}
