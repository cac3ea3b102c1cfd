package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	tests := map[string]bool{
		"fox.JPG":  true,
		"fox.webp": true,
		"fox.txt":  false,
		"fox":      false,
	}
	for name, want := range tests {
		if got := IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestEnsureDirAndFileExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if FileExists(dir) {
		t.Error("a directory is not a file")
	}

	path := filepath.Join(dir, "x.png")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("expected file to exist")
	}
}

func TestResolvePath(t *testing.T) {
	base := filepath.Join("scripts", "session.json")

	if got := ResolvePath(base, "fox.jpg"); got != filepath.Join("scripts", "fox.jpg") {
		t.Errorf("unexpected relative resolution %q", got)
	}
	if got := ResolvePath(base, "https://example.com/fox.jpg"); got != "https://example.com/fox.jpg" {
		t.Errorf("URLs must be kept, got %q", got)
	}
	abs := filepath.Join(string(filepath.Separator), "tmp", "fox.jpg")
	if got := ResolvePath(base, abs); got != abs {
		t.Errorf("absolute paths must be kept, got %q", got)
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://example.com/fox.jpg") || !IsURL("http://localhost/x") {
		t.Error("expected http(s) sources to be URLs")
	}
	if IsURL("fox.jpg") || IsURL("ftp://example.com/fox.jpg") {
		t.Error("expected non-http sources not to be URLs")
	}
}
