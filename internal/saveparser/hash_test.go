package saveparser

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "save.zip")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	hash, err := HashFile(path)
	if err != nil {
		t.Fatalf("failed to hash file: %v", err)
	}

	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if hash != want {
		t.Errorf("expected %s, got %s", want, hash)
	}
}

func TestHashFile_SameContentSameHash(t *testing.T) {
	dir := t.TempDir()

	pathA := filepath.Join(dir, "a.zip")
	pathB := filepath.Join(dir, "b.zip")
	for _, path := range []string{pathA, pathB} {
		if err := os.WriteFile(path, []byte("identical content"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	hashA, err := HashFile(pathA)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	hashB, err := HashFile(pathB)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}

	if hashA != hashB {
		t.Errorf("expected identical hashes, got %s and %s", hashA, hashB)
	}
}

func TestHashFile_Missing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Error("expected error for missing file")
	}
}
